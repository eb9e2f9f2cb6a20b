package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"lead-radar/internal/domain"
	"lead-radar/internal/metrics"
)

// NotConfiguredText is returned in place of generated content when no provider is set up.
const NotConfiguredText = "generative provider is not configured"

// ErrProviderFailed wraps provider failures when the assistant surfaces them.
var ErrProviderFailed = errors.New("generative provider failed")

// Assistant renders marketing prompts and runs them through a Generator.
type Assistant struct {
	gen           Generator
	logger        *logrus.Logger
	surfaceErrors bool
}

// NewAssistant builds an assistant. A nil gen yields NotConfiguredText for every call.
// With surfaceErrors unset, provider failures are returned as a text payload
// instead of an error.
func NewAssistant(gen Generator, logger *logrus.Logger, surfaceErrors bool) *Assistant {
	if logger == nil {
		logger = logrus.New()
	}
	return &Assistant{gen: gen, logger: logger, surfaceErrors: surfaceErrors}
}

// Configured reports whether a provider is available.
func (a *Assistant) Configured() bool {
	return a.gen != nil
}

// MarketInsight analyses a niche, optionally restricted to a city.
func (a *Assistant) MarketInsight(ctx context.Context, kind domain.InsightType, niche, city string) (string, error) {
	tmpl, ok := insightPrompts[kind]
	if !ok {
		tmpl = insightPrompts[domain.InsightTypeTrends]
	}
	prompt, err := render(tmpl, struct{ Niche, City string }{niche, city})
	if err != nil {
		return "", fmt.Errorf("render insight prompt: %w", err)
	}
	return a.generate(ctx, consultantSystem, prompt)
}

// Strategy drafts a campaign, content plan or promotion for a niche.
func (a *Assistant) Strategy(ctx context.Context, kind domain.StrategyType, niche string) (string, error) {
	tmpl, ok := strategyPrompts[kind]
	if !ok {
		tmpl = strategyPrompts[domain.StrategyTypeCampaign]
	}
	prompt, err := render(tmpl, struct{ Niche string }{niche})
	if err != nil {
		return "", fmt.Errorf("render strategy prompt: %w", err)
	}
	return a.generate(ctx, consultantSystem, prompt)
}

// ExecutiveReport summarises a dashboard snapshot for the given period.
func (a *Assistant) ExecutiveReport(ctx context.Context, period domain.ReportPeriod, niche string, overview domain.DashboardOverview) (string, error) {
	text, ok := periodText[period]
	if !ok {
		text = "semanal"
	}
	prompt, err := render(reportPrompt, struct {
		PeriodText string
		Niche      string
		Overview   domain.DashboardOverview
	}{text, niche, overview})
	if err != nil {
		return "", fmt.Errorf("render report prompt: %w", err)
	}
	return a.generate(ctx, reportSystem, prompt)
}

func (a *Assistant) generate(ctx context.Context, system, prompt string) (string, error) {
	if a.gen == nil {
		metrics.AIRequests.WithLabelValues("not_configured").Inc()
		return NotConfiguredText, nil
	}

	out, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		metrics.AIRequests.WithLabelValues("error").Inc()
		a.logger.WithError(err).Error("generative provider call failed")
		if a.surfaceErrors {
			return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
		}
		return "failed to process request: " + err.Error(), nil
	}
	metrics.AIRequests.WithLabelValues("success").Inc()
	return out, nil
}
