// Package archiver uploads generated reports to object storage in the background.
package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"lead-radar/internal/domain"
	"lead-radar/internal/metrics"
	"lead-radar/internal/repository"
	"lead-radar/internal/storage"
)

// Manager coordinates report archive uploads and their lifecycle.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Enqueue(ctx context.Context, reportID string) error
	Resume(ctx context.Context) error
}

type Config struct {
	Bucket        string
	KeyPrefix     string
	MaxConcurrent int
	Logger        *logrus.Logger
}

var ErrNotStarted = errors.New("archiver not started")

type manager struct {
	cfg     Config
	reports repository.ReportRepository
	storage storage.Service

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[string]struct{}
}

func NewManager(cfg Config, reports repository.ReportRepository, storage storage.Service) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		reports: reports,
		storage: storage,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		active:  make(map[string]struct{}),
	}
}

func (m *manager) Start(ctx context.Context) error {
	if m.cfg.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()
	m.cfg.Logger.Infof("report archiver started, bucket: %s", m.cfg.Bucket)
	return nil
}

func (m *manager) Shutdown() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("report archiver stopped")
}

func (m *manager) Enqueue(ctx context.Context, reportID string) error {
	report, err := m.reports.Get(ctx, reportID)
	if err != nil {
		return err
	}
	return m.spawn(*report)
}

// Resume re-queues reports left pending by a previous run.
func (m *manager) Resume(ctx context.Context) error {
	reports, err := m.reports.ListByArchiveStatus(ctx, domain.ArchiveStatusPending)
	if err != nil {
		return err
	}
	for i := range reports {
		if err := m.spawn(reports[i]); err != nil {
			return err
		}
	}
	m.cfg.Logger.Infof("resumed %d pending report archives", len(reports))
	return nil
}

func (m *manager) spawn(report domain.Report) error {
	m.mu.Lock()
	if m.ctx == nil {
		m.mu.Unlock()
		return ErrNotStarted
	}
	if _, ok := m.active[report.ID]; ok {
		m.mu.Unlock()
		return nil
	}
	m.active[report.ID] = struct{}{}
	ctx := m.ctx
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.unregister(report.ID)
		select {
		case <-ctx.Done():
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.archive(ctx, &report)
		}
	}()
	return nil
}

func (m *manager) unregister(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

func (m *manager) archive(ctx context.Context, report *domain.Report) {
	logger := m.cfg.Logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"business_id": report.BusinessID,
	})
	if report.ArchiveStatus == domain.ArchiveStatusArchived {
		logger.Debug("report already archived, skipping")
		return
	}

	payload, err := json.Marshal(archiveDocument{
		ID:          report.ID,
		BusinessID:  report.BusinessID,
		Period:      report.Period,
		Analysis:    report.Analysis,
		Data:        report.Data,
		GeneratedAt: report.CreatedAt,
	})
	if err != nil {
		m.fail(ctx, report.ID, fmt.Errorf("encode report: %w", err))
		return
	}

	logger.Info("archive upload started")
	location, err := m.storage.UploadObject(ctx, bytes.NewReader(payload), storage.UploadOptions{
		Bucket:           m.cfg.Bucket,
		Key:              m.objectKey(report),
		ContentType:      "application/json",
		Size:             int64(len(payload)),
		ProgressCallback: newUploadProgressLogger(logger),
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("archive upload cancelled, report stays pending")
			return
		}
		m.fail(ctx, report.ID, fmt.Errorf("upload: %w", err))
		return
	}

	if err := m.reports.MarkArchived(context.WithoutCancel(ctx), report.ID, location, time.Now().UTC()); err != nil {
		logger.Errorf("mark archived: %v", err)
		return
	}
	metrics.ReportArchives.WithLabelValues("archived").Inc()
	logger.Infof("report archived to %s", location)
}

type archiveDocument struct {
	ID          string              `json:"id"`
	BusinessID  string              `json:"business_id"`
	Period      domain.ReportPeriod `json:"period"`
	Analysis    string              `json:"analysis"`
	Data        domain.Dashboard    `json:"data"`
	GeneratedAt time.Time           `json:"generated_at"`
}

func (m *manager) objectKey(report *domain.Report) string {
	return storage.ReportKey(m.cfg.KeyPrefix, report.BusinessID, report.ID)
}

func (m *manager) fail(ctx context.Context, reportID string, failErr error) {
	msg := failErr.Error()
	if err := m.reports.MarkArchiveFailed(context.WithoutCancel(ctx), reportID, msg); err != nil {
		m.cfg.Logger.WithField("report_id", reportID).Errorf("persist failure status: %v", err)
	}
	metrics.ReportArchives.WithLabelValues("failed").Inc()
	m.cfg.Logger.WithField("report_id", reportID).Error(msg)
}

func newUploadProgressLogger(logger *logrus.Entry) func(done, total int64) {
	var lastLog time.Time
	return func(done, total int64) {
		now := time.Now()
		if now.Sub(lastLog) < 500*time.Millisecond && done != total {
			return
		}
		lastLog = now
		if total == 0 {
			logger.Debugf("upload progress: %s uploaded", formatBytes(done))
			return
		}
		percent := float64(done) / float64(total) * 100
		logger.Debugf("upload progress: %.1f%% (%s/%s)", percent, formatBytes(done), formatBytes(total))
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB",
		float64(b)/float64(div),
		"KMGTPE"[exp],
	)
}

var _ Manager = (*manager)(nil)
