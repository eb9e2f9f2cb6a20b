package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	AuthRequests.WithLabelValues("resolved").Inc()
	LandingPageEvents.WithLabelValues("visit").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["radar_auth_requests_total"])
	assert.True(t, names["radar_landing_page_events_total"])

	assert.Panics(t, func() { RegisterCollectors(reg) })
}
