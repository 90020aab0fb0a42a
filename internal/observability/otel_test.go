package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, bad, x= ,tenant=qa")
	require.Equal(t, map[string]string{"api-key": "abc", "tenant": "qa"}, otelHeaders())

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	require.Nil(t, otelHeaders())
}

func TestOtelSampleRatio(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	require.Equal(t, 0.1, otelSampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "7")
	require.Equal(t, 1.0, otelSampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	require.Equal(t, 0.0, otelSampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "0.25")
	require.Equal(t, 0.25, otelSampleRatio())
}
