package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("CHARSMITH_OTEL_ENDPOINT", "")
	t.Setenv("CHARSMITH_OTEL_ENABLED", "")

	shutdown, err := Setup(context.Background(), "charsmith-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("CHARSMITH_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("CHARSMITH_OTEL_ENABLED", "false")

	shutdown, err := Setup(context.Background(), "charsmith-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// A non-routable address, so nothing is exported.
	t.Setenv("CHARSMITH_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("CHARSMITH_OTEL_ENABLED", "")

	shutdown, err := Setup(context.Background(), "charsmith-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
