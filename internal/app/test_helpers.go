package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/charsmith/internal/config"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. The sheet is
// written to out and debug logs to logs.
func SetupAppTest(t *testing.T, cfg *Config, loader config.Loader, modules ...registry.Module) (testApp *App, out, logs *testutil.SafeBuffer) {
	t.Helper()

	out, logs = &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp = NewApp(out, logs, cfg, loader, modules...)

	t.Cleanup(func() {
		if os.Getenv(testutil.LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
