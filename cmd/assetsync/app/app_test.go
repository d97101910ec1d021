package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/sync"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		BaseURL:         "https://inventory.example.edu/api/v1",
		Token:           "token",
		PageSize:        constants.DefaultPageSize,
		DevicesPath:     "devices.csv",
		DirectoryPath:   "directory.csv",
		DefaultCategory: constants.DefaultCategoryName,
		ReadyStatus:     constants.DefaultReadyStatusName,
		DeployedStatus:  constants.DefaultDeployedStatusName,
		Location:        constants.DefaultLocationName,
		Company:         constants.DefaultCompanyName,
		HostnamePrefix:  constants.DefaultHostnamePrefix,
		RenamePolicy:    "recreate",
		LogFormat:       "json",
		LogOutput:       "discard",
		LogDir:          filepath.Join(t.TempDir(), "logs"),
		LogKeep:         2,
	}
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2025-07-15", "test", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2025-07-15" {
		t.Errorf("Date() = %s, want 2025-07-15", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
}

// TestApp_SyncOptions verifies configuration reaches the run options.
func TestApp_SyncOptions(t *testing.T) {
	app, err := New("dev", "", "", "", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	opts := sync.Defaults().Apply(app.SyncOptions()...)
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if opts.RenamePolicy != "recreate" {
		t.Errorf("RenamePolicy = %q, want recreate", opts.RenamePolicy)
	}
	if opts.DevicesPath != "devices.csv" {
		t.Errorf("DevicesPath = %q", opts.DevicesPath)
	}
	if opts.Defaults.Company != constants.DefaultCompanyName {
		t.Errorf("Defaults.Company = %q", opts.Defaults.Company)
	}
}

// TestApp_StartRunLog verifies each run gets its own log file.
func TestApp_StartRunLog(t *testing.T) {
	config := testConfig(t)
	app, err := New("dev", "", "", "", WithConfig(config))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	path, err := app.StartRunLog()
	if err != nil {
		t.Fatalf("StartRunLog() failed: %v", err)
	}
	if filepath.Dir(path) != config.LogDir {
		t.Errorf("run log %q not under %q", path, config.LogDir)
	}

	app.Logger().Debug().Msg("written to the run log")
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "written to the run log") {
		t.Errorf("run log missing debug event: %s", data)
	}
}

// TestApp_VersionCommand verifies the version output.
func TestApp_VersionCommand(t *testing.T) {
	app, err := New("1.2.3", "abc", "", "", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--format", "json"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if got := out.String(); got != "assetsync 1.2.3\n" {
		t.Errorf("version output = %q", got)
	}
}

// TestApp_InvalidFormat verifies an unknown --format is rejected.
func TestApp_InvalidFormat(t *testing.T) {
	app, err := New("dev", "", "", "", WithConfig(testConfig(t)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := app.createRootCommand()
	root.SetArgs([]string{"version", "--format", "xml"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for --format xml")
	}
}
