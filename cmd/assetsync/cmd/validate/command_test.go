package validate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/cmd/assetsync/cmd/validate"
	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/pkg/sync"
)

func writeFeeds(t *testing.T) (devices, directory string) {
	t.Helper()
	dir := t.TempDir()
	devices = filepath.Join(dir, "devices.csv")
	directory = filepath.Join(dir, "directory.csv")
	require.NoError(t, os.WriteFile(devices, []byte(
		"Model,Manufacturer,Device Type,Serial,Computer Name,Last Report Time,User Name\n"+
			`OptiPlex,Dell,Desktop,ABC123,eng-jdoe-01,"July 15, 2025 10:55 AM",jdoe`+"\n"+
			`OptiPlex,Dell,Desktop,abc123,eng-jdoe-01,"July 14, 2025 10:55 AM",jdoe`+"\n"+
			`OptiPlex,Dell,Desktop,0000,lab-01,"July 14, 2025 10:55 AM",`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(directory, []byte(
		"EmployeeNetId,EmployeeID,FirstName,LastName,EmployeeEmailAddress\n"+
			"jdoe,E1,Jane,Doe,jdoe@example.edu\n"+
			"asmith,,Al,Smith,asmith@example.edu\n"), 0o644))
	return devices, directory
}

func mockApp(format string, opts ...sync.Option) *application.Mock {
	return &application.Mock{
		SyncOptionsFunc:  func() []sync.Option { return opts },
		OutputFormatFunc: func() string { return format },
	}
}

func TestValidateCommandJSON(t *testing.T) {
	devices, directory := writeFeeds(t)

	var stdout, stderr bytes.Buffer
	cmd := validate.NewCommand(mockApp("json", sync.WithFeeds(devices, directory)))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var result sync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Devices.Unique)
	assert.Equal(t, 1, result.Devices.Duplicates)
	assert.Equal(t, 1, result.Devices.Skipped)
	assert.Equal(t, 1, result.Directory.Loaded)
	assert.Equal(t, 1, result.Directory.Incomplete)
	assert.Empty(t, stderr.String())
}

func TestValidateCommandFlagsWithoutConfig(t *testing.T) {
	devices, directory := writeFeeds(t)

	var stdout, stderr bytes.Buffer
	cmd := validate.NewCommand(mockApp("table"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-d", devices, "-u", directory})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, stdout.String(), "Feeds")
	assert.Contains(t, stderr.String(), "Feeds OK: 1 devices, 1 directory entries")
}

func TestValidateCommandMissingHeader(t *testing.T) {
	_, directory := writeFeeds(t)
	devices := filepath.Join(t.TempDir(), "devices.csv")
	require.NoError(t, os.WriteFile(devices, []byte("Model,Serial\nOptiPlex,ABC123\n"), 0o644))

	cmd := validate.NewCommand(mockApp("json", sync.WithFeeds(devices, directory)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestValidateCommandRequiresFeeds(t *testing.T) {
	cmd := validate.NewCommand(mockApp("json"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.Error(t, cmd.ExecuteContext(context.Background()))
}
