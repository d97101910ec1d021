package run_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/cmd/assetsync/cmd/run"
	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/internal/snipeittest"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/sync"
)

func setup(t *testing.T, format string) (*snipeittest.Server, *application.Mock) {
	t.Helper()
	fake := snipeittest.New(t)
	fake.AddStatusLabel("Ready to Deploy")
	fake.AddStatusLabel("Deployed")
	fake.AddLocation("Office")
	fake.AddCompany("NYU - Tandon School of Engineering")
	fake.AddCategory("Desktop")

	dir := t.TempDir()
	devices := filepath.Join(dir, "devices.csv")
	directory := filepath.Join(dir, "directory.csv")
	require.NoError(t, os.WriteFile(devices, []byte(
		"Model,Manufacturer,Device Type,Serial,Computer Name,Last Report Time,User Name\n"+
			`OptiPlex,Dell,Desktop,ABC123,eng-jdoe-01,"July 15, 2025 10:55 AM",jdoe`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(directory, []byte(
		"EmployeeNetId,EmployeeID,FirstName,LastName,EmployeeEmailAddress\n"+
			"jdoe,E1,Jane,Doe,jdoe@example.edu\n"), 0o644))

	mock := &application.Mock{
		SyncOptionsFunc: func() []sync.Option {
			return []sync.Option{
				sync.WithAPI(fake.URL(), snipeittest.Token),
				sync.WithFeeds(devices, directory),
				sync.WithUserPassword("s3cret"),
				sync.WithRequestDelay(0),
			}
		},
		OutputFormatFunc: func() string { return format },
	}
	return fake, mock
}

func TestSyncCommandJSON(t *testing.T) {
	fake, mock := setup(t, "json")

	var stdout, stderr bytes.Buffer
	cmd := run.NewCommand(mock)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var result sync.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Assets.Created)
	assert.Equal(t, 1, result.Assets.CheckedOut)
	assert.Empty(t, stderr.String())

	_, ok := fake.HardwareByTag("ABC123")
	assert.True(t, ok)
}

func TestSyncCommandDryRunTable(t *testing.T) {
	fake, mock := setup(t, "table")

	var stdout, stderr bytes.Buffer
	cmd := run.NewCommand(mock)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--dry-run"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, stdout.String(), "Checked Out")
	assert.Contains(t, stderr.String(), "Dry run")
	assert.Empty(t, fake.Calls())
}

func TestSyncCommandFlagOverridesFeed(t *testing.T) {
	_, mock := setup(t, "json")

	cmd := run.NewCommand(mock)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--devices", filepath.Join(t.TempDir(), "missing.csv")})
	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestSyncCommandStrict(t *testing.T) {
	fake, mock := setup(t, "json")
	fake.AddFault(snipeittest.Fault{Method: "POST", Path: "/hardware", Status: 500, Body: `{"status":"error","messages":"boom"}`})

	cmd := run.NewCommand(mock)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--strict"})
	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrVerification))
}
