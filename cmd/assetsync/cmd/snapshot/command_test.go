package snapshot_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/cmd/assetsync/cmd/snapshot"
	"github.com/agentstation/assetsync/internal/cmd/application"
	"github.com/agentstation/assetsync/internal/snipeittest"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/sync"
)

func newFake(t *testing.T) (*snipeittest.Server, *application.Mock) {
	t.Helper()
	fake := snipeittest.New(t)
	mock := &application.Mock{
		SyncOptionsFunc: func() []sync.Option {
			return []sync.Option{
				sync.WithAPI(fake.URL(), snipeittest.Token),
				sync.WithRequestDelay(0),
			}
		},
		OutputFormatFunc: func() string { return "json" },
	}
	return fake, mock
}

func TestSnapshotCommand(t *testing.T) {
	fake, mock := newFake(t)
	ready := fake.AddStatusLabel("Ready to Deploy")
	deployed := fake.AddStatusLabel("Deployed")
	location := fake.AddLocation("Office")
	company := fake.AddCompany("NYU - Tandon School of Engineering")
	fake.AddCategory("Desktop")
	fake.AddManufacturer("Dell")
	fake.AddUser("jdoe", "E1", "jdoe@example.edu")

	var stdout bytes.Buffer
	cmd := snapshot.NewCommand(mock)
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var summary snapshot.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 1, summary.Counts.Manufacturers)
	assert.Equal(t, 1, summary.Counts.Categories)
	assert.Equal(t, 1, summary.Counts.Users)
	assert.Equal(t, ready, summary.ReadyStatusID)
	assert.Equal(t, deployed, summary.DeployedStatusID)
	assert.Equal(t, location, summary.LocationID)
	assert.Equal(t, company, summary.CompanyID)
	assert.Empty(t, fake.Calls())
}

func TestSnapshotCommandMissingReferenceData(t *testing.T) {
	fake, mock := newFake(t)
	fake.AddStatusLabel("Ready to Deploy")

	cmd := snapshot.NewCommand(mock)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestTableData(t *testing.T) {
	data := snapshot.TableData(snapshot.Summary{
		Counts:        sync.SnapshotCounts{Assets: 12},
		ReadyStatusID: 3,
	})

	require.Len(t, data.Rows, 9)
	assert.Equal(t, []string{"Assets", "12"}, data.Rows[4])
	assert.Equal(t, []string{"Ready Status ID", "3"}, data.Rows[5])
}
