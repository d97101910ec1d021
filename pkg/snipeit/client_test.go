package snipeit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/internal/snipeittest"
	"github.com/agentstation/assetsync/internal/transport"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

func newClient(t *testing.T, fake *snipeittest.Server, opts ...snipeit.Option) *snipeit.Client {
	t.Helper()
	api := transport.New(fake.URL(), snipeittest.Token, transport.WithRequestDelay(0))
	return snipeit.New(api, opts...)
}

func TestListPaginates(t *testing.T) {
	fake := snipeittest.New(t)
	for i := 0; i < 7; i++ {
		fake.AddManufacturer(fmt.Sprintf("Maker %d", i))
	}

	client := newClient(t, fake, snipeit.WithPageSize(3))
	rows, err := client.ListManufacturers(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Maker 0", rows[0].Name)
	assert.Equal(t, "Maker 6", rows[6].Name)
}

func TestListExactMultipleOfPageSize(t *testing.T) {
	fake := snipeittest.New(t)
	for i := 0; i < 4; i++ {
		fake.AddCategory(fmt.Sprintf("Cat %d", i))
	}

	client := newClient(t, fake, snipeit.WithPageSize(2))
	rows, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestListHardwareDecodesAssignment(t *testing.T) {
	fake := snipeittest.New(t)
	ready := fake.AddStatusLabel("Ready to Deploy")
	user := fake.AddUser("jdoe", "E1", "jdoe@example.edu")
	fake.AddHardware(snipeit.Hardware{AssetTag: "FREE1", StatusLabel: snipeit.StatusLabel{ID: ready}})
	fake.AddHardware(snipeit.Hardware{AssetTag: "TAKEN1", AssignedTo: snipeit.Assignment{ID: user}})

	client := newClient(t, fake)
	rows, err := client.ListHardware(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].AssignedUserID())
	assert.Equal(t, ready, rows[0].StatusLabel.ID)
	assert.Equal(t, "Ready to Deploy", rows[0].StatusLabel.Name)
	assert.Equal(t, user, rows[1].AssignedUserID())
}

func TestAssignmentUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{"null", `{"assigned_to": null}`, 0},
		{"empty list", `{"assigned_to": []}`, 0},
		{"user", `{"assigned_to": {"id": 5, "type": "user"}}`, 5},
		{"location", `{"assigned_to": {"id": 9, "type": "location"}}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h snipeit.Hardware
			require.NoError(t, json.Unmarshal([]byte(tt.json), &h))
			assert.Equal(t, tt.want, h.AssignedUserID())
		})
	}
}

func TestCreateManufacturerConflict(t *testing.T) {
	fake := snipeittest.New(t)
	fake.AddManufacturer("Dell")

	client := newClient(t, fake)
	_, err := client.CreateManufacturer(context.Background(), "dell")
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))

	id, err := client.CreateManufacturer(context.Background(), "Lenovo")
	require.NoError(t, err)
	m, ok := fake.ManufacturerByName("Lenovo")
	require.True(t, ok)
	assert.Equal(t, m.ID, id)
}

func TestSearchUsers(t *testing.T) {
	fake := snipeittest.New(t)
	fake.AddUser("jdoe", "E1", "jdoe@example.edu")
	fake.AddUser("asmith", "E2", "asmith@example.edu")

	client := newClient(t, fake)
	users, err := client.SearchUsers(context.Background(), "JDOE")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "E1", users[0].EmployeeNum)
}

func TestAssetLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := snipeittest.New(t)
	ready := fake.AddStatusLabel("Ready to Deploy")
	deployed := fake.AddStatusLabel("Deployed")
	manu := fake.AddManufacturer("Dell")
	cat := fake.AddCategory("Desktop")
	model := fake.AddModel("OptiPlex", manu, cat)
	user := fake.AddUser("jdoe", "E1", "jdoe@example.edu")

	client := newClient(t, fake)

	h, err := client.CreateAsset(ctx, snipeit.AssetRequest{
		AssetTag: "ABC123", Name: "eng-jdoe-01", Serial: "ABC123", ModelID: model, StatusID: ready,
		Notes: "BigFix Last Report: 2025-07-15 10:55:00",
	})
	require.NoError(t, err)
	require.NotZero(t, h.ID)

	_, err = client.CreateAsset(ctx, snipeit.AssetRequest{AssetTag: "abc123", ModelID: model, StatusID: ready})
	assert.True(t, errors.IsAlreadyExists(err))

	require.NoError(t, client.CheckoutAsset(ctx, h.ID, snipeit.CheckoutRequest{AssignedUser: user, StatusID: deployed}))
	live, err := client.GetAsset(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, user, live.AssignedUserID())
	assert.Equal(t, deployed, live.StatusLabel.ID)

	checkout := fake.CallsTo("POST", "/hardware/", "/checkout")
	require.Len(t, checkout, 1)
	assert.Equal(t, "user", checkout[0].Body["checkout_to_type"])

	require.NoError(t, client.CheckinAsset(ctx, h.ID, snipeit.CheckinRequest{StatusID: ready}))
	live, err = client.GetAsset(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, live.AssignedUserID())
	assert.Equal(t, ready, live.StatusLabel.ID)

	name := "eng-jdoe-02"
	require.NoError(t, client.UpdateAsset(ctx, h.ID, snipeit.AssetPatch{Name: &name}))
	live, err = client.GetAsset(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "eng-jdoe-02", live.Name)
	assert.Equal(t, "BigFix Last Report: 2025-07-15 10:55:00", live.Notes, "fields absent from the patch are untouched")

	require.NoError(t, client.DeleteAsset(ctx, h.ID))
	_, err = client.GetAsset(ctx, h.ID)
	require.Error(t, err)
	apiErr, ok := errors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Asset does not exist.", apiErr.Message)
}

func TestUpdateAssetEmptyPatchIsNoop(t *testing.T) {
	fake := snipeittest.New(t)
	client := newClient(t, fake)
	require.NoError(t, client.UpdateAsset(context.Background(), 99, snipeit.AssetPatch{}))
	assert.Empty(t, fake.Calls())
}

func TestDryRunSendsNoMutations(t *testing.T) {
	ctx := context.Background()
	fake := snipeittest.New(t)
	ready := fake.AddStatusLabel("Ready to Deploy")
	deployed := fake.AddStatusLabel("Deployed")
	user := fake.AddUser("jdoe", "E1", "jdoe@example.edu")
	existing := fake.AddHardware(snipeit.Hardware{AssetTag: "OLD1", StatusLabel: snipeit.StatusLabel{ID: ready}})

	client := newClient(t, fake, snipeit.WithDryRun(true))
	assert.True(t, client.DryRun())

	id, err := client.CreateManufacturer(ctx, "Lenovo")
	require.NoError(t, err)
	assert.Negative(t, id)

	h, err := client.CreateAsset(ctx, snipeit.AssetRequest{AssetTag: "NEW1", StatusID: ready})
	require.NoError(t, err)
	assert.Negative(t, h.ID)

	require.NoError(t, client.CheckoutAsset(ctx, h.ID, snipeit.CheckoutRequest{AssignedUser: user, StatusID: deployed}))
	live, err := client.GetAsset(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, user, live.AssignedUserID())

	require.NoError(t, client.CheckoutAsset(ctx, existing, snipeit.CheckoutRequest{AssignedUser: user, StatusID: deployed}))
	live, err = client.GetAsset(ctx, existing)
	require.NoError(t, err)
	assert.Equal(t, user, live.AssignedUserID(), "reads reflect the skipped write")

	stored, _ := fake.Hardware(existing)
	assert.Equal(t, 0, stored.AssignedUserID(), "remote is untouched")

	require.NoError(t, client.DeleteAsset(ctx, existing))
	_, err = client.GetAsset(ctx, existing)
	assert.True(t, errors.IsNotFound(err))

	assert.Empty(t, fake.Calls())
}
