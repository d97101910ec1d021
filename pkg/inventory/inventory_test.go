package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/pkg/inventory"
)

func TestReferenceIndex(t *testing.T) {
	idx := inventory.NewReferenceIndex(inventory.KindManufacturer)

	assert.True(t, idx.Put("  Dell Inc. ", 4))
	assert.False(t, idx.Put("DELL INC.", 9), "a name maps to at most one ID")
	assert.False(t, idx.Put("   ", 1))

	id, ok := idx.Get("dell inc.")
	require.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = idx.Get("Lenovo")
	assert.False(t, ok)

	idx.Put("Apple", 2)
	assert.Equal(t, []string{"apple", "dell inc."}, idx.Names())
	assert.Equal(t, 2, idx.Len())
}

func TestModelIndex(t *testing.T) {
	idx := inventory.NewModelIndex()
	idx.Put(inventory.NewModelKey("OptiPlex 7090", 4, 1), 100)

	id, ok := idx.Get(inventory.ModelKey{Name: " optiplex 7090", ManufacturerID: 4, CategoryID: 1})
	require.True(t, ok)
	assert.Equal(t, 100, id)

	_, ok = idx.Get(inventory.NewModelKey("OptiPlex 7090", 4, 2))
	assert.False(t, ok, "same name in another category is another model")
}

func TestDirectory(t *testing.T) {
	dir := inventory.NewDirectory()
	assert.True(t, dir.Put(inventory.DirectoryRecord{EmployeeID: "E1", NetID: "JDoe", FirstName: "Jane"}))
	assert.False(t, dir.Put(inventory.DirectoryRecord{EmployeeID: "E1", NetID: "other"}))
	assert.True(t, dir.Put(inventory.DirectoryRecord{EmployeeID: "E2", NetID: "asmith"}))

	rec, ok := dir.ByNetID("jdoe")
	require.True(t, ok)
	assert.Equal(t, "Jane", rec.FirstName)

	_, ok = dir.ByNetID("other")
	assert.False(t, ok)

	records := dir.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "E1", records[0].EmployeeID)
	assert.Equal(t, "E2", records[1].EmployeeID)
}

func TestUserIndex(t *testing.T) {
	users := inventory.NewUserIndex()
	users.Put(inventory.RemoteUser{ID: 42, NetID: "JDoe", EmployeeID: "E1"})
	users.Put(inventory.RemoteUser{ID: 43, NetID: "nobadge"})

	u, ok := users.ByNetID("jdoe")
	require.True(t, ok)
	assert.Equal(t, 42, u.ID)

	u, ok = users.ForDirectory(inventory.DirectoryRecord{EmployeeID: "E9", NetID: "NoBadge"})
	require.True(t, ok)
	assert.Equal(t, 43, u.ID)

	u, ok = users.ForDirectory(inventory.DirectoryRecord{EmployeeID: "E1", NetID: "renamed"})
	require.True(t, ok)
	assert.Equal(t, 42, u.ID)

	assert.Equal(t, 2, users.Len())
}

func TestAssetIndex(t *testing.T) {
	assets := inventory.NewAssetIndex()
	assets.Put(inventory.RemoteAsset{ID: 7, Tag: "abc123"})

	a, ok := assets.Get(" ABC123 ")
	require.True(t, ok)
	assert.Equal(t, "ABC123", a.Tag)
	assert.False(t, a.Assigned())

	a.AssignedTo = 42
	assets.Put(a)
	a, _ = assets.Get("abc123")
	assert.True(t, a.Assigned())

	assets.Delete("Abc123")
	assert.Equal(t, 0, assets.Len())
}

func TestAdminRuleMatches(t *testing.T) {
	rule := inventory.AdminRule{Prefix: "ENG-LAB-", NetID: "labadmin"}
	assert.True(t, rule.Matches("eng-lab-04"))
	assert.False(t, rule.Matches("eng-jdoe-01"))
	assert.False(t, inventory.AdminRule{}.Matches("anything"))
}
