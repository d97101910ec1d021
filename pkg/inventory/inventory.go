// Package inventory holds the in-memory repositories a reconciliation run
// works against: reference name indexes, the model index, the remote user
// and asset caches, and the personnel directory.
//
// Repositories are filled once by the snapshot loader and the feed parsers
// and then only grow (or, for assets, are refreshed) as the run mutates the
// remote inventory. They are not safe for concurrent use; a run is
// sequential.
package inventory

import (
	"sort"
	"strings"
	"time"
)

// ReferenceKind names a taxonomy collection.
type ReferenceKind string

// Reference kinds.
const (
	KindManufacturer ReferenceKind = "manufacturer"
	KindCategory     ReferenceKind = "category"
	KindStatusLabel  ReferenceKind = "status label"
	KindLocation     ReferenceKind = "location"
	KindCompany      ReferenceKind = "company"
	KindModel        ReferenceKind = "model"
)

// NormalizeName is the lookup form of a reference name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeSerial is the lookup form of a serial / asset tag.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// NormalizeNetID is the lookup form of a NetID.
func NormalizeNetID(netID string) string {
	return strings.ToLower(strings.TrimSpace(netID))
}

// ReferenceIndex maps normalized names of one taxonomy kind to remote IDs.
type ReferenceIndex struct {
	Kind ReferenceKind
	ids  map[string]int
}

// NewReferenceIndex creates an empty index for kind.
func NewReferenceIndex(kind ReferenceKind) *ReferenceIndex {
	return &ReferenceIndex{Kind: kind, ids: make(map[string]int)}
}

// Get returns the ID for name.
func (r *ReferenceIndex) Get(name string) (int, bool) {
	id, ok := r.ids[NormalizeName(name)]
	return id, ok
}

// Put records name → id. A name already mapped keeps its first ID and Put
// reports false.
func (r *ReferenceIndex) Put(name string, id int) bool {
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	if _, exists := r.ids[key]; exists {
		return false
	}
	r.ids[key] = id
	return true
}

// Len returns the number of indexed names.
func (r *ReferenceIndex) Len() int {
	return len(r.ids)
}

// Names returns the normalized names in sorted order.
func (r *ReferenceIndex) Names() []string {
	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelKey identifies a model: the same name under another manufacturer or
// category is a different model.
type ModelKey struct {
	Name           string
	ManufacturerID int
	CategoryID     int
}

// NewModelKey builds a key with a normalized name.
func NewModelKey(name string, manufacturerID, categoryID int) ModelKey {
	return ModelKey{Name: NormalizeName(name), ManufacturerID: manufacturerID, CategoryID: categoryID}
}

// ModelIndex maps ModelKeys to remote model IDs.
type ModelIndex struct {
	ids map[ModelKey]int
}

// NewModelIndex creates an empty model index.
func NewModelIndex() *ModelIndex {
	return &ModelIndex{ids: make(map[ModelKey]int)}
}

// Get returns the model ID for key.
func (m *ModelIndex) Get(key ModelKey) (int, bool) {
	key.Name = NormalizeName(key.Name)
	id, ok := m.ids[key]
	return id, ok
}

// Put records key → id, keeping the first ID for a key.
func (m *ModelIndex) Put(key ModelKey, id int) bool {
	key.Name = NormalizeName(key.Name)
	if _, exists := m.ids[key]; exists {
		return false
	}
	m.ids[key] = id
	return true
}

// Len returns the number of indexed models.
func (m *ModelIndex) Len() int {
	return len(m.ids)
}

// DeviceRecord is the canonical fact about one serial from the device feed.
type DeviceRecord struct {
	Serial       string
	Name         string
	Model        string
	Manufacturer string
	Category     string
	LastSeen     time.Time
	// PrimaryUser is the feed's explicit last-user value.
	PrimaryUser string
	// UserHints holds the raw auxiliary hint cells, one per configured column.
	UserHints []string
	// Row is the 1-based feed line the record was taken from.
	Row int
}

// DirectoryRecord is a personnel directory entry.
type DirectoryRecord struct {
	EmployeeID string
	NetID      string
	FirstName  string
	LastName   string
	Email      string
}

// Directory indexes DirectoryRecords by Employee-ID and NetID.
type Directory struct {
	order        []string
	byEmployeeID map[string]DirectoryRecord
	byNetID      map[string]string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byEmployeeID: make(map[string]DirectoryRecord),
		byNetID:      make(map[string]string),
	}
}

// Put adds rec. A second record with the same Employee-ID is rejected.
func (d *Directory) Put(rec DirectoryRecord) bool {
	rec.EmployeeID = strings.TrimSpace(rec.EmployeeID)
	if _, exists := d.byEmployeeID[rec.EmployeeID]; exists {
		return false
	}
	d.byEmployeeID[rec.EmployeeID] = rec
	d.order = append(d.order, rec.EmployeeID)
	if netID := NormalizeNetID(rec.NetID); netID != "" {
		if _, exists := d.byNetID[netID]; !exists {
			d.byNetID[netID] = rec.EmployeeID
		}
	}
	return true
}

// ByEmployeeID looks up a record by Employee-ID.
func (d *Directory) ByEmployeeID(id string) (DirectoryRecord, bool) {
	rec, ok := d.byEmployeeID[strings.TrimSpace(id)]
	return rec, ok
}

// ByNetID looks up a record by NetID, ignoring case.
func (d *Directory) ByNetID(netID string) (DirectoryRecord, bool) {
	id, ok := d.byNetID[NormalizeNetID(netID)]
	if !ok {
		return DirectoryRecord{}, false
	}
	return d.byEmployeeID[id], true
}

// Records returns every record in feed order.
func (d *Directory) Records() []DirectoryRecord {
	out := make([]DirectoryRecord, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byEmployeeID[id])
	}
	return out
}

// Len returns the number of records.
func (d *Directory) Len() int {
	return len(d.order)
}

// RemoteUser is a cached remote identity.
type RemoteUser struct {
	ID         int
	NetID      string
	EmployeeID string
	Email      string
}

// UserIndex caches remote users under both Employee-ID and NetID.
type UserIndex struct {
	byEmployeeID map[string]RemoteUser
	byNetID      map[string]RemoteUser
	count        int
}

// NewUserIndex creates an empty user index.
func NewUserIndex() *UserIndex {
	return &UserIndex{
		byEmployeeID: make(map[string]RemoteUser),
		byNetID:      make(map[string]RemoteUser),
	}
}

// Put records u under its Employee-ID and NetID. Existing keys keep the first user.
func (u *UserIndex) Put(user RemoteUser) {
	added := false
	if id := strings.TrimSpace(user.EmployeeID); id != "" {
		if _, exists := u.byEmployeeID[id]; !exists {
			u.byEmployeeID[id] = user
			added = true
		}
	}
	if netID := NormalizeNetID(user.NetID); netID != "" {
		if _, exists := u.byNetID[netID]; !exists {
			u.byNetID[netID] = user
			added = true
		}
	}
	if added {
		u.count++
	}
}

// ByEmployeeID looks up a remote user by Employee-ID.
func (u *UserIndex) ByEmployeeID(id string) (RemoteUser, bool) {
	user, ok := u.byEmployeeID[strings.TrimSpace(id)]
	return user, ok
}

// ByNetID looks up a remote user by NetID, ignoring case.
func (u *UserIndex) ByNetID(netID string) (RemoteUser, bool) {
	user, ok := u.byNetID[NormalizeNetID(netID)]
	return user, ok
}

// ForDirectory returns the remote user provisioned for rec, matching on
// Employee-ID first and NetID second.
func (u *UserIndex) ForDirectory(rec DirectoryRecord) (RemoteUser, bool) {
	if user, ok := u.ByEmployeeID(rec.EmployeeID); ok {
		return user, true
	}
	return u.ByNetID(rec.NetID)
}

// Len returns the number of distinct users added.
func (u *UserIndex) Len() int {
	return u.count
}

// RemoteAsset is a cached remote hardware record.
type RemoteAsset struct {
	ID       int
	Tag      string
	Name     string
	Notes    string
	LastSeen time.Time
	// AssignedTo is the remote user ID the asset is checked out to, or 0.
	AssignedTo int
	StatusID   int
}

// Assigned reports whether the asset is checked out to anyone.
func (a RemoteAsset) Assigned() bool {
	return a.AssignedTo != 0
}

// AssetIndex caches remote hardware records by upper-cased serial.
type AssetIndex struct {
	bySerial map[string]RemoteAsset
}

// NewAssetIndex creates an empty asset index.
func NewAssetIndex() *AssetIndex {
	return &AssetIndex{bySerial: make(map[string]RemoteAsset)}
}

// Get returns the cached asset for serial.
func (a *AssetIndex) Get(serial string) (RemoteAsset, bool) {
	asset, ok := a.bySerial[NormalizeSerial(serial)]
	return asset, ok
}

// Put inserts or replaces the cached asset under its tag.
func (a *AssetIndex) Put(asset RemoteAsset) {
	asset.Tag = NormalizeSerial(asset.Tag)
	a.bySerial[asset.Tag] = asset
}

// Delete drops the cached asset for serial.
func (a *AssetIndex) Delete(serial string) {
	delete(a.bySerial, NormalizeSerial(serial))
}

// Len returns the number of cached assets.
func (a *AssetIndex) Len() int {
	return len(a.bySerial)
}

// AdminRule maps a hostname prefix to the NetID that owns shared machines.
type AdminRule struct {
	Prefix string
	NetID  string
}

// Matches reports whether hostname starts with the rule's prefix, ignoring case.
func (r AdminRule) Matches(hostname string) bool {
	if r.Prefix == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(hostname)), strings.ToLower(r.Prefix))
}
