package snipeit

import (
	"bytes"
	"encoding/json"
)

// Named is the shape shared by simple reference collections
// (categories, status labels, locations, companies, manufacturers).
type Named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StatusLabel is a hardware lifecycle label.
type StatusLabel struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	StatusMeta string `json:"status_meta,omitempty"`
}

// Model is a hardware model. Manufacturer and Category may be null remotely.
type Model struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ModelNumber  string `json:"model_number,omitempty"`
	Manufacturer *Named `json:"manufacturer"`
	Category     *Named `json:"category"`
}

// User is a remote person record.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	EmployeeNum string `json:"employee_num"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

// Assignment is the "assigned_to" object of a hardware record. The API sends
// null (or an empty list on some versions) when nothing is assigned.
type Assignment struct {
	ID       int    `json:"id"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type,omitempty"`
}

// UnmarshalJSON accepts an object, null, or an empty list.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		*a = Assignment{}
		return nil
	}
	type plain Assignment
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*a = Assignment(p)
	return nil
}

// Hardware is a remote asset record.
type Hardware struct {
	ID          int         `json:"id"`
	AssetTag    string      `json:"asset_tag"`
	Name        string      `json:"name"`
	Serial      string      `json:"serial"`
	Notes       string      `json:"notes"`
	StatusLabel StatusLabel `json:"status_label"`
	AssignedTo  Assignment  `json:"assigned_to"`
}

// Assigned reports whether the asset is checked out to anything: a user,
// a location or another asset.
func (h Hardware) Assigned() bool {
	return h.AssignedTo.ID != 0
}

// AssignedUserID returns the assigned user's ID, or 0 when the asset is not
// checked out to a user.
func (h Hardware) AssignedUserID() int {
	if h.AssignedTo.Type != "" && h.AssignedTo.Type != "user" {
		return 0
	}
	return h.AssignedTo.ID
}

// ModelRequest creates a model.
type ModelRequest struct {
	Name           string `json:"name"`
	ManufacturerID int    `json:"manufacturer_id"`
	CategoryID     int    `json:"category_id"`
	ModelNumber    string `json:"model_number,omitempty"`
}

// UserRequest creates a user.
type UserRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	EmployeeNum          string `json:"employee_num"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Activated            bool   `json:"activated"`
}

// AssetRequest creates a hardware record.
type AssetRequest struct {
	AssetTag   string `json:"asset_tag"`
	Name       string `json:"name"`
	Serial     string `json:"serial"`
	ModelID    int    `json:"model_id"`
	StatusID   int    `json:"status_id"`
	LocationID int    `json:"location_id,omitempty"`
	CompanyID  int    `json:"company_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// AssetPatch updates selected fields of a hardware record. Nil fields are
// left untouched.
type AssetPatch struct {
	Name     *string `json:"name,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	StatusID *int    `json:"status_id,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p AssetPatch) Empty() bool {
	return p.Name == nil && p.Notes == nil && p.StatusID == nil
}

// CheckinRequest clears an assignment.
type CheckinRequest struct {
	StatusID int    `json:"status_id,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CheckoutRequest assigns an asset to a user.
type CheckoutRequest struct {
	CheckoutToType string `json:"checkout_to_type"`
	AssignedUser   int    `json:"assigned_user"`
	StatusID       int    `json:"status_id,omitempty"`
	Note           string `json:"note,omitempty"`
}

// page is a paginated collection response.
type page[T any] struct {
	Total int `json:"total"`
	Rows  []T `json:"rows"`
}

// mutation is the status envelope around a create or update.
type mutation[T any] struct {
	Status  string `json:"status"`
	Payload T      `json:"payload"`
}
