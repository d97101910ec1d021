// Package constants provides shared constants used throughout the assetsync codebase.
// This includes remote API pacing, feed column names, default reference names
// and file permissions that should be consistent across the application.
package constants

import "time"

// Remote API constants
const (
	// DefaultHTTPTimeout is the standard timeout for a single request to the inventory API
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRequestDelay is the fixed pacing interval between remote calls
	DefaultRequestDelay = 600 * time.Millisecond

	// DefaultPageSize is the number of rows requested per paginated collection fetch
	DefaultPageSize = 500

	// MaxPageSize is the largest page size the inventory API accepts
	MaxPageSize = 500

	// ShutdownTimeout bounds cleanup after a failed command
	ShutdownTimeout = 5 * time.Second
)

// Environment variable names holding out-of-band configuration
const (
	// EnvBaseURL is the inventory API base URL, e.g. https://inventory.example.edu/api/v1
	EnvBaseURL = "SNIPEIT_API_BASE_URL"

	// EnvToken is the bearer token for the inventory API
	EnvToken = "SNIPEIT_API_TOKEN"

	// EnvUserPassword is the password given to newly provisioned users
	EnvUserPassword = "SNIPEIT_USER_PASSWORD"
)

// Default reference names. They must exist remotely (categories, statuses,
// locations and companies are never created by a run).
const (
	DefaultCategoryName       = "Desktop"
	DefaultReadyStatusName    = "Ready to Deploy"
	DefaultDeployedStatusName = "Deployed"
	DefaultLocationName       = "Office"
	DefaultCompanyName        = "NYU - Tandon School of Engineering"
)

// Device feed column names
const (
	ColumnModel          = "Model"
	ColumnManufacturer   = "Manufacturer"
	ColumnCategory       = "Device Type"
	ColumnSerial         = "Serial"
	ColumnComputerName   = "Computer Name"
	ColumnLastReportTime = "Last Report Time"
	ColumnUserName       = "User Name"
)

// DefaultAuxUserColumns are the auxiliary user-hint columns of the device feed.
var DefaultAuxUserColumns = []string{
	"Browser Users",
	"Chrome Profile Users",
	"Network Login Users",
}

// Directory feed column names
const (
	ColumnNetID      = "EmployeeNetId"
	ColumnEmployeeID = "EmployeeID"
	ColumnFirstName  = "FirstName"
	ColumnLastName   = "LastName"
	ColumnEmail      = "EmployeeEmailAddress"
)

// Shared-ownership schema column names
const (
	ColumnSchema      = "Schema"
	ColumnSchemaNetID = "NetID"
)

// DefaultSerialSkipList holds placeholder serials reported by unconfigured firmware.
var DefaultSerialSkipList = []string{
	"0123456789",
	"To be filled by O.E.M.",
	"System Serial Number",
	"Default string",
}

// Timestamp layouts
const (
	// FeedTimeLayout is the device feed's "Last Report Time" format ("July 15, 2025 10:55 AM")
	FeedTimeLayout = "January 2, 2006 3:04 PM"

	// NotesTimeLayout is the layout of the timestamp stored in asset notes
	NotesTimeLayout = "2006-01-02 15:04:05"

	// NotesMarker prefixes the last-seen line embedded in asset notes
	NotesMarker = "BigFix Last Report:"
)

// Resolution constants
const (
	// DefaultHostnamePrefix is the first segment of personal machine names ("eng-<netid>-...")
	DefaultHostnamePrefix = "eng"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Logging constants
const (
	// DefaultLogDir is where per-run log files are written
	DefaultLogDir = "logs"

	// DefaultLogFile is the active run log name inside DefaultLogDir
	DefaultLogFile = "assetsync.log"

	// DefaultLogRetention is the number of previous run logs kept
	DefaultLogRetention = 10
)
