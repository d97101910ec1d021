package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/assetsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "asset",
			ID:       "ABC123",
		}
		assert.Equal(t, "asset with ID ABC123 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("model", "OptiPlex 7090")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "api.base_url",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field api.base_url: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid configuration")
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := pkgerrors.NewAPIError("GET", "/hardware", 429, "Too Many Attempts.")
		assert.Contains(t, err.Error(), "GET /hardware")
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "Too Many Attempts.")
		assert.True(t, pkgerrors.IsRateLimited(err))
		assert.False(t, pkgerrors.IsAlreadyExists(err))
	})

	t.Run("field messages flattened in order", func(t *testing.T) {
		err := &pkgerrors.APIError{
			Method:   "POST",
			Endpoint: "/models",
			Messages: map[string][]string{
				"name":        {"The name field is required."},
				"category_id": {"The category id field is required."},
			},
		}
		assert.Equal(t, "category_id: The category id field is required., name: The name field is required.", err.Detail())
	})

	t.Run("status codes", func(t *testing.T) {
		tests := []struct {
			code   int
			target error
		}{
			{401, pkgerrors.ErrUnauthorized},
			{403, pkgerrors.ErrUnauthorized},
			{404, pkgerrors.ErrNotFound},
			{429, pkgerrors.ErrRateLimited},
			{503, pkgerrors.ErrRemoteUnavailable},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
				err := pkgerrors.NewAPIError("GET", "/users", tt.code, "")
				assert.ErrorIs(t, err, tt.target)
			})
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("bad json")
		err := &pkgerrors.APIError{Method: "GET", Endpoint: "/hardware", Err: baseErr}
		assert.Equal(t, baseErr, err.Unwrap())
	})
}

func TestAPIErrorConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      *pkgerrors.APIError
		conflict bool
		field    string
	}{
		{
			name: "name already taken",
			err: &pkgerrors.APIError{
				StatusCode: 200,
				Messages:   map[string][]string{"name": {"The name has already been taken."}},
			},
			conflict: true,
			field:    "name",
		},
		{
			name: "username already exists",
			err: &pkgerrors.APIError{
				StatusCode: 200,
				Messages:   map[string][]string{"username": {"That username already exists"}},
			},
			conflict: true,
			field:    "username",
		},
		{
			name: "top level message",
			err: &pkgerrors.APIError{
				StatusCode: 422,
				Message:    "Asset tag has already been taken",
			},
			conflict: true,
		},
		{
			name: "plain validation failure",
			err: &pkgerrors.APIError{
				StatusCode: 200,
				Messages:   map[string][]string{"model_id": {"The model id field is required."}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.conflict, tt.err.IsConflict())
			assert.Equal(t, tt.conflict, pkgerrors.IsAlreadyExists(tt.err))
			assert.Equal(t, tt.field, tt.err.ConflictField())
		})
	}
}

func TestPreconditionError(t *testing.T) {
	err := pkgerrors.NewPreconditionError("status label", "Deployed")
	assert.Contains(t, err.Error(), `"Deployed"`)
	assert.True(t, pkgerrors.IsPrecondition(fmt.Errorf("loading snapshot: %w", err)))
}

func TestRowError(t *testing.T) {
	err := pkgerrors.NewRowError("devices", 7, "serial is a placeholder")
	assert.Equal(t, "devices row 7 skipped: serial is a placeholder", err.Error())
	assert.ErrorIs(t, err, pkgerrors.ErrSkipped)
}

func TestVerificationError(t *testing.T) {
	err := &pkgerrors.VerificationError{
		Serial:   "ABC123",
		Step:     "checkout",
		Expected: "assigned to 42",
		Observed: "unassigned",
	}
	assert.Contains(t, err.Error(), "manual intervention")
	assert.True(t, pkgerrors.IsVerification(err))
	assert.False(t, pkgerrors.IsPrecondition(err))
}

func TestTransportError(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("listing: %w", &pkgerrors.TransportError{Method: "GET", Endpoint: "/hardware", Err: base})
	assert.True(t, pkgerrors.IsTransport(err))
	assert.ErrorIs(t, err, base)

	_, ok := pkgerrors.AsAPIError(err)
	assert.False(t, ok)
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "logs/assetsync.log", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
		assert.Contains(t, err.Error(), "logs/assetsync.log")
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("open", "devices.csv", errors.New("no such file"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "open", ioErr.Operation)
		assert.Equal(t, "devices.csv", ioErr.Path)
	})

	t.Run("wrap nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("open", "x", nil))
	})
}

func TestResourceError(t *testing.T) {
	t.Run("keeps conflict classification", func(t *testing.T) {
		apiErr := &pkgerrors.APIError{
			Messages: map[string][]string{"asset_tag": {"The asset tag has already been taken."}},
		}
		err := pkgerrors.WrapResource("create", "asset", "ABC123", apiErr)
		assert.Contains(t, err.Error(), "create asset ABC123")
		assert.True(t, pkgerrors.IsAlreadyExists(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapResource("checkout", "asset", "17", errors.New("timeout"))
		resErr, ok := err.(*pkgerrors.ResourceError)
		require.True(t, ok)
		assert.Equal(t, "checkout", resErr.Operation)
		assert.Equal(t, "asset", resErr.Resource)
	})
}

func TestParseError(t *testing.T) {
	t.Run("with line", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "csv", File: "devices.csv", Line: 3, Message: "wrong number of fields"}
		assert.Equal(t, "parse error in csv at devices.csv:3: wrong number of fields", err.Error())
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapParse("csv", "directory.csv", errors.New("missing column EmployeeNetId"))
		assert.Contains(t, err.Error(), "directory.csv")
		assert.Contains(t, err.Error(), "EmployeeNetId")
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("feeds", "devices path is required", nil)
	assert.Equal(t, "configuration error in feeds: devices path is required", err.Error())
	assert.Nil(t, err.Unwrap())
}
