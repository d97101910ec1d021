package logging_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
)

func TestResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "api error",
			err: &errors.APIError{
				Method: "POST", Endpoint: "/hardware", StatusCode: 200,
				Message: "Asset tag taken", Body: `{"status":"error","messages":{"asset_tag":["taken"]}}`,
			},
			want: true,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("create: %w", &errors.APIError{Method: "POST", Endpoint: "/users", StatusCode: 500, Body: "boom"}),
			want: true,
		},
		{name: "no body", err: errors.NewAPIError("GET", "/hardware/1", 404, "not found")},
		{name: "other error", err: fmt.Errorf("dial tcp: refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logging.NewTestLogger(t)
			logging.Response(log.Logger, tt.err)
			assert.Equal(t, tt.want, log.Contains(`"response":`), log.Output())
			if tt.want {
				log.AssertContains(t, `"level":"debug"`)
			}
		})
	}
}
