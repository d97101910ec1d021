package logging

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/assetsync/pkg/errors"
)

// Response logs the raw API response behind err at debug level. Errors that
// did not come from an API response are ignored.
func Response(logger *zerolog.Logger, err error) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok || apiErr.Body == "" {
		return
	}
	logger.Debug().
		Str("method", apiErr.Method).
		Str("endpoint", apiErr.Endpoint).
		Int("status", apiErr.StatusCode).
		Str("response", apiErr.Body).
		Msg("Remote response")
}
