package app

import (
	"fmt"
	"io"

	"github.com/agentstation/assetsync/pkg/errors"
)

// Process exit statuses.
const (
	ExitFailure      = 1 // anything unclassified
	ExitUsage        = 2 // invalid flags or configuration
	ExitPrecondition = 3 // required reference data missing remotely
	ExitRemote       = 4 // the inventory API refused or was unreachable
	ExitIncomplete   = 5 // --strict and some devices did not converge
)

type outcome struct {
	code    int
	hint    string
	command string
}

func classify(err error) outcome {
	switch {
	case errors.IsValidationError(err):
		return outcome{ExitUsage, "Check the flags and .assetsync.yaml", "assetsync validate"}
	case errors.IsPrecondition(err):
		return outcome{ExitPrecondition, "Create the missing record in the inventory service or override its name under defaults", "assetsync snapshot"}
	case errors.Is(err, errors.ErrUnauthorized):
		return outcome{ExitRemote, "The API token was rejected; check SNIPEIT_API_TOKEN", ""}
	case errors.IsRateLimited(err):
		return outcome{ExitRemote, "The inventory API is throttling requests; raise api.request_delay", ""}
	case errors.IsNotFound(err):
		return outcome{ExitRemote, "An endpoint returned 404; SNIPEIT_API_BASE_URL should end in /api/v1", ""}
	case errors.IsTransport(err):
		return outcome{ExitRemote, "The inventory API could not be reached", "assetsync snapshot"}
	case errors.IsVerification(err):
		return outcome{ExitIncomplete, "Review the failure table and the run log", ""}
	}
	return outcome{code: ExitFailure}
}

// Report writes err and any hint to w and returns the exit status for it.
func Report(w io.Writer, err error) int {
	o := classify(err)
	fmt.Fprintf(w, "Error: %s\n", err)
	if o.hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", o.hint)
	}
	if o.command != "" {
		fmt.Fprintf(w, "  Run: %s\n", o.command)
	}
	return o.code
}
