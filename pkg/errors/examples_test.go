package errors_test

import (
	"fmt"

	"github.com/agentstation/assetsync/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "asset",
		ID:       "ABC123",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Resource not found")
	}

	// Output: Resource not found
}

// Example_conflict shows how a create racing an existing entity is detected.
func Example_conflict() {
	err := &errors.APIError{
		Method:     "POST",
		Endpoint:   "/manufacturers",
		StatusCode: 200,
		Messages: map[string][]string{
			"name": {"The name has already been taken."},
		},
	}

	if errors.IsAlreadyExists(err) {
		fmt.Println("conflict on", err.ConflictField())
	}

	// Output: conflict on name
}

// Example_precondition shows the fatal error raised for a missing reference.
func Example_precondition() {
	err := errors.NewPreconditionError("status label", "Ready to Deploy")
	fmt.Println(errors.IsPrecondition(err))
	fmt.Println(err)

	// Output:
	// true
	// required status label "Ready to Deploy" not found in inventory; create it before running
}
