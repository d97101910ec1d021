package constants_test

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agentstation/assetsync/pkg/constants"
)

// Example_timeouts demonstrates the remote API pacing constants
func Example_timeouts() {
	client := &http.Client{
		Timeout: constants.DefaultHTTPTimeout,
	}
	fmt.Printf("HTTP timeout: %v\n", client.Timeout)
	fmt.Printf("Request delay: %v\n", constants.DefaultRequestDelay)
	fmt.Printf("Page size: %d\n", constants.DefaultPageSize)

	// Output:
	// HTTP timeout: 30s
	// Request delay: 600ms
	// Page size: 500
}

// Example_timestamps demonstrates the two timestamp layouts in play
func Example_timestamps() {
	seen, err := time.Parse(constants.FeedTimeLayout, "July 15, 2025 10:55 AM")
	if err != nil {
		panic(err)
	}

	fmt.Println(constants.NotesMarker, seen.Format(constants.NotesTimeLayout))

	// Output:
	// BigFix Last Report: 2025-07-15 10:55:00
}

// Example_defaults shows the reference names every run depends on
func Example_defaults() {
	fmt.Println(constants.DefaultReadyStatusName)
	fmt.Println(constants.DefaultDeployedStatusName)
	fmt.Println(constants.DefaultCategoryName)

	// Output:
	// Ready to Deploy
	// Deployed
	// Desktop
}
