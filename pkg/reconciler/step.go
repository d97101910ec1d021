package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
	"github.com/agentstation/assetsync/pkg/snipeit"
)

// Verification is the result of checking a mutation against live state.
type Verification int

const (
	// Converged means the first write took effect.
	Converged Verification = iota
	// Repaired means the write only took effect after the corrective write.
	Repaired
	// Diverged means live state still disagrees after the corrective write.
	Diverged
)

// String returns the verification name.
func (v Verification) String() string {
	switch v {
	case Converged:
		return "converged"
	case Repaired:
		return "repaired"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Step is one mutation of a hardware record.
type Step struct {
	Name string
	// Apply issues the mutation.
	Apply func(ctx context.Context) error
	// Repair is the single corrective write. Nil means no repair.
	Repair func(ctx context.Context) error
	// Expect reports whether live state shows the mutation.
	Expect func(h snipeit.Hardware) bool
	// Describe renders the expected state for logs.
	Describe string
}

// StepResult records how a step ended.
type StepResult struct {
	Step         string
	Verification Verification
}

// converge applies step, re-fetches the asset and checks the expectation,
// repairing once on mismatch. An error means the remote rejected a call and
// the step was abandoned; it returns the last live state it saw.
func (r *Reconciler) converge(ctx context.Context, id int, serial string, step Step) (Verification, snipeit.Hardware, error) {
	ctx = logging.WithStep(ctx, step.Name)
	logger := logging.FromContext(ctx)

	if err := step.Apply(ctx); err != nil {
		return Diverged, snipeit.Hardware{}, err
	}
	live, err := r.remote.GetAsset(ctx, id)
	if err != nil {
		return Diverged, snipeit.Hardware{}, err
	}
	if step.Expect(live) {
		logger.Debug().Msg("Verified")
		return Converged, live, nil
	}

	logger.Warn().
		Str("expected", step.Describe).
		Str("observed", observed(live)).
		Msg("Live state does not reflect the write; repairing")

	if step.Repair == nil {
		return r.diverged(ctx, serial, step, live), live, nil
	}
	if err := step.Repair(ctx); err != nil {
		logger.Error().Err(err).Msg("Corrective write failed")
		logging.Response(logger, err)
		return r.diverged(ctx, serial, step, live), live, nil
	}
	live, err = r.remote.GetAsset(ctx, id)
	if err != nil {
		return Diverged, snipeit.Hardware{}, err
	}
	if step.Expect(live) {
		logger.Info().Msg("Corrective write succeeded")
		return Repaired, live, nil
	}
	return r.diverged(ctx, serial, step, live), live, nil
}

func (r *Reconciler) diverged(ctx context.Context, serial string, step Step, live snipeit.Hardware) Verification {
	err := &errors.VerificationError{
		Serial:   serial,
		Step:     step.Name,
		Expected: step.Describe,
		Observed: observed(live),
	}
	logging.FromContext(ctx).Warn().Err(err).Msg("Corrective write did not converge")
	return Diverged
}

func observed(h snipeit.Hardware) string {
	return fmt.Sprintf("status %d, assigned %d", h.StatusLabel.ID, h.AssignedUserID())
}
