package errors

import "fmt"

// Kind classifies a pipeline failure per spec.md §7.
type Kind string

const (
	// KindInvalidSBOM is a fatal structural precondition violation
	// (e.g. no components array).
	KindInvalidSBOM Kind = "InvalidSBOM"

	// KindExternalUnavailable marks a recoverable port failure: the
	// pipeline proceeds with a zero-valued default for the affected
	// item and the final report still emits.
	KindExternalUnavailable Kind = "ExternalUnavailable"

	// KindAnalysisInternal is a fatal arithmetic or invariant
	// violation, e.g. a finding whose component_ref does not resolve.
	KindAnalysisInternal Kind = "AnalysisInternal"
)

// PipelineError carries a Kind plus the phase and, where applicable,
// the offending id, per spec.md §7.
type PipelineError struct {
	Kind    Kind
	Phase   string
	ID      string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s in %s (id=%s): %v", e.Kind, e.Phase, e.ID, e.Err)
	}
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// InvalidSBOM constructs a fatal InvalidSBOM error.
func InvalidSBOM(reason string) *PipelineError {
	return &PipelineError{Kind: KindInvalidSBOM, Phase: "normalize", Err: fmt.Errorf("%s: %w", reason, ErrInvalid)}
}

// ExternalUnavailable constructs a recoverable port-failure error.
func ExternalUnavailable(phase string, err error) *PipelineError {
	return &PipelineError{Kind: KindExternalUnavailable, Phase: phase, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}

// AnalysisInternal constructs a fatal invariant-violation error.
func AnalysisInternal(phase, id string, err error) *PipelineError {
	return &PipelineError{Kind: KindAnalysisInternal, Phase: phase, ID: id, Err: err}
}

// IsKind reports whether err is a *PipelineError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// Fault accumulates non-fatal ExternalUnavailable occurrences over one
// analysis run. This is the structured replacement for the original
// implementation's blanket `except Exception as e: print(e)` (spec.md
// §7, Design Note 9(e)).
type Fault struct {
	faults []*PipelineError
}

// Record appends a recoverable fault. Nil errors are ignored.
func (f *Fault) Record(phase string, err error) {
	if err == nil {
		return
	}
	f.faults = append(f.faults, ExternalUnavailable(phase, err))
}

// Faults returns all recorded faults in occurrence order.
func (f *Fault) Faults() []*PipelineError {
	return f.faults
}

// HasFaults reports whether any fault was recorded.
func (f *Fault) HasFaults() bool {
	return len(f.faults) > 0
}
