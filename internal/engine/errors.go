package engine

// invalidPromptError rejects empty or whitespace-only prompts (400 mapping).
type invalidPromptError struct{}

func (invalidPromptError) Error() string { return "prompt is required" }

// ErrInvalidPrompt constructs an invalidPromptError.
func ErrInvalidPrompt() error { return invalidPromptError{} }

// IsInvalidPrompt reports whether err rejects the request payload.
func IsInvalidPrompt(err error) bool {
	_, ok := err.(invalidPromptError)
	return ok
}

// busyError signals that a generation is already executing (429 mapping).
type busyError struct{}

func (busyError) Error() string { return "a generation is already in progress" }

// ErrBusy constructs a busyError.
func ErrBusy() error { return busyError{} }

// IsBusy reports whether err indicates the single generation slot is taken.
func IsBusy(err error) bool {
	_, ok := err.(busyError)
	return ok
}

// weightsMissingError means configured local weight paths are absent; the
// load cannot start until the operator populates them (503 mapping).
type weightsMissingError struct{ path string }

func (e weightsMissingError) Error() string { return "model weights not found at " + e.path }

// ErrWeightsMissing constructs a weightsMissingError for path.
func ErrWeightsMissing(path string) error { return weightsMissingError{path: path} }

// IsWeightsMissing reports whether err indicates unpopulated weight paths.
func IsWeightsMissing(err error) bool {
	_, ok := err.(weightsMissingError)
	return ok
}

// loadError wraps a failure in the pipeline load sequence. The cache stays
// empty and a later acquire retries from scratch (503 mapping).
type loadError struct {
	stage string
	cause error
}

func (e loadError) Error() string {
	return "pipeline load failed at " + e.stage + ": " + e.cause.Error()
}

func (e loadError) Unwrap() error { return e.cause }

// ErrLoadFailed constructs a loadError for the named load stage.
func ErrLoadFailed(stage string, cause error) error { return loadError{stage: stage, cause: cause} }

// IsLoadError reports whether err comes from the pipeline load sequence.
func IsLoadError(err error) bool {
	if _, ok := err.(loadError); ok {
		return true
	}
	return IsWeightsMissing(err)
}

// generationError wraps a failure inside the computation itself. The
// pipeline stays cached; only this request failed (500 mapping).
type generationError struct{ cause error }

func (e generationError) Error() string { return "generation failed: " + e.cause.Error() }
func (e generationError) Unwrap() error { return e.cause }

// ErrGenerationFailed wraps a computation failure.
func ErrGenerationFailed(cause error) error { return generationError{cause: cause} }

// IsGenerationFailed reports whether err comes from the computation.
func IsGenerationFailed(err error) bool {
	_, ok := err.(generationError)
	return ok
}

// noModelError means no catalog entry fits the probed hardware.
type noModelError struct{}

func (noModelError) Error() string { return "no model fits the available hardware" }

// ErrNoModel constructs a noModelError.
func ErrNoModel() error { return noModelError{} }

// IsNoModel reports whether err indicates an empty recommendation set.
func IsNoModel(err error) bool {
	_, ok := err.(noModelError)
	return ok
}
