package domain

import "errors"

// Error kinds surfaced by the pipeline and its collaborators. Call sites wrap
// them with fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	// ErrStorageUnavailable marks storage I/O failures. Fatal for the
	// current run; already-committed records stay intact.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrFetchFailed marks a transport failure in the fetch collaborator.
	// Fatal for the current run only.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrEmbeddingFailed marks an embedding provider failure. Recoverable:
	// the affected item is skipped.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVerificationFailed marks an exhausted or unparseable verification
	// attempt. Recoverable per item; the batch continues.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrConfigInvalid marks missing credentials or out-of-range settings.
	// Fatal at startup.
	ErrConfigInvalid = errors.New("invalid configuration")
)
