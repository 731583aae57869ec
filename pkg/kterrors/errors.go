package kterrors

import (
	"errors"
	"fmt"
)

// ExtractionFormatError means the model returned output that failed schema
// validation. Recoverable: the turn yields zero facts and the session continues.
// Never retried, the same input would produce the same malformed response.
type ExtractionFormatError struct {
	Reason string
	Err    error
}

func (e *ExtractionFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction format error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction format error: %s", e.Reason)
}

func (e *ExtractionFormatError) Unwrap() error { return e.Err }

// TransientExternalError wraps a timeout or network failure on any external
// call. Retried with bounded backoff, then surfaced as a turn-level soft failure.
type TransientExternalError struct {
	Op  string
	Err error
}

func (e *TransientExternalError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientExternalError) Unwrap() error { return e.Err }

// IndexingError means embedding or upsert failed while indexing a completed
// topic. Retried on the next completion event; never blocks coverage state.
type IndexingError struct {
	SessionID string
	TopicID   string
	Err       error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed for session %s topic %s: %v", e.SessionID, e.TopicID, e.Err)
}

func (e *IndexingError) Unwrap() error { return e.Err }

// ConsistencyWarning records orphaned vector entries found by the sweeper.
// Logged only; self-healing on the next pass.
type ConsistencyWarning struct {
	SessionID string
	Detail    string
}

func (e *ConsistencyWarning) Error() string {
	return fmt.Sprintf("consistency warning for session %s: %s", e.SessionID, e.Detail)
}

// IsFormatError reports whether err is (or wraps) an ExtractionFormatError.
func IsFormatError(err error) bool {
	var fe *ExtractionFormatError
	return errors.As(err, &fe)
}

// IsTransient reports whether err is (or wraps) a TransientExternalError.
func IsTransient(err error) bool {
	var te *TransientExternalError
	return errors.As(err, &te)
}
