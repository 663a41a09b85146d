package henkan

import "fmt"

// LoadError reports an unreadable or malformed dictionary/model file.
// It is fatal only for the one source it names; other sources still
// load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// EncodingError reports a declared-encoding mismatch while decoding a
// dictionary file. Same containment policy as LoadError.
type EncodingError struct {
	Path     string
	Encoding string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.Path, e.Encoding, e.Err)
}
func (e *EncodingError) Unwrap() error { return e.Err }

// PersistError reports a user-model write failure. Non-fatal and
// retryable: the in-memory counts are untouched and the next Persist
// call flushes the same state.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist user model: %v", e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }
