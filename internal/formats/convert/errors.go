package convert

import "fmt"

// ErrorKind classifies why a conversion failed.
type ErrorKind int

const (
	InputNotFound ErrorKind = iota + 1
	InputNotAFile
	ReadFailure
	ConversionFailure
	SaveFailure
)

func (k ErrorKind) String() string {
	switch k {
	case InputNotFound:
		return "input-not-found"
	case InputNotAFile:
		return "input-not-a-file"
	case ReadFailure:
		return "read-failure"
	case ConversionFailure:
		return "conversion-failure"
	case SaveFailure:
		return "save-failure"
	default:
		return "unknown"
	}
}

// Error is returned by every conversion entry point. Path is the file the
// failure relates to, when there is one.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrInputNotFound     = &Error{Kind: InputNotFound}
	ErrInputNotAFile     = &Error{Kind: InputNotAFile}
	ErrReadFailure       = &Error{Kind: ReadFailure}
	ErrConversionFailure = &Error{Kind: ConversionFailure}
	ErrSaveFailure       = &Error{Kind: SaveFailure}
)

func (e *Error) Error() string {
	switch e.Kind {
	case InputNotFound:
		return fmt.Sprintf("input file '%s' not found", e.Path)
	case InputNotAFile:
		return fmt.Sprintf("'%s' is not a file", e.Path)
	case ReadFailure:
		return fmt.Sprintf("could not read '%s': %v", e.Path, e.Err)
	case ConversionFailure:
		return fmt.Sprintf("conversion failed: %v", e.Err)
	case SaveFailure:
		return fmt.Sprintf("could not save '%s': %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("conversion error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can compare against the
// package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
