package models

import "fmt"

// IOError reports that a volume could not be opened or did not contain the
// expected number of samples. It is fatal for the load that produced it: no
// partially read field is ever handed out.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("volume io: %v", e.Err)
	}
	return fmt.Sprintf("volume io %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DegenerateConfigurationError reports a parameter or numeric state that
// would otherwise produce a zero spacing or a NaN vertex.
type DegenerateConfigurationError struct {
	Reason string
}

func (e *DegenerateConfigurationError) Error() string {
	return "degenerate configuration: " + e.Reason
}

// Degenerate builds a DegenerateConfigurationError from a format string.
func Degenerate(format string, args ...interface{}) error {
	return &DegenerateConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
