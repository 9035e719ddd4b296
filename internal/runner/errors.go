package runner

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrTooManyArguments is returned when more than one path is given
var ErrTooManyArguments = eris.New("too many arguments")

// Kind classifies why a run failed
type Kind int

const (
	KindInvalidArgument Kind = iota + 1
	KindInvalidDirectory
	KindDescriptorNotFound
	KindBuildToolNotFound
	KindSubprocessLaunchFailure
	KindBuildFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidDirectory:
		return "invalid directory"
	case KindDescriptorNotFound:
		return "descriptor not found"
	case KindBuildToolNotFound:
		return "build tool not found"
	case KindSubprocessLaunchFailure:
		return "subprocess launch failure"
	case KindBuildFailed:
		return "build failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ExitCodeError carries the process exit code for a failed run. The
// user-facing message has already been printed when it is returned.
type ExitCodeError struct {
	Kind Kind
	Code int
	Err  error
}

func (e ExitCodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (exit code %d): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (exit code %d)", e.Kind, e.Code)
}

func (e ExitCodeError) Unwrap() error {
	return e.Err
}
