// Package dispatcher maps named commands to handlers and produces exactly one
// outcome per invocation.
package dispatcher

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// Standard failure codes.
const (
	CodeOSError         = "OS_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Invocation is a single command request delivered by a transport.
type Invocation struct {
	Name      string
	Arguments Value
}

// Kind tags the variant held by an Outcome.
type Kind int

const (
	kindInvalid Kind = iota
	KindSuccess
	KindFailure
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// FailureDetail holds a machine-readable error classification.
type FailureDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details Value  `json:"details,omitempty"`
}

// Outcome is the result of handling one invocation. Exactly one of Value
// (KindSuccess) or Failure (KindFailure) is meaningful; KindUnsupported
// carries nothing. The zero Outcome is invalid.
type Outcome struct {
	Kind    Kind
	Value   Value
	Failure *FailureDetail
}

// Success wraps a result value.
func Success(v Value) Outcome {
	return Outcome{Kind: KindSuccess, Value: v}
}

// Failure builds a failure outcome.
func Failure(code, message string, details Value) Outcome {
	return Outcome{Kind: KindFailure, Failure: &FailureDetail{Code: code, Message: message, Details: details}}
}

// Unsupported signals that no handler exists for the command.
func Unsupported() Outcome {
	return Outcome{Kind: KindUnsupported}
}

// Valid reports whether o is one of the three defined variants.
func (o Outcome) Valid() bool {
	switch o.Kind {
	case KindSuccess, KindUnsupported:
		return true
	case KindFailure:
		return o.Failure != nil
	default:
		return false
	}
}

// CommandError is an error carrying its own failure code. Handlers built
// with Func return it to pick a code other than the defaults.
type CommandError struct {
	Code    string
	Message string
	Details Value
}

func (e *CommandError) Error() string {
	return e.Code + ": " + e.Message
}

// NewCommandError creates a new CommandError.
func NewCommandError(code, message string) *CommandError {
	return &CommandError{Code: code, Message: message}
}

// FailureFromError classifies err into a Failure outcome. Operating system
// errors map to OS_ERROR with the OS message and no details.
func FailureFromError(err error) Outcome {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return Failure(cmdErr.Code, cmdErr.Message, cmdErr.Details)
	}
	if isOSError(err) {
		return Failure(CodeOSError, err.Error(), nil)
	}
	return Failure(CodeInternalError, err.Error(), nil)
}

func isOSError(err error) bool {
	var pathErr *fs.PathError
	var sysErr *os.SyscallError
	var linkErr *os.LinkError
	var errno syscall.Errno
	return errors.As(err, &pathErr) ||
		errors.As(err, &sysErr) ||
		errors.As(err, &linkErr) ||
		errors.As(err, &errno)
}
