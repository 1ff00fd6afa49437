package ir

import (
	"errors"
	"fmt"
)

// Diagnostic reports a violated invariant. It identifies either the operation
// whose verification failed (Op) or the type or attribute that is ill-formed (Subject).
type Diagnostic struct {
	Op      string
	Subject string
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	switch {
	case d.Op != "":
		return fmt.Sprintf("'%s' op %s", d.Op, d.Message)
	case d.Subject != "":
		return fmt.Sprintf("%s: %s", d.Subject, d.Message)
	default:
		return d.Message
	}
}

// Errorf returns a new [Diagnostic] attached to the given subject, which is
// typically the textual form of a type or an attribute.
func Errorf(subject string, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// AsDiagnostic returns the first [Diagnostic] found in the chain of err.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// InternalFault is the panic value raised when the IR reaches a state that its own
// type constraints rule out. It denotes a defect in the implementation and is never
// reported as a regular diagnostic.
type InternalFault struct {
	Message string
}

func (f InternalFault) Error() string {
	return "internal fault: " + f.Message
}

// Unreachable panics with an [InternalFault].
func Unreachable(format string, args ...interface{}) {
	panic(InternalFault{Message: fmt.Sprintf(format, args...)})
}
