package assert

// Violation is the panic value raised when an invariant does not hold.
type Violation struct {
	Message string
}

func (v *Violation) Error() string {
	return "invariant violated: " + v.Message
}
