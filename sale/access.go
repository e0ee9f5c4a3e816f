package sale

// AccessContext identifies the caller of a sale operation. It is passed
// explicitly into every operation instead of living as ambient state, so
// tests can exercise arbitrary role configurations without setup.
type AccessContext struct {
	// Actor is the caller's holder identity (address or paymail handle).
	Actor string

	// Operator grants distribution and cancellation rights.
	Operator bool
}

// requireActor rejects calls with no caller identity.
func requireActor(access AccessContext) error {
	if access.Actor == "" {
		return ErrUnauthorized
	}
	return nil
}

// requireOperator rejects calls without the operator role.
func requireOperator(access AccessContext) error {
	if err := requireActor(access); err != nil {
		return err
	}
	if !access.Operator {
		return ErrUnauthorized
	}
	return nil
}
