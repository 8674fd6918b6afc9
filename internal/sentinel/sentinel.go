package sentinel

var _ error = Error("")

// Error is an immutable error value. Declare sentinels with it as const:
//
//	const ErrSomething = sentinel.Error("something failed")
//
// Because Error is comparable, errors.Is matches it by value anywhere in a
// wrapped chain.
type Error string

func (e Error) Error() string {
	return string(e)
}
