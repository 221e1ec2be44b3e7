package xerror

// Unwrap returns t, panicking on a non-nil error. Meant for fixtures built
// from constants, where an error is a programming mistake.
func Unwrap[T any](t T, e error) T {
	if e != nil {
		panic(e)
	}
	return t
}
