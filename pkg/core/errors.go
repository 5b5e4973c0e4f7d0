package core

// Error is a coded error returned by framework packages.
// Code is a stable machine-readable identifier, Message is for humans.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
