package backend

// Error is the one failure shape produced by the upstream client. Status
// distinguishes the three outcomes: the backend rejected the request (its
// own status code), the backend could not be reached (503), or the request
// never left this process (500). Payload carries the backend's structured
// error body verbatim, when it sent one.
type Error struct {
	Status  int
	Message string
	Payload map[string]any
}

func (e *Error) Error() string {
	return e.Message
}
