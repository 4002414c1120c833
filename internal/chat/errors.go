package chat

import "errors"

// Every failure in the coordination core maps to one of these sentinels.
// They are recoverable at connection scope: the offending operation is
// rejected with a scoped error event and nothing else is affected.
var (
	ErrUnknownUser     = errors.New("user not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotRoomMember   = errors.New("user is not a member of this room")
	ErrInvalidName     = errors.New("invalid room name")
	ErrInvalidContent  = errors.New("invalid message content")
	ErrMessageNotFound = errors.New("message not found")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUnauthenticated = errors.New("authentication required")
)
