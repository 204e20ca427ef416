package files

import "errors"

var (
	ErrEmptyID       = errors.New("file id is required")
	ErrNothingToSend = errors.New("no ids to delete")
	ErrNoOpener      = errors.New("upload source cannot be opened")
)
