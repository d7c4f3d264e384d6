package service

import "errors"

// ErrorKind classifies service errors for transport mapping
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindValidation
	KindConflict
	KindUnavailable
)

// Error is a domain error with a stable code
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors with the same code so wrapped copies compare equal to the sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

var (
	ErrCommentNotFound    = &Error{Kind: KindNotFound, Code: "CMT_404", Message: "comment not found"}
	ErrParentNotFound     = &Error{Kind: KindNotFound, Code: "CMT_404_P", Message: "parent comment not found"}
	ErrContentsRequired   = &Error{Kind: KindValidation, Code: "CMT_400", Message: "contents must not be blank"}
	ErrNotCommentOwner    = &Error{Kind: KindForbidden, Code: "CMT_403", Message: "only the writer can modify this comment"}
	ErrInvalidStatus      = &Error{Kind: KindValidation, Code: "CMT_400_S", Message: "invalid comment status"}
	ErrStatusLocked       = &Error{Kind: KindConflict, Code: "CMT_409", Message: "comment is deleted or was modified concurrently"}
	ErrCounterUnavailable = &Error{Kind: KindUnavailable, Code: "CNT_503", Message: "comment counter unavailable"}
)

// AsError extracts a service Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
