package vcserr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotInitialized Kind = "NOT_INITIALIZED"
	KindNotFound       Kind = "NOT_FOUND"
	KindAlreadyExists  Kind = "ALREADY_EXISTS"
	KindNothingToDo    Kind = "NOTHING_TO_DO"
	KindSourceMissing  Kind = "SOURCE_MISSING"
	KindSameBranch     Kind = "SAME_BRANCH"
	KindEmptyBranch    Kind = "EMPTY_BRANCH"
)

// Sentinels for errors.Is checks at the operation boundary.
var (
	ErrNotInitialized = errors.New("repository not initialized")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNothingToDo    = errors.New("nothing to do")
	ErrSourceMissing  = errors.New("source file missing")
	ErrSameBranch     = errors.New("already on that branch")
	ErrEmptyBranch    = errors.New("branch has no commits")
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindNotInitialized:
		return ErrNotInitialized
	case KindNotFound:
		return ErrNotFound
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindNothingToDo:
		return ErrNothingToDo
	case KindSourceMissing:
		return ErrSourceMissing
	case KindSameBranch:
		return ErrSameBranch
	case KindEmptyBranch:
		return ErrEmptyBranch
	}
	return nil
}

func NotInitialized() *Error {
	return &Error{Kind: KindNotInitialized, Message: "not a slate repository (run \"slate init\")"}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func NothingToDo(format string, args ...any) *Error {
	return &Error{Kind: KindNothingToDo, Message: fmt.Sprintf(format, args...)}
}

func SourceMissing(format string, args ...any) *Error {
	return &Error{Kind: KindSourceMissing, Message: fmt.Sprintf(format, args...)}
}

func SameBranch(format string, args ...any) *Error {
	return &Error{Kind: KindSameBranch, Message: fmt.Sprintf(format, args...)}
}

func EmptyBranch(format string, args ...any) *Error {
	return &Error{Kind: KindEmptyBranch, Message: fmt.Sprintf(format, args...)}
}
