package interview

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("interview not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidToken        = errors.New("invalid interview token")
	ErrExpiredToken        = errors.New("interview link has expired, please request a new link")
	ErrInvalidSessionState = errors.New("interview is not in progress")
	ErrNoActiveQuestion    = errors.New("no current question found")
	ErrInterviewIncomplete = errors.New("candidate has not answered all target questions yet")
	ErrConflict            = errors.New("interview was modified concurrently, retry the request")
	ErrDuplicateToken      = errors.New("candidate link token already in use")
	ErrRemoteCall          = errors.New("remote call failed")
	ErrRemoteCallTimeout   = errors.New("remote call timed out")
)

// RemoteCallError wraps a collaborator failure with the operation that failed.
// errors.Is matches ErrRemoteCall always and ErrRemoteCallTimeout when the
// call exceeded its deadline.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

func (e *RemoteCallError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, ErrRemoteCallTimeout)
}

func (e *RemoteCallError) Is(target error) bool {
	switch target {
	case ErrRemoteCall:
		return true
	case ErrRemoteCallTimeout:
		return e.Timeout()
	}
	return false
}

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteCallError{Op: op, Err: err}
}
