package ec2

import (
	"context"
	"errors"
	"slices"
)

type (
	// Stack is a LIFO queue of destructors, unwound when an apply fails
	// partway so freshly created resources do not leak.
	Stack struct {
		destructors []Destructor
	}
	Destructor func(ctx context.Context) error
)

// Push queues a destructor. Destructors run in the reverse of the order they
// were pushed.
func (s *Stack) Push(d Destructor) {
	s.destructors = append(s.destructors, d)
}

// Unwind calls every queued destructor in reverse order, returning all
// encountered errors joined. The queue is emptied regardless of errors.
func (s *Stack) Unwind(ctx context.Context) error {
	var errs error
	for _, d := range slices.Backward(s.destructors) {
		errs = errors.Join(errs, d(ctx))
	}
	s.destructors = nil
	return errs
}

// Len reports the number of queued destructors.
func (s *Stack) Len() int {
	return len(s.destructors)
}
