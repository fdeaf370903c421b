package ec2

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackUnwindsInReverse(t *testing.T) {
	var order []int
	stack := new(Stack)
	for i := range 3 {
		stack.Push(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}
	require.Equal(t, 3, stack.Len())

	require.NoError(t, stack.Unwind(t.Context()))
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, stack.Len())
}

func TestStackJoinsErrors(t *testing.T) {
	errA := fmt.Errorf("a")
	errB := fmt.Errorf("b")

	stack := new(Stack)
	stack.Push(func(ctx context.Context) error { return errA })
	stack.Push(func(ctx context.Context) error { return nil })
	stack.Push(func(ctx context.Context) error { return errB })

	err := stack.Unwind(t.Context())
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestStackKeepsGoingPastFailures(t *testing.T) {
	var ran []string
	stack := new(Stack)
	stack.Push(func(ctx context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	stack.Push(func(ctx context.Context) error {
		ran = append(ran, "second")
		return fmt.Errorf("boom")
	})

	require.Error(t, stack.Unwind(t.Context()))
	// The failure of the later-created resource must not stop the earlier
	// one's destructor.
	assert.Equal(t, []string{"second", "first"}, ran)
}
