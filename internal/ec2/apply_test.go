package ec2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudmelt/webstack/internal/state"
)

func TestUpToDate(t *testing.T) {
	withInstance := func(hash, publicIP string) *state.State {
		return &state.State{
			UserDataHash: hash,
			PublicIP:     publicIP,
			Resources: []state.Resource{
				{Kind: state.KindInstance, ID: "i-0abc"},
			},
		}
	}

	tests := []struct {
		name string
		st   *state.State
		hash string
		want bool
	}{
		{
			name: "verified instance with matching script",
			st:   withInstance("abc", "203.0.113.7"),
			hash: "abc",
			want: true,
		},
		{
			// A crash between launch and readiness verification leaves the
			// hash recorded but no public IP; the next apply must not declare
			// the stack done.
			name: "instance launched but never verified",
			st:   withInstance("abc", ""),
			hash: "abc",
			want: false,
		},
		{
			name: "boot script changed",
			st:   withInstance("old", "203.0.113.7"),
			hash: "new",
			want: false,
		},
		{
			name: "no instance recorded",
			st:   &state.State{UserDataHash: "abc", PublicIP: "203.0.113.7"},
			hash: "abc",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upToDate(tt.st, tt.hash))
		})
	}
}
