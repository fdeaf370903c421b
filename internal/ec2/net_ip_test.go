package ec2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleAddrCIDR(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "ipv4", addr: "203.0.113.7", want: "203.0.113.7/32"},
		{name: "ipv6", addr: "2001:db8::1", want: "2001:db8::1/128"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := singleAddrCIDR(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := singleAddrCIDR("not-an-address")
		require.ErrorIs(t, err, ErrAddressInvalid)
	})

	t.Run("rejects cidr input", func(t *testing.T) {
		_, err := singleAddrCIDR("10.0.0.0/8")
		require.ErrorIs(t, err, ErrAddressInvalid)
	})
}

func TestOperatorCIDRPrefersConfigured(t *testing.T) {
	p := &Provisioner{cfg: &Config{OperatorCIDR: "198.51.100.0/28"}}
	got, err := p.operatorCIDR(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.0/28", got)
}
