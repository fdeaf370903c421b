package ec2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

var ErrPublicIPLookup = fmt.Errorf("failed to resolve the caller's public IP address")

// publicAddr returns the public IP address of the machine running this tool.
//
// The SSH ingress rule is restricted to the calling host; when the operator
// does not supply an address block explicitly, this lookup provides it.
func publicAddr(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const provider = "https://api.ipify.org"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublicIPLookup, err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublicIPLookup, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: HTTP %d", ErrPublicIPLookup, res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublicIPLookup, err)
	}
	return strings.TrimSpace(string(data)), nil
}

var ErrAddressInvalid = fmt.Errorf("failed to parse IP address")

// singleAddrCIDR renders one address as a single-host CIDR block, in the
// address family's width.
func singleAddrCIDR(addr string) (string, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrAddressInvalid, addr, err)
	}
	if ip.Is4() {
		return ip.String() + "/32", nil
	}
	return ip.String() + "/128", nil
}

// operatorCIDR resolves the address block granted SSH access: the
// operator-supplied one when configured, otherwise the caller's detected
// public address.
func (p *Provisioner) operatorCIDR(ctx context.Context) (string, error) {
	if p.cfg.OperatorCIDR != "" {
		return p.cfg.OperatorCIDR, nil
	}
	addr, err := publicAddr(ctx)
	if err != nil {
		return "", err
	}
	return singleAddrCIDR(addr)
}
