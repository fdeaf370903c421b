package ec2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngressRules(t *testing.T) {
	tests := []struct {
		name         string
		sshPort      int32
		webPort      int32
		operatorCIDR string
	}{
		{name: "defaults", sshPort: 22, webPort: 8080, operatorCIDR: "203.0.113.7/32"},
		{name: "custom ports", sshPort: 2222, webPort: 9090, operatorCIDR: "198.51.100.0/28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SSHPort = tt.sshPort
			cfg.WebPort = tt.webPort

			perms := ingressRules(cfg, tt.operatorCIDR)

			// Exactly two rules: SSH and web, nothing else.
			require.Len(t, perms, 2)

			sshRule := perms[0]
			assert.Equal(t, "tcp", *sshRule.IpProtocol)
			assert.Equal(t, tt.sshPort, *sshRule.FromPort)
			assert.Equal(t, tt.sshPort, *sshRule.ToPort)
			require.Len(t, sshRule.IpRanges, 1)
			assert.Equal(t, tt.operatorCIDR, *sshRule.IpRanges[0].CidrIp)

			webRule := perms[1]
			assert.Equal(t, "tcp", *webRule.IpProtocol)
			assert.Equal(t, tt.webPort, *webRule.FromPort)
			assert.Equal(t, tt.webPort, *webRule.ToPort)
			require.Len(t, webRule.IpRanges, 1)
			assert.Equal(t, "0.0.0.0/0", *webRule.IpRanges[0].CidrIp)
		})
	}
}

func TestIngressRulesNeverExposeSSHToTheWorld(t *testing.T) {
	perms := ingressRules(validConfig(), "203.0.113.7/32")

	for _, perm := range perms {
		for _, r := range perm.IpRanges {
			if *r.CidrIp == "0.0.0.0/0" {
				assert.NotEqual(t, int32(22), *perm.FromPort,
					"the world-open rule must not cover SSH")
			}
		}
	}
}
