package ec2

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{
		Name: "demo stack",
		AMI:  "ami-05f991c49d264708f",
	}
	c.ApplyDefaults()
	return c
}

func TestConfigDefaults(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "us-west-2", c.Region)
	assert.Equal(t, "10.0.0.0/16", c.VPCCIDR)
	assert.Equal(t, "10.0.1.0/24", c.SubnetCIDR)
	assert.Equal(t, "t3.micro", c.InstanceType)
	assert.Equal(t, "nginx:latest", c.Image)
	assert.Equal(t, "webserver", c.ContainerName)
	assert.Equal(t, int32(8080), c.WebPort)
	assert.Equal(t, int32(80), c.ContainerPort)
	assert.Equal(t, "ubuntu", c.SSHUser)
	assert.Equal(t, int32(22), c.SSHPort)
	assert.Equal(t, 300, c.ReadyTimeoutSeconds)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing-name", func(c *Config) { c.Name = "" }},
		{"missing-ami", func(c *Config) { c.AMI = "" }},
		{"bad-vpc-cidr", func(c *Config) { c.VPCCIDR = "10.0.0.0" }},
		{"bad-subnet-cidr", func(c *Config) { c.SubnetCIDR = "not-a-cidr" }},
		{"subnet-outside-vpc", func(c *Config) { c.SubnetCIDR = "192.168.0.0/24" }},
		{"subnet-wider-than-vpc", func(c *Config) { c.SubnetCIDR = "10.0.0.0/8" }},
		{"bad-operator-cidr", func(c *Config) { c.OperatorCIDR = "1.2.3.4" }},
		{"bad-image", func(c *Config) { c.Image = "UPPER CASE bad ref" }},
		{"web-port-out-of-range", func(c *Config) { c.WebPort = 70000 }},
		{"web-port-is-ssh-port", func(c *Config) { c.WebPort = 22 }},
		{"negative-ready-timeout", func(c *Config) { c.ReadyTimeoutSeconds = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfigStackName(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "demo-stack", c.StackName())
}

func TestLoadConfig(t *testing.T) {
	t.Run("full-roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "webstack.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"name": "demo",
			"ami": "ami-0123456789abcdef0",
			"region": "eu-central-1",
			"web_port": 8081,
			"operator_cidr": "203.0.113.9/32"
		}`), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "eu-central-1", cfg.Region)
		assert.Equal(t, int32(8081), cfg.WebPort)
		assert.Equal(t, "203.0.113.9/32", cfg.OperatorCIDR)
		// Defaults still fill the gaps.
		assert.Equal(t, "nginx:latest", cfg.Image)
	})

	t.Run("missing-file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid-json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "webstack.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("invalid-declaration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "webstack.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name": "demo"}`), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
