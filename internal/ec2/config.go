package ec2

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/gosimple/slug"
)

// Config declares the stack. Values come from a JSON file plus flag
// overrides; zero values fall back to defaults in applyDefaults.
type Config struct {
	// Name identifies the stack. It is slugged into resource names, tags and
	// the state file name.
	Name string `json:"name"`

	// Required for apply.
	AMI string `json:"ami"`

	// Optional with defaults.
	Region           string `json:"region"`            // default: us-west-2
	VPCCIDR          string `json:"vpc_cidr"`          // default: 10.0.0.0/16
	SubnetCIDR       string `json:"subnet_cidr"`       // default: 10.0.1.0/24
	AvailabilityZone string `json:"availability_zone"` // default: provider-chosen
	InstanceType     string `json:"instance_type"`     // default: t3.micro

	// OperatorCIDR is the single address block allowed to reach SSH. When
	// empty, the caller's public IP is detected and used as a /32.
	OperatorCIDR string `json:"operator_cidr"`

	// Web service.
	Image         string `json:"image"`          // default: nginx:latest
	ContainerName string `json:"container_name"` // default: webserver
	WebPort       int32  `json:"web_port"`       // default: 8080 (host)
	ContainerPort int32  `json:"container_port"` // default: 80
	// HealthCmd, when set, is installed as a shell healthcheck on containers
	// created by the converge path. The boot script never sets one.
	HealthCmd string `json:"health_cmd"`

	// Instance access.
	SSHUser string `json:"ssh_user"` // default: ubuntu
	SSHPort int32  `json:"ssh_port"` // default: 22

	// ReadyTimeoutSeconds bounds the post-launch wait for the web service to
	// answer over HTTP. Default: 300.
	ReadyTimeoutSeconds int `json:"ready_timeout_seconds"`
}

// LoadConfig reads, defaults and validates a stack declaration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := new(Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us-west-2"
	}
	if c.VPCCIDR == "" {
		c.VPCCIDR = "10.0.0.0/16"
	}
	if c.SubnetCIDR == "" {
		c.SubnetCIDR = "10.0.1.0/24"
	}
	if c.InstanceType == "" {
		c.InstanceType = "t3.micro"
	}
	if c.Image == "" {
		c.Image = "nginx:latest"
	}
	if c.ContainerName == "" {
		c.ContainerName = "webserver"
	}
	if c.WebPort == 0 {
		c.WebPort = 8080
	}
	if c.ContainerPort == 0 {
		c.ContainerPort = 80
	}
	if c.SSHUser == "" {
		c.SSHUser = "ubuntu"
	}
	if c.SSHPort == 0 {
		c.SSHPort = 22
	}
	if c.ReadyTimeoutSeconds == 0 {
		c.ReadyTimeoutSeconds = 300
	}
}

func (c *Config) Validate() error {
	if c.Name == "" || slug.Make(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if c.AMI == "" {
		return fmt.Errorf("ami is required")
	}

	_, vpcNet, err := net.ParseCIDR(c.VPCCIDR)
	if err != nil {
		return fmt.Errorf("vpc_cidr %q: %w", c.VPCCIDR, err)
	}
	subnetIP, subnetNet, err := net.ParseCIDR(c.SubnetCIDR)
	if err != nil {
		return fmt.Errorf("subnet_cidr %q: %w", c.SubnetCIDR, err)
	}
	if !vpcNet.Contains(subnetIP) {
		return fmt.Errorf("subnet_cidr %s is not inside vpc_cidr %s", c.SubnetCIDR, c.VPCCIDR)
	}
	vpcOnes, _ := vpcNet.Mask.Size()
	subnetOnes, _ := subnetNet.Mask.Size()
	if subnetOnes < vpcOnes {
		return fmt.Errorf("subnet_cidr %s is wider than vpc_cidr %s", c.SubnetCIDR, c.VPCCIDR)
	}

	if c.OperatorCIDR != "" {
		if _, _, err := net.ParseCIDR(c.OperatorCIDR); err != nil {
			return fmt.Errorf("operator_cidr %q: %w", c.OperatorCIDR, err)
		}
	}

	if _, err := name.ParseReference(c.Image); err != nil {
		return fmt.Errorf("image %q: %w", c.Image, err)
	}

	for _, port := range []struct {
		name string
		val  int32
	}{
		{"web_port", c.WebPort},
		{"container_port", c.ContainerPort},
		{"ssh_port", c.SSHPort},
	} {
		if port.val < 1 || port.val > 65535 {
			return fmt.Errorf("%s %d is out of range", port.name, port.val)
		}
	}
	if c.WebPort == c.SSHPort {
		return fmt.Errorf("web_port and ssh_port are both %d", c.WebPort)
	}

	if c.ReadyTimeoutSeconds < 0 {
		return fmt.Errorf("ready_timeout_seconds must not be negative")
	}
	return nil
}

// StackName is the slugged form of Name used for resource names, tags and
// the state file.
func (c *Config) StackName() string {
	return slug.Make(c.Name)
}

func (c *Config) instanceType() types.InstanceType {
	return types.InstanceType(c.InstanceType)
}
