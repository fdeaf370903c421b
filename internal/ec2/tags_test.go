package ec2

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagSpec(t *testing.T) {
	p := &Provisioner{cfg: validConfig(), runID: "cafe0123"}

	specs := p.tagSpec(types.ResourceTypeVpc, "demo-stack-vpc")
	require.Len(t, specs, 1)
	assert.Equal(t, types.ResourceTypeVpc, specs[0].ResourceType)

	got := map[string]string{}
	for _, tag := range specs[0].Tags {
		got[*tag.Key] = *tag.Value
	}
	assert.Equal(t, map[string]string{
		"Name":            "demo-stack-vpc",
		"ManagedBy":       "webstack",
		"webstack:stack":  "demo-stack",
		"webstack:run-id": "cafe0123",
	}, got)
}

func TestResourceName(t *testing.T) {
	p := &Provisioner{cfg: validConfig()}
	assert.Equal(t, "demo-stack-igw", p.resourceName("igw"))
}
