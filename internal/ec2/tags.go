package ec2

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	// 'Name' is the well-known AWS display-name tag; the rest namespace this
	// tool's ownership markers so a stack's resources can be found (and bulk
	// cleaned) by tag alone.
	tagKeyName      = "Name"
	tagKeyManagedBy = "ManagedBy"
	tagKeyStack     = "webstack:stack"
	tagKeyRunID     = "webstack:run-id"

	tagManagedBy = "webstack"
)

// tagSpec produces the tag specification attached to every resource this
// tool creates: the display name plus the ownership markers.
func (p *Provisioner) tagSpec(rt types.ResourceType, displayName string) []types.TagSpecification {
	return []types.TagSpecification{{
		ResourceType: rt,
		Tags: []types.Tag{
			{Key: aws.String(tagKeyName), Value: aws.String(displayName)},
			{Key: aws.String(tagKeyManagedBy), Value: aws.String(tagManagedBy)},
			{Key: aws.String(tagKeyStack), Value: aws.String(p.cfg.StackName())},
			{Key: aws.String(tagKeyRunID), Value: aws.String(p.runID)},
		},
	}}
}

// resourceName derives a per-resource display name from the stack name.
func (p *Provisioner) resourceName(suffix string) string {
	return p.cfg.StackName() + "-" + suffix
}
