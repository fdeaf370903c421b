package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
)

var (
	ErrVPCCreate = fmt.Errorf("failed to create VPC")
	ErrNilVPCID  = fmt.Errorf("VPC create returned no error, but the VPC ID was nil")
)

func (p *Provisioner) vpcCreate(ctx context.Context) (string, error) {
	log := clog.FromContext(ctx).With("cidr", p.cfg.VPCCIDR)
	log.Debug("creating VPC")

	result, err := p.client.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(p.cfg.VPCCIDR),
		TagSpecifications: p.tagSpec(types.ResourceTypeVpc, p.resourceName("vpc")),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVPCCreate, err)
	}
	if result.Vpc == nil || result.Vpc.VpcId == nil {
		return "", ErrNilVPCID
	}
	vpcID := *result.Vpc.VpcId

	// Instances need DNS for package mirrors and the registry pull, and the
	// operator wants a resolvable public hostname. Neither attribute can be
	// set in the create call.
	for _, modify := range []*ec2.ModifyVpcAttributeInput{
		{VpcId: &vpcID, EnableDnsSupport: &types.AttributeBooleanValue{Value: aws.Bool(true)}},
		{VpcId: &vpcID, EnableDnsHostnames: &types.AttributeBooleanValue{Value: aws.Bool(true)}},
	} {
		if _, err := p.client.ModifyVpcAttribute(ctx, modify); err != nil {
			return vpcID, fmt.Errorf("%w: enabling DNS attributes: %w", ErrVPCCreate, err)
		}
	}

	return vpcID, nil
}

var ErrVPCDelete = fmt.Errorf("failed to delete VPC")

func (p *Provisioner) vpcDelete(ctx context.Context, vpcID string) error {
	_, err := p.client.DeleteVpc(ctx, &ec2.DeleteVpcInput{
		VpcId: aws.String(vpcID),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrVPCDelete, err)
	}
	return nil
}
