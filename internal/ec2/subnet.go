package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

var (
	ErrSubnetCreate = fmt.Errorf("failed to create subnet")
	ErrNilSubnetID  = fmt.Errorf("subnet create returned no error, but the subnet ID was nil")
)

func (p *Provisioner) subnetCreate(ctx context.Context, vpcID string) (string, error) {
	input := &ec2.CreateSubnetInput{
		VpcId:             aws.String(vpcID),
		CidrBlock:         aws.String(p.cfg.SubnetCIDR),
		TagSpecifications: p.tagSpec(types.ResourceTypeSubnet, p.resourceName("subnet")),
	}
	if p.cfg.AvailabilityZone != "" {
		input.AvailabilityZone = aws.String(p.cfg.AvailabilityZone)
	}

	result, err := p.client.CreateSubnet(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubnetCreate, err)
	}
	if result.Subnet == nil || result.Subnet.SubnetId == nil {
		return "", ErrNilSubnetID
	}
	subnetID := *result.Subnet.SubnetId

	// Auto-assign a public address to instances launched here; the subnet is
	// this stack's single public subnet.
	_, err = p.client.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
		SubnetId:            &subnetID,
		MapPublicIpOnLaunch: &types.AttributeBooleanValue{Value: aws.Bool(true)},
	})
	if err != nil {
		return subnetID, fmt.Errorf("%w: enabling public IP on launch: %w", ErrSubnetCreate, err)
	}

	return subnetID, nil
}

var ErrSubnetDelete = fmt.Errorf("failed to delete subnet")

func (p *Provisioner) subnetDelete(ctx context.Context, subnetID string) error {
	_, err := p.client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{
		SubnetId: aws.String(subnetID),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrSubnetDelete, err)
	}
	return nil
}
