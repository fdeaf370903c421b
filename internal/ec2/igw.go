package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

var (
	ErrIGWCreate = fmt.Errorf("failed to create internet gateway")
	ErrNilIGWID  = fmt.Errorf("internet gateway create returned no error, but the gateway ID was nil")
)

func (p *Provisioner) igwCreate(ctx context.Context) (string, error) {
	result, err := p.client.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
		TagSpecifications: p.tagSpec(types.ResourceTypeInternetGateway, p.resourceName("igw")),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIGWCreate, err)
	}
	if result.InternetGateway == nil || result.InternetGateway.InternetGatewayId == nil {
		return "", ErrNilIGWID
	}
	return *result.InternetGateway.InternetGatewayId, nil
}

var ErrIGWAttach = fmt.Errorf("failed to attach internet gateway to VPC")

func (p *Provisioner) igwAttach(ctx context.Context, vpcID, igwID string) error {
	_, err := p.client.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
		VpcId:             aws.String(vpcID),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIGWAttach, err)
	}
	return nil
}

var ErrIGWDetach = fmt.Errorf("failed to detach internet gateway from VPC")

func (p *Provisioner) igwDetach(ctx context.Context, vpcID, igwID string) error {
	_, err := p.client.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
		VpcId:             aws.String(vpcID),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrIGWDetach, err)
	}
	return nil
}

var ErrIGWDelete = fmt.Errorf("failed to delete internet gateway")

func (p *Provisioner) igwDelete(ctx context.Context, igwID string) error {
	_, err := p.client.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrIGWDelete, err)
	}
	return nil
}
