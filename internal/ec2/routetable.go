package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// defaultRouteCIDR is the destination of the egress route through the
// internet gateway.
const defaultRouteCIDR = "0.0.0.0/0"

var (
	ErrRouteTableLookup = fmt.Errorf("failed to look up the VPC main route table")
	ErrNoRouteTable     = fmt.Errorf("found no route table for the VPC")
	ErrNilRouteTableID  = fmt.Errorf("route table lookup returned no error, but the route table ID was nil")
)

// routeTableForVPC finds the main route table the provider created
// implicitly with the VPC. The VPC create response carries no route table
// information, so this is a separate describe.
func (p *Provisioner) routeTableForVPC(ctx context.Context, vpcID string) (string, error) {
	result, err := p.client.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		Filters: []types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("association.main"), Values: []string{"true"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRouteTableLookup, err)
	}
	if len(result.RouteTables) == 0 {
		return "", ErrNoRouteTable
	}
	if result.RouteTables[0].RouteTableId == nil {
		return "", ErrNilRouteTableID
	}
	return *result.RouteTables[0].RouteTableId, nil
}

var ErrRouteCreate = fmt.Errorf("failed to add route to route table")

// routeCreate adds the default route through the internet gateway, giving
// the subnet its egress path to the public internet.
func (p *Provisioner) routeCreate(ctx context.Context, rtbID, igwID string) error {
	result, err := p.client.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(rtbID),
		GatewayId:            aws.String(igwID),
		DestinationCidrBlock: aws.String(defaultRouteCIDR),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRouteCreate, err)
	}
	if result.Return == nil || !*result.Return {
		return ErrRouteCreate
	}
	return nil
}

var ErrRouteDelete = fmt.Errorf("failed to delete route table route")

func (p *Provisioner) routeDelete(ctx context.Context, rtbID, destCIDR string) error {
	_, err := p.client.DeleteRoute(ctx, &ec2.DeleteRouteInput{
		RouteTableId:         aws.String(rtbID),
		DestinationCidrBlock: aws.String(destCIDR),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrRouteDelete, err)
	}
	return nil
}
