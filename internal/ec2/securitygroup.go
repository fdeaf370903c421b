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
	ErrSGCreate = fmt.Errorf("failed to create security group")
	ErrNilSGID  = fmt.Errorf("security group create returned no error, but the group ID was nil")
)

// sgCreate creates the stack security group and its two ingress rules: SSH
// from the operator address only, and the web port from anywhere. Egress is
// the provider default (allow all), which the bootstrap's package and image
// downloads depend on.
func (p *Provisioner) sgCreate(ctx context.Context, vpcID, operatorCIDR string) (string, error) {
	log := clog.FromContext(ctx)

	result, err := p.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:         aws.String(p.resourceName("sg")),
		Description:       aws.String("webstack: SSH from the operator, web from anywhere"),
		VpcId:             aws.String(vpcID),
		TagSpecifications: p.tagSpec(types.ResourceTypeSecurityGroup, p.resourceName("sg")),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSGCreate, err)
	}
	if result.GroupId == nil {
		return "", ErrNilSGID
	}
	sgID := *result.GroupId

	for _, perm := range ingressRules(p.cfg, operatorCIDR) {
		if err := p.sgAuthorizeIngress(ctx, sgID, perm); err != nil {
			return sgID, err
		}
		log.Info("authorized ingress",
			"security_group_id", sgID,
			"port", *perm.FromPort,
			"from", *perm.IpRanges[0].CidrIp,
			"proto", "tcp",
		)
	}

	return sgID, nil
}

// ingressRules builds the group's complete ingress rule set: SSH from the
// operator address only, the web port from anywhere, nothing else.
func ingressRules(cfg *Config, operatorCIDR string) []types.IpPermission {
	rules := []struct {
		port int32
		cidr string
		desc string
	}{
		{cfg.SSHPort, operatorCIDR, "operator SSH"},
		{cfg.WebPort, "0.0.0.0/0", "public web"},
	}

	perms := make([]types.IpPermission, 0, len(rules))
	for _, rule := range rules {
		perms = append(perms, types.IpPermission{
			IpProtocol: aws.String("tcp"),
			FromPort:   aws.Int32(rule.port),
			ToPort:     aws.Int32(rule.port),
			IpRanges: []types.IpRange{{
				CidrIp:      aws.String(rule.cidr),
				Description: aws.String(rule.desc),
			}},
		})
	}
	return perms
}

var ErrSGIngress = fmt.Errorf("failed to add security group ingress rule")

func (p *Provisioner) sgAuthorizeIngress(ctx context.Context, sgID string, perm types.IpPermission) error {
	_, err := p.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(sgID),
		IpPermissions: []types.IpPermission{perm},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSGIngress, err)
	}
	return nil
}

var ErrSGDelete = fmt.Errorf("failed to delete security group")

func (p *Provisioner) sgDelete(ctx context.Context, sgID string) error {
	_, err := p.client.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupId: aws.String(sgID),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrSGDelete, err)
	}
	return nil
}
