package ec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
)

var (
	ErrInstanceLaunch      = fmt.Errorf("failed to launch instance")
	ErrInstanceLaunchEmpty = fmt.Errorf("instance launch returned no error, but no instance was created")
	ErrNilInstanceID       = fmt.Errorf("instance launch returned no error, but the instance ID was nil")
)

// instanceLaunch starts the stack's single instance with the boot script
// attached as user-data. 'userData' must already be base64-encoded.
func (p *Provisioner) instanceLaunch(ctx context.Context, subnetID, sgID, keyName, userData string) (string, error) {
	result, err := p.client.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      aws.String(p.cfg.AMI),
		InstanceType: p.cfg.instanceType(),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		KeyName:      aws.String(keyName),
		UserData:     aws.String(userData),
		NetworkInterfaces: []types.InstanceNetworkInterfaceSpecification{{
			DeviceIndex:              aws.Int32(0),
			SubnetId:                 aws.String(subnetID),
			AssociatePublicIpAddress: aws.Bool(true),
			Groups:                   []string{sgID},
		}},
		TagSpecifications: p.tagSpec(types.ResourceTypeInstance, p.resourceName("web")),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstanceLaunch, err)
	}
	if len(result.Instances) == 0 {
		return "", ErrInstanceLaunchEmpty
	}
	if result.Instances[0].InstanceId == nil {
		return "", ErrNilInstanceID
	}
	return *result.Instances[0].InstanceId, nil
}

var (
	ErrInstanceWait     = fmt.Errorf("failed waiting for instance readiness")
	ErrInstanceNoPublic = fmt.Errorf("instance entered running state without a public IP")
)

// instanceAwaitRunning blocks until the instance reaches the running state
// and passes its status checks, then returns its public IP. The caller's
// context bounds the wait; the waiter-level timeouts are deliberately large.
func (p *Provisioner) instanceAwaitRunning(ctx context.Context, instanceID string) (string, error) {
	log := clog.FromContext(ctx).With("id", instanceID)

	log.Info("waiting for instance to enter running state")
	running := ec2.NewInstanceRunningWaiter(p.client)
	out, err := running.WaitForOutput(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	}, time.Hour)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstanceWait, err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return "", fmt.Errorf("%w: instance missing from waiter output", ErrInstanceWait)
	}
	inst := out.Reservations[0].Instances[0]
	if inst.PublicIpAddress == nil {
		return "", ErrInstanceNoPublic
	}
	publicIP := *inst.PublicIpAddress

	log.Info("waiting for instance status checks", "ip", publicIP)
	statusOK := ec2.NewInstanceStatusOkWaiter(p.client)
	if err := statusOK.Wait(ctx, &ec2.DescribeInstanceStatusInput{
		InstanceIds: []string{instanceID},
	}, time.Hour); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInstanceWait, err)
	}

	return publicIP, nil
}

var ErrInstanceTerminate = fmt.Errorf("failed to terminate instance")

// instanceTerminate terminates the instance and waits for full termination,
// so dependent deletes (security group, subnet) do not trip over a lingering
// network interface.
func (p *Provisioner) instanceTerminate(ctx context.Context, instanceID string) error {
	log := clog.FromContext(ctx).With("id", instanceID)

	_, err := p.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds:    []string{instanceID},
		SkipOsShutdown: aws.Bool(true),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrInstanceTerminate, err)
	}

	log.Info("waiting for instance to terminate")
	waiter := ec2.NewInstanceTerminatedWaiter(p.client)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	}, time.Hour); err != nil {
		// Termination is underway; dependent deletes may still need retries
		// but there is nothing more to do here.
		log.Warn("gave up waiting for instance termination", "error", err)
	}
	return nil
}

var ErrInstanceDescribe = fmt.Errorf("failed to describe instance")

// instanceDescribe returns the instance's current state name and public IP
// (empty when the instance has none, e.g. while stopped).
func (p *Provisioner) instanceDescribe(ctx context.Context, instanceID string) (types.InstanceStateName, string, error) {
	result, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		if isGone(err) {
			return types.InstanceStateNameTerminated, "", nil
		}
		return "", "", fmt.Errorf("%w: %w", ErrInstanceDescribe, err)
	}
	if len(result.Reservations) == 0 || len(result.Reservations[0].Instances) == 0 {
		return types.InstanceStateNameTerminated, "", nil
	}
	inst := result.Reservations[0].Instances[0]
	if inst.State == nil {
		return "", "", fmt.Errorf("%w: instance state was nil", ErrInstanceDescribe)
	}
	publicIP := ""
	if inst.PublicIpAddress != nil {
		publicIP = *inst.PublicIpAddress
	}
	return inst.State.Name, publicIP, nil
}
