package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/google/go-containerregistry/pkg/name"

	"github.com/cloudmelt/webstack/internal/state"
)

// ConvergeAction is what Converge did to the web container.
type ConvergeAction string

const (
	// ConvergeNone means the container was already running the declared image.
	ConvergeNone ConvergeAction = "none"
	// ConvergeStarted means a stopped container was started.
	ConvergeStarted ConvergeAction = "started"
	// ConvergeRecreated means a container running the wrong image was
	// replaced.
	ConvergeRecreated ConvergeAction = "recreated"
	// ConvergeCreated means no container existed and one was created.
	ConvergeCreated ConvergeAction = "created"
)

var (
	ErrNotApplied      = fmt.Errorf("stack has not been applied")
	ErrInstanceMissing = fmt.Errorf("no instance recorded in state, run apply")
	ErrInstanceDown    = fmt.Errorf("instance is not running, converge can only repair the container")
)

// Converge repairs the web container on a running instance: starts it when
// stopped, recreates it when it runs the wrong image, and creates it when it
// is missing entirely. The boot script only runs on first boot, so drift at
// the container level (a crashed container, a changed image declaration)
// needs this path.
//
// Converge never touches cloud resources; a stopped or terminated instance is
// reported as an error instead.
func (p *Provisioner) Converge(ctx context.Context) (ConvergeAction, error) {
	log := clog.FromContext(ctx).With("stack", p.cfg.StackName())

	st, err := p.loadState()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotApplied, err)
	}
	inst, ok := st.Lookup(state.KindInstance)
	if !ok {
		return "", ErrInstanceMissing
	}

	stateName, publicIP, err := p.instanceDescribe(ctx, inst.ID)
	if err != nil {
		return "", err
	}
	if stateName != types.InstanceStateNameRunning {
		return "", fmt.Errorf("%w: instance %s is %s", ErrInstanceDown, inst.ID, stateName)
	}

	ref, err := name.ParseReference(p.cfg.Image)
	if err != nil {
		return "", fmt.Errorf("image %q: %w", p.cfg.Image, err)
	}

	cli, err := p.dockerClient(publicIP, st.KeyFile)
	if err != nil {
		return "", err
	}
	defer cli.Close()

	action, err := p.convergeContainer(ctx, cli, ref)
	if err != nil {
		return "", err
	}
	switch action {
	case ConvergeNone:
		log.Info("web container is already converged", "name", p.cfg.ContainerName)
	default:
		log.Info("web container repaired", "name", p.cfg.ContainerName, "action", action)
	}
	return action, nil
}

func (p *Provisioner) convergeContainer(ctx context.Context, cli *client.Client, ref name.Reference) (ConvergeAction, error) {
	log := clog.FromContext(ctx).With("container", p.cfg.ContainerName)

	existing, err := findContainer(ctx, cli, p.cfg.ContainerName)
	if err != nil {
		return "", err
	}

	switch {
	case existing == nil:
		log.Info("container is missing, creating it", "image", ref)
		if err := pullImage(ctx, cli, ref); err != nil {
			return "", err
		}
		if err := p.createWebContainer(ctx, cli, ref); err != nil {
			return "", err
		}
		return ConvergeCreated, nil

	case existing.Image != ref.String() && existing.Image != p.cfg.Image:
		log.Info("container runs the wrong image, recreating it",
			"have", existing.Image, "want", ref)
		if err := cli.ContainerRemove(ctx, existing.ID, container.RemoveOptions{Force: true}); err != nil {
			return "", fmt.Errorf("removing container: %w", err)
		}
		if err := pullImage(ctx, cli, ref); err != nil {
			return "", err
		}
		if err := p.createWebContainer(ctx, cli, ref); err != nil {
			return "", err
		}
		return ConvergeRecreated, nil

	case existing.State != "running":
		log.Info("container is stopped, starting it", "state", existing.State)
		if err := cli.ContainerStart(ctx, existing.ID, container.StartOptions{}); err != nil {
			return "", fmt.Errorf("starting container: %w", err)
		}
		return ConvergeStarted, nil

	default:
		return ConvergeNone, nil
	}
}
