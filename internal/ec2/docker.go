package ec2

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/docker/cli/cli/connhelper"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/moby/docker-image-spec/specs-go/v1"
)

// dockerClient builds a docker API client that reaches the instance's daemon
// over SSH, authenticated with the stack's private key. The remote docker
// socket is never exposed to the network.
func (p *Provisioner) dockerClient(publicIP, keyFile string) (*client.Client, error) {
	host := net.JoinHostPort(publicIP, strconv.Itoa(int(p.cfg.SSHPort)))
	url := fmt.Sprintf("ssh://%s", host)

	helper, err := connhelper.GetConnectionHelperWithSSHOpts(url, []string{
		"-i", keyFile,
		"-l", p.cfg.SSHUser,
		// Fresh instances have host keys we cannot know ahead of time.
		"-o", "StrictHostKeyChecking=no",
	})
	if err != nil {
		return nil, fmt.Errorf("creating SSH connection helper: %w", err)
	}

	cli, err := client.NewClientWithOpts(
		client.WithHTTPClient(&http.Client{
			Transport: &http.Transport{DialContext: helper.Dialer},
		}),
		client.WithHost(url),
		client.WithDialContext(helper.Dialer),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return cli, nil
}

// findContainer looks up the web container by name, running or not.
func findContainer(ctx context.Context, cli *client.Client, containerName string) (*container.Summary, error) {
	list, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", containerName)),
	})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}
	// The name filter matches substrings; insist on an exact name.
	for _, c := range list {
		for _, n := range c.Names {
			if n == "/"+containerName {
				return &c, nil
			}
		}
	}
	return nil, nil
}

// pullImage pulls the image on the remote daemon, authenticated with the
// local keychain. The docker client does not resolve credentials itself.
func pullImage(ctx context.Context, cli *client.Client, ref name.Reference) error {
	a, err := authn.DefaultKeychain.Resolve(ref.Context().Registry)
	if err != nil {
		return fmt.Errorf("resolving keychain for registry %s: %w", ref.Context().Registry, err)
	}
	acfg, err := a.Authorization()
	if err != nil {
		return fmt.Errorf("getting authorization for registry %s: %w", ref.Context().Registry, err)
	}
	authdata, err := json.Marshal(registry.AuthConfig{
		Username: acfg.Username,
		Password: acfg.Password,
		Auth:     acfg.Auth,
	})
	if err != nil {
		return fmt.Errorf("marshaling auth data: %w", err)
	}

	pull, err := cli.ImagePull(ctx, ref.Name(), image.PullOptions{
		RegistryAuth: base64.URLEncoding.EncodeToString(authdata),
	})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", ref, err)
	}
	defer pull.Close()

	// Drain to block until the pull completes.
	if _, err := io.Copy(io.Discard, pull); err != nil {
		return fmt.Errorf("pulling %s: %w", ref, err)
	}
	return nil
}

// createWebContainer creates and starts the web container with the declared
// image, name and port mapping, matching what the boot script would have
// produced.
func (p *Provisioner) createWebContainer(ctx context.Context, cli *client.Client, ref name.Reference) error {
	containerPort, err := nat.NewPort("tcp", strconv.Itoa(int(p.cfg.ContainerPort)))
	if err != nil {
		return fmt.Errorf("building container port: %w", err)
	}

	cfg := &container.Config{
		Image: ref.String(),
		ExposedPorts: nat.PortSet{
			containerPort: struct{}{},
		},
	}
	if p.cfg.HealthCmd != "" {
		cfg.Healthcheck = &v1.HealthcheckConfig{
			Test: []string{"CMD-SHELL", p.cfg.HealthCmd},
		}
	}

	resp, err := cli.ContainerCreate(ctx,
		cfg,
		&container.HostConfig{
			PortBindings: nat.PortMap{
				containerPort: []nat.PortBinding{{
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(int(p.cfg.WebPort)),
				}},
			},
			RestartPolicy: container.RestartPolicy{
				Name: container.RestartPolicyUnlessStopped,
			},
		},
		nil, nil, p.cfg.ContainerName)
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("starting container: %w", err)
	}
	return nil
}
