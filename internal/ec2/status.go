package ec2

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	gossh "golang.org/x/crypto/ssh"

	"github.com/cloudmelt/webstack/internal/ssh"
	"github.com/cloudmelt/webstack/internal/state"
)

// Status is a read-only health report for an applied stack.
type Status struct {
	// Applied is false when no state file exists.
	Applied   bool
	Resources []state.Resource

	InstanceState types.InstanceStateName
	PublicIP      string
	URL           string

	// Probes, only attempted while the instance is running.
	SSHReachable bool
	DockerActive bool
	// HTTPStatus is the web service's response code, 0 when unreachable.
	HTTPStatus int
}

// Healthy reports whether the stack is fully serving: instance running, web
// service answering with a non-error status, docker active.
func (s *Status) Healthy() bool {
	return s.Applied &&
		s.InstanceState == types.InstanceStateNameRunning &&
		s.HTTPStatus > 0 && s.HTTPStatus < 400 &&
		s.DockerActive
}

// Status inspects the stack without changing anything: the recorded
// resources, the instance's live state, and reachability of the SSH and web
// endpoints. Docker's service state is checked over SSH when the port
// answers.
func (p *Provisioner) Status(ctx context.Context) (*Status, error) {
	log := clog.FromContext(ctx).With("stack", p.cfg.StackName())

	st, err := p.loadState()
	if errors.Is(err, state.ErrNotFound) {
		return &Status{}, nil
	} else if err != nil {
		return nil, err
	}

	status := &Status{
		Applied:   true,
		Resources: st.Resources,
	}

	inst, ok := st.Lookup(state.KindInstance)
	if !ok {
		return status, nil
	}
	stateName, publicIP, err := p.instanceDescribe(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	status.InstanceState = stateName
	status.PublicIP = publicIP
	if stateName != types.InstanceStateNameRunning {
		return status, nil
	}
	status.URL = p.webURL(publicIP)

	status.HTTPStatus = probeHTTP(ctx, status.URL)
	status.SSHReachable = tcpPortOpen(ctx, publicIP, p.cfg.SSHPort)
	if status.SSHReachable {
		active, err := p.dockerServiceActive(publicIP, st.KeyFile)
		if err != nil {
			log.Warn("could not check the docker service over SSH", "error", err)
		}
		status.DockerActive = active
	}

	return status, nil
}

// dockerServiceActive asks systemd over SSH whether the docker daemon is
// running on the instance.
func (p *Provisioner) dockerServiceActive(publicIP, keyFile string) (bool, error) {
	signer, err := p.sshSigner(keyFile)
	if err != nil {
		return false, err
	}
	client, err := ssh.Connect(publicIP, p.cfg.SSHPort, p.cfg.SSHUser, signer)
	if err != nil {
		return false, err
	}
	defer client.Close()

	// is-active exits non-zero for any state but active; the output still
	// tells us what we asked, so the exit error is not a failure.
	stdout, _, err := ssh.Exec(client, "systemctl is-active docker")
	if state := strings.TrimSpace(stdout); state != "" {
		return state == "active", nil
	}
	return false, err
}

func (p *Provisioner) sshSigner(keyFile string) (gossh.Signer, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(data)
}
