package ssh

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

const dialTimeout = 5 * time.Second

var (
	ErrDial        = fmt.Errorf("failed to establish SSH connection")
	ErrSessionInit = fmt.Errorf("failed to begin SSH session")
	ErrExec        = fmt.Errorf("remote command failed")
)

// Connect establishes an SSH connection to 'host' on 'port', authenticating
// as 'user' with the provided signer.
//
// Host keys are not verified: the instance was created moments ago by this
// tool and its address comes from the provider control plane, not user input.
func Connect(host string, port int32, user string, signer ssh.Signer) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         dialTimeout,
	}
	target := net.JoinHostPort(host, strconv.Itoa(int(port)))
	client, err := ssh.Dial("tcp", target, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDial, err)
	}
	return client, nil
}

// Exec runs a single command over the client, returning captured stdout and
// stderr. A non-zero remote exit status is reported as an error wrapping
// ErrExec.
func Exec(client *ssh.Client, cmd string) (string, string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrSessionInit, err)
	}
	defer session.Close()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Run(cmd); err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%w: %q: %w", ErrExec, cmd, err)
	}
	return stdout.String(), stderr.String(), nil
}
