package ec2

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"

	"github.com/cloudmelt/webstack/internal/ssh"
)

var (
	ErrKeyPairImport = fmt.Errorf("failed to import key pair")
	ErrNilKeyPairID  = fmt.Errorf("key pair import returned no error, but the key pair ID was nil")
)

// keyPairCreate generates an ED25519 key pair locally, imports the public
// half to EC2 under the stack's key name, and writes the private half next
// to the state file. The key pair is created once and never rotated by this
// tool.
//
// Returns the key name and the private key file path.
func (p *Provisioner) keyPairCreate(ctx context.Context) (string, string, error) {
	log := clog.FromContext(ctx)

	pair, err := ssh.GenerateKeyPair()
	if err != nil {
		return "", "", err
	}

	pubKey, err := pair.MarshalPublic()
	if err != nil {
		return "", "", err
	}

	keyName := p.resourceName("key")
	result, err := p.client.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(keyName),
		PublicKeyMaterial: pubKey,
		TagSpecifications: p.tagSpec(types.ResourceTypeKeyPair, keyName),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrKeyPairImport, err)
	}
	if result.KeyPairId == nil {
		return "", "", ErrNilKeyPairID
	}
	log.Info("imported key pair", "id", *result.KeyPairId, "name", keyName)

	pemData, err := pair.MarshalPrivate(keyName)
	if err != nil {
		return "", "", err
	}
	keyFile := filepath.Join(p.stateDir, keyName+".pem")
	if err := os.WriteFile(keyFile, pemData, 0o600); err != nil {
		return "", "", fmt.Errorf("writing private key file: %w", err)
	}
	log.Info("saved private key", "path", keyFile)

	return keyName, keyFile, nil
}

var ErrKeyPairDelete = fmt.Errorf("failed to delete key pair")

// keyPairDelete removes the imported key pair and the local private key
// file.
func (p *Provisioner) keyPairDelete(ctx context.Context, keyName, keyFile string) error {
	_, err := p.client.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{
		KeyName: aws.String(keyName),
	})
	if err := ignoreGone(err); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyPairDelete, err)
	}

	if keyFile != "" {
		if err := os.Remove(keyFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing private key file: %w", err)
		}
	}
	return nil
}
