// ssh is a thin facade over 'x/crypto/ssh' covering the two workflows this
// tool needs: generating and marshaling an ED25519 key pair for the EC2 key
// pair import, and running commands on the provisioned instance.
//
// All errors returned by this package wrap well-known ('errors.Is') sentinel
// errors.
package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"
)

var (
	ErrKeyGen         = fmt.Errorf("failed to generate an ed25519 key pair")
	ErrPubKeyConv     = fmt.Errorf("failed to convert the ed25519 public key to an 'ssh.PublicKey'")
	ErrPubKeyMarshal  = fmt.Errorf("failed to marshal the public key to OpenSSH format")
	ErrPrivKeyMarshal = fmt.Errorf("failed to marshal the private key to OpenSSH format")
	ErrPEMEncode      = fmt.Errorf("failed to PEM-encode the private key")
	ErrPrivKeyParse   = fmt.Errorf("failed to parse the PEM-encoded private key")
)

// KeyPair holds a locally generated ED25519 key pair.
//
// The public half is what gets imported to EC2; the private half is written
// to disk (0600) so later invocations, and the operator, can SSH to the
// instance.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair produces a fresh ED25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrKeyGen, err)
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// MarshalPublic renders the public key in the OpenSSH 'authorized_keys'
// format, which is also the format EC2's ImportKeyPair expects.
func (kp KeyPair) MarshalPublic() ([]byte, error) {
	pub, err := ssh.NewPublicKey(kp.Public)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPubKeyConv, err)
	}
	marshaled := ssh.MarshalAuthorizedKey(pub)
	if marshaled == nil {
		return nil, ErrPubKeyMarshal
	}
	return marshaled, nil
}

// MarshalPrivate renders the private key as a PEM-encoded OpenSSH private
// key, suitable for writing straight to a .pem file.
func (kp KeyPair) MarshalPrivate(comment string) ([]byte, error) {
	block, err := ssh.MarshalPrivateKey(kp.Private, comment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrivKeyMarshal, err)
	}
	encoded := pem.EncodeToMemory(block)
	if encoded == nil {
		return nil, ErrPEMEncode
	}
	return encoded, nil
}

// Signer converts the private key into an 'ssh.Signer' for use in client
// authentication.
func (kp KeyPair) Signer() (ssh.Signer, error) {
	return ssh.NewSignerFromKey(kp.Private)
}

// ParsePrivateKey reads a PEM-encoded OpenSSH private key, as written by
// MarshalPrivate, back into a signer.
func ParsePrivateKey(data []byte) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrivKeyParse, err)
	}
	return signer, nil
}
