// bootstrap renders the user-data shell script attached to the instance at
// launch. The script mirrors the standard docker-on-debian install steps,
// then starts a single detached container publishing the web port.
package bootstrap

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"text/template"

	"github.com/kballard/go-shellquote"
)

//go:embed templates
var templateFS embed.FS

const scriptTemplate = "templates/userdata.sh.tmpl"

// Params are the values interpolated into the boot script. All of them end
// up on a shell command line, so Render quotes each one.
type Params struct {
	// User is the default unprivileged OS user added to the docker group.
	User string
	// Image is the public registry image to run.
	Image string
	// ContainerName names the launched container so the converge path can
	// find it later.
	ContainerName string
	// WebPort is the host port; ContainerPort is the port the image serves
	// on.
	WebPort       int32
	ContainerPort int32
}

type templateData struct {
	User          string
	Image         string
	ContainerName string
	PortMap       string
}

// Render produces the boot script for the given parameters.
func Render(p Params) (string, error) {
	if p.User == "" || p.Image == "" || p.ContainerName == "" {
		return "", fmt.Errorf("bootstrap params missing user, image or container name")
	}
	if p.WebPort <= 0 || p.ContainerPort <= 0 {
		return "", fmt.Errorf("bootstrap params have non-positive ports")
	}

	tmpl, err := template.ParseFS(templateFS, scriptTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing boot script template: %w", err)
	}

	data := templateData{
		User:          shellquote.Join(p.User),
		Image:         shellquote.Join(p.Image),
		ContainerName: shellquote.Join(p.ContainerName),
		PortMap:       fmt.Sprintf("%d:%d", p.WebPort, p.ContainerPort),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "userdata.sh.tmpl", data); err != nil {
		return "", fmt.Errorf("rendering boot script: %w", err)
	}
	return buf.String(), nil
}

// Encode base64-encodes a rendered script the way the EC2 RunInstances
// UserData field requires.
func Encode(script string) string {
	return base64.StdEncoding.EncodeToString([]byte(script))
}

// Fingerprint returns a stable content hash of the rendered script. The hash
// is recorded in state; a later apply with a differing fingerprint replaces
// the instance so the new script runs on first boot.
func Fingerprint(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}
