package bootstrap

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{
		User:          "ubuntu",
		Image:         "nginx:latest",
		ContainerName: "webserver",
		WebPort:       8080,
		ContainerPort: 80,
	}
}

func TestRender(t *testing.T) {
	script, err := Render(defaultParams())
	require.NoError(t, err)

	t.Run("step-order", func(t *testing.T) {
		// The steps must appear in install -> group -> service -> run order.
		steps := []string{
			"apt-get update",
			"apt-get install -y docker.io",
			"usermod -aG docker ubuntu",
			"systemctl enable --now docker",
			"docker run -d --restart unless-stopped -p 8080:80 --name webserver nginx:latest",
		}
		last := -1
		for _, step := range steps {
			idx := strings.Index(script, step)
			require.GreaterOrEqual(t, idx, 0, "missing step %q", step)
			assert.Greater(t, idx, last, "step %q out of order", step)
			last = idx
		}
	})

	t.Run("shebang", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	})

	t.Run("no-unexpanded-actions", func(t *testing.T) {
		assert.NotContains(t, script, "{{")
	})
}

func TestRenderQuotesValues(t *testing.T) {
	p := defaultParams()
	p.ContainerName = "web server; rm -rf /"
	script, err := Render(p)
	require.NoError(t, err)
	// The hostile name must survive as a single shell word.
	assert.Contains(t, script, "--name 'web server; rm -rf /'")
}

func TestRenderRejectsIncompleteParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing-user", func(p *Params) { p.User = "" }},
		{"missing-image", func(p *Params) { p.Image = "" }},
		{"missing-container-name", func(p *Params) { p.ContainerName = "" }},
		{"zero-web-port", func(p *Params) { p.WebPort = 0 }},
		{"negative-container-port", func(p *Params) { p.ContainerPort = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			tc.mutate(&p)
			_, err := Render(p)
			assert.Error(t, err)
		})
	}
}

func TestEncode(t *testing.T) {
	script, err := Render(defaultParams())
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(Encode(script))
	require.NoError(t, err)
	assert.Equal(t, script, string(decoded))
}

func TestFingerprint(t *testing.T) {
	a, err := Render(defaultParams())
	require.NoError(t, err)

	p := defaultParams()
	p.Image = "httpd:latest"
	b, err := Render(p)
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(a), Fingerprint(a))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 64)
}
