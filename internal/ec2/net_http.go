package ec2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
)

var httpProbeClient = &http.Client{Timeout: 5 * time.Second}

// probeHTTP issues one GET against the URL and returns the status code, or 0
// when the service did not answer at all.
func probeHTTP(ctx context.Context, url string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0
	}
	res, err := httpProbeClient.Do(req)
	if err != nil {
		return 0
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return res.StatusCode
}

// waitHTTP polls the URL until it answers with a non-error status or the
// context expires. This is the signal that the boot script ran to completion
// and the web container is serving.
func waitHTTP(ctx context.Context, url string) error {
	log := clog.FromContext(ctx).With("url", url)
	log.Debug("waiting for HTTP service")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("web service never became reachable at %s: %w", url, ctx.Err())
		case <-ticker.C:
			if code := probeHTTP(ctx, url); code > 0 && code < http.StatusBadRequest {
				log.Debug("HTTP service is answering", "status", code)
				return nil
			}
		}
	}
}
