// Package imagecache preflights container images for container-mode
// program execution: before the orchestrator ever shells out to
// `docker run`, it ensures the image is present locally, pulling it
// once and remembering the result so the same run never re-checks an
// image it already confirmed.
package imagecache

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Client wraps the Docker API client with a per-run image presence
// cache.
type Client struct {
	cli *client.Client

	mu      sync.Mutex
	checked map[string]bool
}

// New connects to the local Docker daemon using the environment's
// standard DOCKER_HOST/DOCKER_* variables, negotiating the API version
// against the daemon.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("imagecache: connect to docker: %w", err)
	}
	return &Client{cli: cli, checked: make(map[string]bool)}, nil
}

// Close releases the underlying Docker API client connection.
func (c *Client) Close() error {
	if c.cli == nil {
		return nil
	}
	return c.cli.Close()
}

// EnsurePulled guarantees ref is present in the local image store,
// pulling it if necessary. A ref already confirmed present earlier in
// this Client's lifetime is not re-checked.
func (c *Client) EnsurePulled(ctx context.Context, ref string) error {
	c.mu.Lock()
	if c.checked[ref] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	present, err := c.present(ctx, ref)
	if err != nil {
		return err
	}
	if !present {
		if err := c.pull(ctx, ref); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.checked[ref] = true
	c.mu.Unlock()
	return nil
}

func (c *Client) present(ctx context.Context, ref string) (bool, error) {
	_, _, err := c.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("imagecache: inspect %q: %w", ref, err)
}

func (c *Client) pull(ctx context.Context, ref string) error {
	rc, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("imagecache: pull %q: %w", ref, err)
	}
	defer rc.Close()

	// The pull stream is newline-delimited JSON progress events; nado has
	// no progress bar to feed, so it is drained and discarded rather than
	// parsed, matching §1's "out of scope: progress-bar rendering".
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("imagecache: read pull response for %q: %w", ref, err)
	}
	return nil
}
