package client

import (
	"context"
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/joelanford/ngsi-client-go/api"
)

// Version asks the broker for its release. The version document lives at the
// root of the broker host, outside any configured path prefix.
func (c *Client) Version(ctx context.Context) (semver.Version, error) {
	raw, err := c.Request(ctx, &Request{Path: "/version"})
	if err != nil {
		return semver.Version{}, err
	}

	var resp api.VersionResponse
	if err := decodeBody(raw, &resp); err != nil {
		return semver.Version{}, err
	}
	if resp.Orion.Version == "" {
		return semver.Version{}, fmt.Errorf("%w: missing broker version", ErrInvalidResponse)
	}

	v, err := semver.ParseTolerant(resp.Orion.Version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("parse broker version %q: %w", resp.Orion.Version, err)
	}
	return v, nil
}
