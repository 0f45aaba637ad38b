// Package fetcher downloads remote artifacts to local storage, skipping
// files that already exist.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/ralt/repofetch/internal/models"
	"github.com/ralt/repofetch/internal/utils"
	"github.com/sirupsen/logrus"
)

// Fetcher ensures a remote artifact exists at a local path.
type Fetcher interface {
	EnsureLocal(ctx context.Context, remote, local string) error
}

// HTTPFetcher fetches artifacts over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher using the given client, or
// http.DefaultClient when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// EnsureLocal downloads remote to local unless local already exists; an
// existing file means no network call at all. A network or HTTP failure
// is a Transport error and nothing is written.
func (f *HTTPFetcher) EnsureLocal(ctx context.Context, remote, local string) error {
	if _, err := os.Stat(local); err == nil {
		logrus.Debugf("Already present: %s", local)
		return nil
	}

	logrus.Infof("%s -> %s", remote, local)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return &models.MirrorError{Type: models.ErrTransport, Subject: remote, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &models.MirrorError{Type: models.ErrTransport, Subject: remote, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &models.MirrorError{
			Type:    models.ErrTransport,
			Subject: remote,
			Err:     fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.MirrorError{Type: models.ErrTransport, Subject: remote, Err: err}
	}

	return utils.WriteFile(local, data, 0644)
}
