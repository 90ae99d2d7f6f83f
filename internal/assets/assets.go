// Package assets abstracts the external object storage that holds
// uploaded product images. Each upload yields a public URL plus an
// opaque asset id used to release the object when it is superseded.
package assets

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrDisabled is returned by the no-op store when an upload is attempted
// without a configured image storage backend.
var ErrDisabled = errors.New("image storage is not configured")

// Store is the image storage contract used by the catalog handlers.
type Store interface {
	// Upload stores the image and returns its public URL and asset id.
	Upload(ctx context.Context, r io.Reader) (url string, assetID string, err error)
	// Release removes a previously uploaded asset. Callers treat release
	// as best-effort: failures are logged, never escalated.
	Release(ctx context.Context, assetID string) error
}

type disabledStore struct{}

// Disabled returns a store that rejects uploads and ignores releases.
// Used when no cloudinary URL is configured.
func Disabled() Store {
	return disabledStore{}
}

func (disabledStore) Upload(ctx context.Context, r io.Reader) (string, string, error) {
	return "", "", ErrDisabled
}

func (disabledStore) Release(ctx context.Context, assetID string) error {
	return nil
}
