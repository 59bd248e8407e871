// Package media abstracts the object store that holds featured images.
package media

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/embrace-blog/embrace/internal/config"
	"github.com/embrace-blog/embrace/internal/model"
)

var (
	ErrInvalidType = errors.New("media: content type not allowed")
	ErrTooLarge    = errors.New("media: file too large")
	ErrNotFound    = errors.New("media: object not found")
	ErrUnavailable = errors.New("media: store unavailable")
)

// Store is the boundary to the object-storage backend. Implementations must
// honor context cancellation on the network-bound calls.
type Store interface {
	// Upload stores the file and returns the new media object. The content
	// type is validated against the allow-list before any network call.
	Upload(ctx context.Context, data []byte, contentType string) (*model.MediaObject, error)

	// Delete removes the object. Returns ErrNotFound if it is already gone;
	// callers decide whether that matters.
	Delete(ctx context.Context, id model.MediaID) error

	// PreviewURL returns a URL for displaying the object. There is no error
	// path: a backend failure yields an empty URL and surfaces as a broken
	// link, not an application error.
	PreviewURL(id model.MediaID) string
}

var mediaLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	mediaLogger = l
}

var allowedTypes = map[string]struct{}{
	config.CTypePNG:  {},
	config.CTypeJPG:  {},
	config.CTypeJPEG: {},
	config.CTypeGIF:  {},
}

// ValidateUpload applies the allow-list and size cap shared by all Store
// implementations. maxBytes <= 0 means no cap.
func ValidateUpload(data []byte, contentType string, maxBytes int64) error {
	if _, ok := allowedTypes[contentType]; !ok {
		return ErrInvalidType
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ErrTooLarge
	}
	return nil
}
