package media

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/embrace-blog/embrace/internal/model"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	objects  sync.Map
	maxBytes int64
}

func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{maxBytes: maxBytes}
}

func (m *MemoryStore) Upload(ctx context.Context, data []byte, contentType string) (*model.MediaObject, error) {
	if err := ValidateUpload(data, contentType, m.maxBytes); err != nil {
		return nil, err
	}

	id := model.MediaID(uuid.New().String())
	m.objects.Store(id, &memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	})

	return &model.MediaObject{
		ID:          id,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id model.MediaID) error {
	if _, ok := m.objects.LoadAndDelete(id); !ok {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) PreviewURL(id model.MediaID) string {
	return "/media/" + string(id)
}

// ListIDs mirrors S3Store.ListIDs for the orphan cleanup.
func (m *MemoryStore) ListIDs(ctx context.Context) ([]model.MediaID, error) {
	var ids []model.MediaID
	m.objects.Range(func(key, _ any) bool {
		ids = append(ids, key.(model.MediaID))
		return true
	})
	return ids, nil
}
