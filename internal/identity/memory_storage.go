package identity

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
)

// MemoryStorage lives only as long as the process. Used in tests and
// for runs that should not remember who was using them.
type MemoryStorage struct {
	cache *freecache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	// freecache enforces a 512KB minimum
	return &MemoryStorage{
		cache: freecache.NewCache(512 * 1024),
	}
}

func (ms *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	value, err := ms.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(value), true, nil
}

func (ms *MemoryStorage) Set(_ context.Context, key, value string) error {
	return ms.cache.Set([]byte(key), []byte(value), 0)
}
