package identity

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/2beens/householdnotes/pkg"

	"github.com/BurntSushi/toml"
)

// FileStorage keeps values in a flat TOML file, e.g.
//
//	hx_author = "Wife"
type FileStorage struct {
	path  string
	mutex sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: path,
	}
}

func (fs *FileStorage) Path() string {
	return fs.path
}

func (fs *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	values, err := fs.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (fs *FileStorage) Set(_ context.Context, key, value string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	values, err := fs.read()
	if err != nil {
		return err
	}
	values[key] = value

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("encode %s: %w", fs.path, err)
	}

	return pkg.WriteFileAtomic(fs.path, buf.Bytes(), 0o600)
}

func (fs *FileStorage) read() (map[string]string, error) {
	values := map[string]string{}

	exists, err := pkg.PathExists(fs.path, false)
	if err != nil {
		return nil, err
	}
	if !exists {
		return values, nil
	}

	if _, err := toml.DecodeFile(fs.path, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fs.path, err)
	}
	return values, nil
}
