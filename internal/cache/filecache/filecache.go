package filecache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// FileCache keeps one file per key under dir. It is the offline backend of the cli,
// where no Redis is around.
type FileCache struct {
	dir string
	now func() time.Time
}

type entry struct {
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func New(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("filecache: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, hex.EncodeToString([]byte(key))+".json")
}

func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read cache file")
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, errors.Wrap(err, "decode cache file")
	}
	if e.ExpiresAt != nil && !c.now().Before(*e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Set пишет во временный файл и переименовывает, чтобы читатель не увидел половину записи.
func (c *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{Value: value}
	if ttl > 0 {
		exp := c.now().Add(ttl)
		e.ExpiresAt = &exp
	}
	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return errors.Wrap(err, "rename cache file")
	}
	return nil
}
