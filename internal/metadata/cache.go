package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache stores compressed extraction results on disk. It lives inside the
// session workspace and is removed with it.
type Cache struct {
	dir string

	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCache creates a cache in dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Cache{dir: dir, encoder: enc, decoder: dec}, nil
}

// Key derives a cache key from a track's path, size and modification time.
func Key(track string) (string, error) {
	st, err := os.Stat(track)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(track))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(st.Size(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(st.ModTime().UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".zst")
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (Result, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return Result{}, false
	}

	c.mu.Lock()
	raw, err := c.decoder.DecodeAll(data, nil)
	c.mu.Unlock()
	if err != nil {
		_ = os.Remove(c.path(key))
		return Result{}, false
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		_ = os.Remove(c.path(key))
		return Result{}, false
	}
	return res, true
}

// Put stores res under key.
func (c *Cache) Put(key string, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	c.mu.Lock()
	data := c.encoder.EncodeAll(raw, nil)
	c.mu.Unlock()

	if err := os.WriteFile(c.path(key), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Close releases the codecs.
func (c *Cache) Close() error {
	c.decoder.Close()
	return c.encoder.Close()
}

// Cached wraps an Extractor so each track is only extracted once per
// session. Failed extractions are not cached.
type Cached struct {
	Next  Extractor
	Cache *Cache
}

// Extract implements Extractor.
func (c *Cached) Extract(ctx context.Context, track, workdir string) (Result, error) {
	key, err := Key(track)
	if err == nil {
		if res, ok := c.Cache.Get(key); ok {
			log.Debug("Metadata cache hit", "track", track)
			return res, nil
		}
	}

	res, extractErr := c.Next.Extract(ctx, track, workdir)
	if extractErr != nil || err != nil {
		return res, extractErr
	}
	if err := c.Cache.Put(key, res); err != nil {
		log.Warn("Unable to cache metadata", "track", track, "error", err)
	}
	return res, nil
}
