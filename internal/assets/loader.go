package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"tilemap/internal/log"
)

const (
	embeddedPrefix = "embedded:"
	userAgent      = "Tilemap/1.0 (atlas loader)"

	memoryBudget = 64 << 20
)

var ErrNotFound = errors.New("assets: not found")

// Loader resolves atlas sources: embedded files, local paths and http(s)
// URLs. Downloads are cached on disk by URL. A Loader is safe for concurrent
// use and is meant to live as long as the process.
type Loader struct {
	embedded fs.FS
	cacheDir string
	client   *http.Client
	mem      *ristretto.Cache[string, []byte]
	group    singleflight.Group
}

// NewLoader creates a loader. cacheDir may be empty to disable the disk cache.
func NewLoader(embedded fs.FS, cacheDir string) (*Loader, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	mem, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1000,
		MaxCost:     memoryBudget,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &Loader{
		embedded: embedded,
		cacheDir: cacheDir,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		mem: mem,
	}, nil
}

// Close drops the memory cache
func (l *Loader) Close() {
	l.mem.Close()
}

// Load returns the raw bytes of source and a name usable for format detection.
// Sources already read by this loader are served from memory, and concurrent
// loads of the same source share one read.
func (l *Loader) Load(ctx context.Context, source string) ([]byte, string, error) {
	name := sourceName(source)
	if data, ok := l.mem.Get(source); ok {
		log.Debugf("atlas %s served from memory", source)
		return data, name, nil
	}

	ch := l.group.DoChan(source, func() (any, error) {
		data, err := l.load(ctx, source)
		if err != nil {
			return nil, err
		}
		l.mem.Set(source, data, int64(len(data)))
		l.mem.Wait()
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, name, res.Err
		}
		if res.Shared {
			log.Debugf("atlas %s shared with a concurrent load", source)
		}
		return res.Val.([]byte), name, nil
	case <-ctx.Done():
		return nil, name, ctx.Err()
	}
}

func sourceName(source string) string {
	switch {
	case strings.HasPrefix(source, embeddedPrefix):
		return strings.TrimPrefix(source, embeddedPrefix)
	case isURL(source):
		return path.Base(source)
	}
	return source
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, embeddedPrefix):
		if l.embedded == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
		}
		data, err := fs.ReadFile(l.embedded, sourceName(source))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, source, err)
		}
		return data, nil

	case isURL(source):
		return l.fetch(ctx, source)

	default:
		data, err := os.ReadFile(source)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read atlas: %w", err)
		}
		return data, nil
	}
}

// cachePath returns the file path for a cached download
func (l *Loader) cachePath(url string) string {
	sum := sha1.Sum([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:])+path.Ext(url))
}

// IsCached reports whether url has already been downloaded
func (l *Loader) IsCached(url string) bool {
	if l.cacheDir == "" {
		return false
	}
	_, err := os.Stat(l.cachePath(url))
	return err == nil
}

// fetch downloads url and caches it
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	cached := l.cacheDir != ""
	p := l.cachePath(url)

	if cached {
		if data, err := os.ReadFile(p); err == nil {
			log.Debugf("atlas %s served from cache", url)
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch atlas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("atlas server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read atlas data: %w", err)
	}

	if cached {
		if err := os.WriteFile(p, data, 0644); err != nil {
			// We still have the data
			log.Warnf("failed to cache atlas: %v", err)
		}
	}
	log.WithField("bytes", len(data)).Infof("downloaded atlas %s", url)

	return data, nil
}
