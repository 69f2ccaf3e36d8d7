// Package images stores pasted screenshots as data URLs in the key/value store.
package images

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	keyPrefix = "image_"

	// DefaultPrune is how many images a prune removes when not told otherwise.
	DefaultPrune = 5
)

type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys(prefix string) ([]string, error)
}

// UniqueName builds a timestamped file name that keeps the source extension.
func UniqueName(filename string, now time.Time) string {
	ext := "png"
	if filename != "" {
		ext = filename[strings.LastIndex(filename, ".")+1:]
	}
	return fmt.Sprintf("image_%d.%s", now.UnixMilli(), ext)
}

// DataURL encodes data as a base64 data URL, sniffing its MIME type.
func DataURL(data []byte) string {
	mime := strings.ReplaceAll(http.DetectContentType(data), "; ", ";")
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its MIME type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("parse data url: missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("parse data url: missing payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("parse data url: not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("parse data url: %w", err)
	}
	return mime, data, nil
}

// Library reads and writes images in storage.
type Library struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewLibrary(storage Storage, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{storage: storage, logger: logger, now: time.Now}
}

// Save stores data and returns the name to reference it by.
func (l *Library) Save(data []byte) (string, error) {
	name := fmt.Sprintf("img_%d", l.now().UnixMilli())
	if err := l.storage.SetItem(keyPrefix+name, DataURL(data)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	l.logger.Debug("image saved", zap.String("name", name), zap.Int("bytes", len(data)))
	return name, nil
}

// Get returns the data URL stored under name.
func (l *Library) Get(name string) (string, bool, error) {
	return l.storage.GetItem(keyPrefix + name)
}

func (l *Library) Remove(name string) error {
	return l.storage.RemoveItem(keyPrefix + name)
}

// List returns the stored image names, oldest first.
func (l *Library) List() ([]string, error) {
	keys, err := l.storage.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return stamp(keys[i]) < stamp(keys[j])
	})
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, keyPrefix)
	}
	return names, nil
}

// Prune removes the n oldest images and returns their names.
func (l *Library) Prune(n int) ([]string, error) {
	names, err := l.List()
	if err != nil {
		return nil, err
	}
	if n > len(names) {
		n = len(names)
	}
	removed := names[:n]
	for _, name := range removed {
		if err := l.Remove(name); err != nil {
			return nil, fmt.Errorf("prune images: %w", err)
		}
	}
	l.logger.Info("images pruned", zap.Int("count", len(removed)))
	return removed, nil
}

// stamp extracts the millisecond timestamp ending a key; keys without one sort first.
func stamp(key string) int64 {
	v, err := strconv.ParseInt(key[strings.LastIndex(key, "_")+1:], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
