package images

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/ctfpad/internal/store"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestLibrary(t *testing.T) (*Library, *time.Time) {
	t.Helper()
	kv, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	lib := NewLibrary(kv, nil)
	lib.now = func() time.Time { return now }
	return lib, &now
}

func TestUniqueName(t *testing.T) {
	now := time.UnixMilli(1710000000000)
	tests := []struct {
		filename string
		want     string
	}{
		{"shot.jpg", "image_1710000000000.jpg"},
		{"archive.tar.gz", "image_1710000000000.gz"},
		{"", "image_1710000000000.png"},
		{"noext", "image_1710000000000.noext"},
	}
	for _, tt := range tests {
		got := UniqueName(tt.filename, now)
		if got != tt.want {
			t.Errorf("UniqueName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestDataURL(t *testing.T) {
	url := DataURL(pngHeader)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)

	payload := strings.TrimPrefix(url, "data:image/png;base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	require.Equal(t, pngHeader, raw)

	require.True(t, strings.HasPrefix(DataURL([]byte("hello")), "data:text/plain;charset=utf-8;base64,"))
}

func TestParseDataURL(t *testing.T) {
	mime, data, err := ParseDataURL(DataURL(pngHeader))
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, pngHeader, data)

	for _, bad := range []string{"image/png;base64,AAAA", "data:image/png;base64", "data:text/plain,hi", "data:image/png;base64,!!"} {
		_, _, err := ParseDataURL(bad)
		require.Error(t, err, bad)
	}
}

func TestSaveGetRemove(t *testing.T) {
	lib, _ := newTestLibrary(t)

	name, err := lib.Save(pngHeader)
	require.NoError(t, err)
	require.Equal(t, "img_1709978400000", name)

	url, ok, err := lib.Get(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, DataURL(pngHeader), url)

	require.NoError(t, lib.Remove(name))
	_, ok, err = lib.Get(name)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPruneRemovesOldest(t *testing.T) {
	lib, now := newTestLibrary(t)

	var names []string
	for i := 0; i < 7; i++ {
		name, err := lib.Save(pngHeader)
		require.NoError(t, err)
		names = append(names, name)
		*now = now.Add(time.Second)
	}

	listed, err := lib.List()
	require.NoError(t, err)
	require.Equal(t, names, listed)

	removed, err := lib.Prune(DefaultPrune)
	require.NoError(t, err)
	require.Equal(t, names[:5], removed)

	left, err := lib.List()
	require.NoError(t, err)
	require.Equal(t, names[5:], left)

	removed, err = lib.Prune(DefaultPrune)
	require.NoError(t, err)
	require.Len(t, removed, 2)
}
