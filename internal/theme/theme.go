// Package theme keeps the global display mode, a two-valued preference stored
// next to the project data.
package theme

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// StorageKey is the key holding the saved mode.
const StorageKey = "app_mode"

type Mode string

const (
	ModeCTF   Mode = "ctf"
	ModeOSINT Mode = "osint"
)

func (m Mode) Valid() bool {
	return m == ModeCTF || m == ModeOSINT
}

// ParseMode validates a user supplied mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeCTF, ModeOSINT)
	}
	return m, nil
}

type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// Theme holds the current mode and notifies subscribers synchronously on change.
type Theme struct {
	mu      sync.Mutex
	storage Storage
	logger  *zap.Logger
	mode    Mode
	nextID  int
	subs    map[int]func(Mode)
}

// New loads the saved mode, falling back to ctf.
func New(storage Storage, logger *zap.Logger) *Theme {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Theme{
		storage: storage,
		logger:  logger,
		mode:    ModeCTF,
		subs:    make(map[int]func(Mode)),
	}

	saved, ok, err := storage.GetItem(StorageKey)
	switch {
	case err != nil:
		logger.Error("load mode", zap.Error(err))
	case ok && Mode(saved).Valid():
		t.mode = Mode(saved)
	case ok:
		logger.Warn("ignoring unknown saved mode", zap.String("mode", saved))
	}
	return t
}

func (t *Theme) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Set stores m and notifies subscribers. Setting the current mode is a no-op.
func (t *Theme) Set(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("set mode: unknown mode %q", m)
	}

	t.mu.Lock()
	if t.mode == m {
		t.mu.Unlock()
		return nil
	}
	t.mode = m
	if err := t.storage.SetItem(StorageKey, string(m)); err != nil {
		t.logger.Error("save mode", zap.Error(err))
	}
	subs := t.snapshot()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(m)
	}
	return nil
}

// Toggle flips between ctf and osint and returns the new mode.
func (t *Theme) Toggle() Mode {
	next := ModeOSINT
	if t.Mode() == ModeOSINT {
		next = ModeCTF
	}
	_ = t.Set(next)
	return next
}

// Subscribe registers fn for mode changes and calls it once with the current
// mode. The returned func removes the subscription.
func (t *Theme) Subscribe(fn func(Mode)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	current := t.mode
	t.mu.Unlock()

	fn(current)

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Theme) snapshot() []func(Mode) {
	out := make([]func(Mode), 0, len(t.subs))
	for i := 0; i < t.nextID; i++ {
		if fn, ok := t.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
