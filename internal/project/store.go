package project

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StorageKey is the key holding the serialized project collection.
const StorageKey = "ctf_notepad_projects"

// Storage is the durable key/value backend the Store persists into.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// Store owns the project collection and the current selection. Every mutation
// rewrites the whole collection to storage before returning.
//
// Records handed out by the Store are shared with it; change them only through
// Store methods.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	logger   *zap.Logger
	now      func() time.Time
	projects []*Project
	current  *Project
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, which drives ids, timestamps and export dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a Store over storage and loads the saved collection.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		logger:   zap.NewNop(),
		now:      time.Now,
		projects: []*Project{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reload()
	return s
}

// newID derives an id from the clock, moving to the next free millisecond when
// the current one is already taken.
func (s *Store) newID() string {
	ms := s.now().UnixMilli()
	for s.find(strconv.FormatInt(ms, 10)) != nil {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}

// Create appends a new empty project. It does not select it.
func (s *Store) Create(name string) *Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Project{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: s.now().UTC(),
		Timer:     Timer{},
		Zones:     DefaultZones(),
	}
	s.projects = append(s.projects, p)
	s.save()
	s.logger.Info("project created", zap.String("id", p.ID), zap.String("name", name))
	return p
}

// Load fills in any missing canonical zones of p and selects it.
func (s *Store) Load(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p != nil {
		p.Zones = Reconcile(p.Zones)
	}
	s.current = p
}

// Select makes p the current project as-is.
func (s *Store) Select(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
}

func (s *Store) Current() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Projects returns the collection in insertion order.
func (s *Store) Projects() []*Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Find returns the project with the given id, or nil.
func (s *Store) Find(id string) *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id)
}

func (s *Store) find(id string) *Project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Store) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.Name = name
	s.save()
}

// zone returns the named zone of the current project, or nil.
func (s *Store) zone(zoneID string) *Zone {
	if s.current == nil || s.current.Zones == nil {
		return nil
	}
	return s.current.Zones[zoneID]
}

func (s *Store) SetZoneNotes(zoneID, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if z := s.zone(zoneID); z != nil {
		z.Notes = notes
		s.save()
	}
}

func (s *Store) SetZoneChecklist(zoneID string, items []ChecklistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if z := s.zone(zoneID); z != nil {
		z.Checklist = items
		s.save()
	}
}

func (s *Store) SetZoneTimeSpent(zoneID string, seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if z := s.zone(zoneID); z != nil {
		z.TimeSpent = seconds
		s.save()
	}
}

// SetTimer replaces the current project's timer wholesale.
func (s *Store) SetTimer(t Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.Timer = t
	s.save()
}

func (s *Store) AppendChecklistItem(item ChecklistItem, zoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := s.zone(zoneID)
	if z == nil {
		return
	}
	if z.Checklist == nil {
		z.Checklist = []ChecklistItem{}
	}
	z.Checklist = append(z.Checklist, item)
	s.save()
}

// Delete removes the project with the given id and clears the selection if it
// pointed at it. The collection is written back even when nothing matched.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.projects {
		if p.ID != id {
			continue
		}
		s.projects = append(s.projects[:i], s.projects[i+1:]...)
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
		s.logger.Info("project deleted", zap.String("id", id))
		break
	}
	s.save()
}

// Reload replaces the in-memory collection with what storage holds, discarding
// unsaved changes. The selection follows its id into the new collection.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.read()
	if err != nil {
		s.logger.Error("load projects", zap.Error(err))
		loaded = []*Project{}
	}
	s.projects = loaded

	if s.current != nil {
		s.current = s.find(s.current.ID)
	}
}

func (s *Store) read() ([]*Project, error) {
	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []*Project{}, nil
	}

	var decoded []*Project
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}

	projects := make([]*Project, 0, len(decoded))
	for _, p := range decoded {
		if p == nil {
			continue
		}
		if p.Zones == nil {
			p.Zones = map[string]*Zone{}
		}
		p.Zones = Reconcile(p.Zones)
		projects = append(projects, p)
	}
	return projects, nil
}

// save writes the whole collection. Failures are logged and swallowed: memory
// stays ahead of storage until the next successful write.
func (s *Store) save() {
	data, err := json.Marshal(s.projects)
	if err != nil {
		s.logger.Error("save projects", zap.Error(err))
		return
	}
	if err := s.storage.SetItem(StorageKey, string(data)); err != nil {
		s.logger.Error("save projects", zap.Error(err), zap.Int("count", len(s.projects)))
	}
}
