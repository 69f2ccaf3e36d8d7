package tui

import (
	"time"

	"github.com/sadopc/ctfpad/internal/project"
)

// flushEvery is how many ticks pass between zone-time writes while running.
const flushEvery = 30

// stopwatchModel drives the current project's timer and credits running time to
// the zone being worked on. Timer state lives on the project itself; only the
// not-yet-written zone seconds are held here.
type stopwatchModel struct {
	projects *project.Store
	now      func() time.Time

	projectID string
	zoneID    string
	accrued   time.Duration
	lastTick  time.Time
	ticks     int

	// Idle detection
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newStopwatchModel(projects *project.Store) stopwatchModel {
	return stopwatchModel{
		projects:     projects,
		now:          time.Now,
		zoneID:       project.ZoneRecon,
		lastActivity: time.Now(),
		idleTimeout:  5 * time.Minute,
	}
}

func (t stopwatchModel) timer() (project.Timer, bool) {
	p := t.projects.Current()
	if p == nil {
		return project.Timer{}, false
	}
	return p.Timer, true
}

func (t stopwatchModel) running() bool {
	tm, ok := t.timer()
	return ok && tm.IsRunning
}

func (t stopwatchModel) elapsed() time.Duration {
	tm, ok := t.timer()
	if !ok {
		return 0
	}
	return time.Duration(tm.Elapsed(t.now())) * time.Second
}

func (t *stopwatchModel) toggle() {
	tm, ok := t.timer()
	if !ok {
		return
	}
	now := t.now()
	t.follow()
	if tm.IsRunning {
		t.accrue(now)
		t.flush()
	}
	t.projects.SetTimer(tm.Toggle(now))
	t.lastTick = now
	t.isIdle = false
	t.lastActivity = now
}

func (t *stopwatchModel) pause() {
	if !t.running() {
		return
	}
	t.toggle()
}

func (t *stopwatchModel) reset() {
	tm, ok := t.timer()
	if !ok {
		return
	}
	t.sync()
	t.projects.SetTimer(tm.Reset())
	t.isIdle = false
}

// setZone credits pending time to the old zone before switching.
func (t *stopwatchModel) setZone(id string) {
	if id == t.zoneID {
		return
	}
	t.sync()
	t.zoneID = id
}

// sync writes the zone time accrued so far.
func (t *stopwatchModel) sync() {
	if t.running() {
		t.accrue(t.now())
	}
	t.flush()
}

// detach flushes pending zone time, for use before the selection changes.
func (t *stopwatchModel) detach() {
	t.sync()
	t.lastTick = time.Time{}
	t.zoneID = project.ZoneRecon
}

func (t *stopwatchModel) tick() {
	if !t.running() {
		t.lastTick = time.Time{}
		return
	}
	now := t.now()
	t.accrue(now)

	t.ticks++
	if t.ticks%flushEvery == 0 {
		t.flush()
	}

	// Idle detection
	if now.Sub(t.lastActivity) > t.idleTimeout && !t.isIdle {
		t.pause()
		t.isIdle = true
	}
}

func (t *stopwatchModel) recordActivity() {
	t.lastActivity = t.now()
	if t.isIdle && !t.running() {
		t.toggle()
	}
	t.isIdle = false
}

func (t *stopwatchModel) accrue(now time.Time) {
	t.follow()
	if !t.lastTick.IsZero() && now.After(t.lastTick) {
		t.accrued += now.Sub(t.lastTick)
	}
	t.lastTick = now
}

// follow drops pending time that belongs to a project no longer selected.
func (t *stopwatchModel) follow() {
	id := ""
	if p := t.projects.Current(); p != nil {
		id = p.ID
	}
	if id != t.projectID {
		t.projectID = id
		t.accrued = 0
		t.lastTick = time.Time{}
	}
}

// flush writes whole accrued seconds to the zone and keeps the remainder.
func (t *stopwatchModel) flush() {
	secs := int64(t.accrued / time.Second)
	if secs == 0 {
		return
	}
	t.accrued -= time.Duration(secs) * time.Second
	p := t.projects.Current()
	if p == nil || p.ID != t.projectID {
		return
	}
	z, ok := p.Zones[t.zoneID]
	if !ok || z == nil {
		return
	}
	t.projects.SetZoneTimeSpent(t.zoneID, z.TimeSpent+secs)
}

// pending is the zone time not yet written, in whole seconds.
func (t stopwatchModel) pending() int64 {
	return int64(t.accrued / time.Second)
}
