package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timer is a project stopwatch. While IsRunning, the time since StartTime has
// not yet been folded into ElapsedTime; Elapsed does that arithmetic for callers.
type Timer struct {
	ElapsedTime int64      `json:"elapsedTime"` // seconds
	IsRunning   bool       `json:"isRunning"`
	StartTime   *time.Time `json:"startTime"`
}

// Start returns the timer running from now. Starting a running timer is a no-op.
func (t Timer) Start(now time.Time) Timer {
	if t.IsRunning {
		return t
	}
	start := now.UTC()
	t.IsRunning = true
	t.StartTime = &start
	return t
}

// Pause folds the running span into ElapsedTime and stops the timer.
func (t Timer) Pause(now time.Time) Timer {
	if !t.IsRunning {
		return t
	}
	t.ElapsedTime = t.Elapsed(now)
	t.IsRunning = false
	t.StartTime = nil
	return t
}

func (t Timer) Toggle(now time.Time) Timer {
	if t.IsRunning {
		return t.Pause(now)
	}
	return t.Start(now)
}

func (t Timer) Reset() Timer {
	return Timer{}
}

// Elapsed returns the total seconds on the clock at now.
func (t Timer) Elapsed(now time.Time) int64 {
	if !t.IsRunning || t.StartTime == nil {
		return t.ElapsedTime
	}
	span := int64(now.Sub(*t.StartTime).Seconds())
	if span < 0 {
		span = 0
	}
	return t.ElapsedTime + span
}

// UnmarshalJSON accepts startTime either as an RFC 3339 string or as epoch
// milliseconds, which is what browser-side exports carry.
func (t *Timer) UnmarshalJSON(data []byte) error {
	var in struct {
		ElapsedTime float64         `json:"elapsedTime"`
		IsRunning   bool            `json:"isRunning"`
		StartTime   json.RawMessage `json:"startTime"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Timer{ElapsedTime: int64(in.ElapsedTime), IsRunning: in.IsRunning}

	raw := bytes.TrimSpace(in.StartTime)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var ts time.Time
		if err := json.Unmarshal(raw, &ts); err != nil {
			return fmt.Errorf("timer start time: %w", err)
		}
		t.StartTime = &ts
		return nil
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return fmt.Errorf("timer start time: %w", err)
	}
	ts := time.UnixMilli(int64(ms)).UTC()
	t.StartTime = &ts
	return nil
}
