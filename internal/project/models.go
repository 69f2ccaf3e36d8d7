package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Project is one competition notebook: a named timer plus the four work zones.
type Project struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Timer     Timer            `json:"timer"`
	Zones     map[string]*Zone `json:"zones"`
}

// Zone is a fixed work area inside a project.
type Zone struct {
	ID        string
	Name      string
	Notes     string
	Checklist []ChecklistItem // nil means the record carried no checklist field
	TimeSpent int64           // seconds
}

type zoneJSON struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Notes     string           `json:"notes"`
	Checklist *[]ChecklistItem `json:"checklist,omitempty"`
	TimeSpent int64            `json:"timeSpent"`
}

// MarshalJSON omits the checklist field only when the zone never had one, so a
// partially saved zone round-trips unchanged.
func (z Zone) MarshalJSON() ([]byte, error) {
	out := zoneJSON{ID: z.ID, Name: z.Name, Notes: z.Notes, TimeSpent: z.TimeSpent}
	if z.Checklist != nil {
		cl := z.Checklist
		out.Checklist = &cl
	}
	return json.Marshal(out)
}

func (z *Zone) UnmarshalJSON(data []byte) error {
	var in zoneJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*z = Zone{ID: in.ID, Name: in.Name, Notes: in.Notes, TimeSpent: in.TimeSpent}
	if in.Checklist != nil {
		z.Checklist = *in.Checklist
		if z.Checklist == nil {
			z.Checklist = []ChecklistItem{}
		}
	}
	return nil
}

// ChecklistItem is one line of a zone checklist.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// UnmarshalJSON also accepts a bare string, the short form used by hand-written
// project files.
func (c *ChecklistItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = ChecklistItem{Text: text}
		return nil
	}
	type plain ChecklistItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("checklist item: %w", err)
	}
	*c = ChecklistItem(p)
	return nil
}

// Artifact is an exported project file.
type Artifact struct {
	Filename string
	Data     []byte
}
