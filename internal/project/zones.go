package project

import "sort"

// Canonical zone identifiers.
const (
	ZoneRecon   = "recon"
	ZoneExploit = "exploit"
	ZonePrivesc = "privesc"
	ZoneFlags   = "flags"
)

// ZoneIDs lists the canonical zones in display order.
var ZoneIDs = []string{ZoneRecon, ZoneExploit, ZonePrivesc, ZoneFlags}

var zoneNames = map[string]string{
	ZoneRecon:   "Recon",
	ZoneExploit: "Exploit",
	ZonePrivesc: "Privesc",
	ZoneFlags:   "Flags",
}

// ZoneName returns the display name of a canonical zone, or the id itself.
func ZoneName(id string) string {
	if n, ok := zoneNames[id]; ok {
		return n
	}
	return id
}

// IsZone reports whether id is one of the canonical zones.
func IsZone(id string) bool {
	_, ok := zoneNames[id]
	return ok
}

func newZone(id string) *Zone {
	return &Zone{
		ID:        id,
		Name:      ZoneName(id),
		Checklist: []ChecklistItem{},
	}
}

// DefaultZones returns a fresh, empty set of the canonical zones.
func DefaultZones() map[string]*Zone {
	zones := make(map[string]*Zone, len(ZoneIDs))
	for _, id := range ZoneIDs {
		zones[id] = newZone(id)
	}
	return zones
}

// Reconcile returns a zone map holding every canonical id. Zones already present
// are kept as they are, down to the pointer; only missing ids get a default.
// Fields inside a present zone are never repaired.
func Reconcile(zones map[string]*Zone) map[string]*Zone {
	out := make(map[string]*Zone, len(zones)+len(ZoneIDs))
	for id, z := range zones {
		if z != nil {
			out[id] = z
		}
	}
	for _, id := range ZoneIDs {
		if _, ok := out[id]; !ok {
			out[id] = newZone(id)
		}
	}
	return out
}

// OrderedZoneIDs lists the ids of zones present in zones: canonical ones in
// display order, then any others sorted by id.
func OrderedZoneIDs(zones map[string]*Zone) []string {
	var ids []string
	for _, id := range ZoneIDs {
		if zones[id] != nil {
			ids = append(ids, id)
		}
	}
	var extra []string
	for id, z := range zones {
		if z != nil && !IsZone(id) {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}
