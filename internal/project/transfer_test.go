package project

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"CTF1", "CTF1_2024-03-09.json"},
		{"HTB  Box one", "HTB_Box_one_2024-03-09.json"},
		{" lead\ttab ", "_lead_tab__2024-03-09.json"},
	}
	for _, tt := range tests {
		got := ExportFilename(tt.name, "2024-03-09")
		if got != tt.want {
			t.Errorf("ExportFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExport(t *testing.T) {
	s, _, _ := newTestStore(t)
	p := s.Create("Hack The Box")
	s.Select(p)
	s.SetZoneNotes(ZoneRecon, "<script> & friends")

	art, err := s.Export(p)
	require.NoError(t, err)
	require.Equal(t, "Hack_The_Box_2024-03-09.json", art.Filename)

	text := string(art.Data)
	require.True(t, strings.HasPrefix(text, "{\n  \"id\": "), text)
	require.Contains(t, text, `"notes": "<script> & friends"`)
	require.False(t, strings.HasSuffix(text, "\n"))

	var back map[string]any
	require.NoError(t, json.Unmarshal(art.Data, &back))
	require.Equal(t, p.ID, back["id"])
}

func TestExportNilIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := NewStore(newTestKV(t), WithLogger(zap.New(core)))

	_, err := s.Export(nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, logs.FilterMessage("export project").Len())
}

func TestImportRoundTrip(t *testing.T) {
	s, _, clock := newTestStore(t)
	p := s.Create("CTF1")
	s.Select(p)
	s.SetZoneNotes(ZoneRecon, "22/tcp open ssh")
	s.SetZoneChecklist(ZonePrivesc, []ChecklistItem{{Text: "sudo -l", Checked: true}})
	s.SetZoneTimeSpent(ZonePrivesc, 600)

	art, err := s.Export(p)
	require.NoError(t, err)

	clock.Advance(time.Second)
	got, err := s.Import(art.Data)
	require.NoError(t, err)

	require.NotEqual(t, p.ID, got.ID)
	require.Equal(t, p.Name, got.Name)
	if diff := cmp.Diff(p.Zones, got.Zones); diff != "" {
		t.Fatalf("zones differ after round trip (-exported +imported):\n%s", diff)
	}
	require.Len(t, s.Projects(), 2)
	require.Same(t, p, s.Current(), "import must not change the selection")
}

func TestImportRejectsMalformed(t *testing.T) {
	inputs := []string{
		`{}`,
		`not json`,
		`[]`,
		`null`,
		`{"name":"x"}`,
		`{"zones":{}}`,
		`{"name":"","zones":{}}`,
		`{"name":"x","zones":null}`,
		`{"name":"x","zones":"recon"}`,
	}
	for _, in := range inputs {
		kv := &countingStorage{Storage: newTestKV(t)}
		s := NewStore(kv)

		p, err := s.Import([]byte(in))
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrInvalidProject), "%s: %v", in, err)
		require.Nil(t, p)
		require.Empty(t, s.Projects(), in)
		require.Zero(t, kv.writes, in)
	}
}

func TestImportRejectsNonStringName(t *testing.T) {
	s := NewStore(newTestKV(t))

	for _, in := range []string{`{"name":42,"zones":{}}`, `{"name":{"a":1},"zones":{}}`} {
		_, err := s.Import([]byte(in))
		require.True(t, errors.Is(err, ErrInvalidProject), "%s: %v", in, err)
		require.Contains(t, err.Error(), "name must be a string", in)
	}
	require.Empty(t, s.Projects())
}

func TestImportBrowserExport(t *testing.T) {
	s, _, _ := newTestStore(t)
	in := `{
		"id": 1700000000000,
		"name": "legacy",
		"created_at": "2023-11-14T22:13:20.000Z",
		"timer": {"elapsedTime": 75, "isRunning": true, "startTime": 1700000100000},
		"zones": {
			"recon": {"id":"recon","name":"Recon","notes":"n","checklist":["nmap scan",{"text":"dirb","checked":true}],"timeSpent":5}
		}
	}`

	p, err := s.Import([]byte(in))
	require.NoError(t, err)
	require.Equal(t, "1709994600000", p.ID)
	require.Equal(t, "legacy", p.Name)
	require.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), p.CreatedAt.UTC())

	require.True(t, p.Timer.IsRunning)
	require.EqualValues(t, 75, p.Timer.ElapsedTime)
	require.NotNil(t, p.Timer.StartTime)
	require.Equal(t, int64(1700000100000), p.Timer.StartTime.UnixMilli())

	require.Equal(t, ZoneIDs, zoneIDs(p.Zones))
	require.Equal(t, []ChecklistItem{{Text: "nmap scan"}, {Text: "dirb", Checked: true}}, p.Zones[ZoneRecon].Checklist)
}

func TestImportIsLoggedOnFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := NewStore(newTestKV(t), WithLogger(zap.New(core)))

	_, err := s.Import([]byte("{}"))
	require.Error(t, err)
	require.Equal(t, 1, logs.FilterMessage("import project").Len())
}
