package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/ctfpad/internal/project"
)

func sampleProject() *project.Project {
	zones := project.DefaultZones()
	zones[project.ZoneRecon].Notes = "nmap -sV 10.0.0.5"
	zones[project.ZoneRecon].Checklist = []project.ChecklistItem{
		{Text: "port scan", Checked: true},
		{Text: "vhost fuzz"},
	}
	zones[project.ZoneRecon].TimeSpent = 3661
	zones[project.ZoneFlags].Notes = `flag{"quoted", comma}`
	zones["pivot"] = &project.Zone{ID: "pivot", Name: "Pivot", TimeSpent: 60}

	return &project.Project{ID: "1709994600000", Name: "HTB Box", Zones: zones}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestZonesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.csv")

	if err := ZonesToCSV(sampleProject(), path); err != nil {
		t.Fatalf("ZonesToCSV: %v", err)
	}

	records := readCSV(t, path)
	// header + 4 canonical zones + 1 extra
	if len(records) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(records))
	}
	if records[0][0] != "Zone" || records[0][6] != "Time" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	wantOrder := []string{"recon", "exploit", "privesc", "flags", "pivot"}
	for i, id := range wantOrder {
		if records[i+1][0] != id {
			t.Fatalf("row %d zone = %q, want %q", i+1, records[i+1][0], id)
		}
	}

	recon := records[1]
	if recon[1] != "Recon" || recon[2] != "17" || recon[3] != "1" || recon[4] != "2" {
		t.Fatalf("recon row = %v", recon)
	}
	if recon[5] != "3661" || recon[6] != "01:01:01" {
		t.Fatalf("recon time = %v", recon[5:])
	}
}

func TestZonesToCSVNilProject(t *testing.T) {
	err := ZonesToCSV(nil, filepath.Join(t.TempDir(), "x.csv"))
	if err != project.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestZonesToCSVBadPath(t *testing.T) {
	err := ZonesToCSV(sampleProject(), "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Artifacts
// ============================================================

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	a := project.Artifact{Filename: "HTB_Box_2024-03-09.json", Data: []byte(`{"name":"HTB Box"}`)}

	path, err := WriteArtifact(dir, a)
	if err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	if path != filepath.Join(dir, a.Filename) {
		t.Fatalf("path = %q", path)
	}

	data, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(a.Data) {
		t.Fatalf("round trip = %q", data)
	}
}

func TestWriteArtifactStaysInDir(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteArtifact(dir, project.Artifact{Filename: "../escape.json", Data: []byte("{}")})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("artifact written outside dir: %q", path)
	}
}

func TestWriteArtifactEmptyName(t *testing.T) {
	if _, err := WriteArtifact(t.TempDir(), project.Artifact{}); err == nil {
		t.Fatal("expected error for empty filename")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// ============================================================
// FormatDuration
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		got := FormatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
