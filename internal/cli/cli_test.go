package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sadopc/ctfpad/internal/checklist"
	"github.com/sadopc/ctfpad/internal/printer"
	"github.com/sadopc/ctfpad/internal/project"
	"github.com/sadopc/ctfpad/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir string
	db  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("CTFPAD_CONFIG", "")
	t.Setenv("CTFPAD_DB_PATH", "")
	t.Setenv("CTFPAD_LOG_LEVEL", "")
	t.Setenv("CTFPAD_LOG_FILE", "")
	t.Setenv("CTFPAD_EXPORT_DIR", filepath.Join(dir, "exports"))

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	return testEnv{dir: dir, db: filepath.Join(dir, "data", "ctfpad.db")}
}

// run executes one ctfpad invocation against the env's database.
func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root, a := newRootCmd()
	defer a.close()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetArgs(append([]string{"--db", e.db}, args...))

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, args...)
	require.NoError(t, err, "ctfpad %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

func (e testEnv) projects(t *testing.T) []*project.Project {
	t.Helper()
	kv, err := store.New(e.db)
	require.NoError(t, err)
	defer kv.Close()
	return project.NewStore(kv).Projects()
}

func (e testEnv) create(t *testing.T, name string) *project.Project {
	t.Helper()
	e.mustRun(t, "new", name)
	ps := e.projects(t)
	require.NotEmpty(t, ps)
	return ps[len(ps)-1]
}

// ============================================================
// Root
// ============================================================

func TestRootRejectsUnknownFlags(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.run(t, "--goal", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootWritesLogBesideDatabase(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(t, "--verbose", "list")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(e.db), "ctfpad.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"opened"`)
}

func TestReportHints(t *testing.T) {
	var out, errOut bytes.Buffer
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()
	p := printer.New(&out, &errOut)

	report(p, project.ErrNotFound)
	assert.Contains(t, errOut.String(), "ctfpad list")

	errOut.Reset()
	report(p, project.ErrInvalidProject)
	assert.Contains(t, errOut.String(), "name and zones")

	errOut.Reset()
	report(p, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", errOut.String())
}

// ============================================================
// Projects
// ============================================================

func TestListEmpty(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "list")
	assert.Contains(t, out, "No projects yet.")
}

func TestNewAndList(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun(t, "new", "HTB", "Box")
	assert.Contains(t, out, "✓ created HTB Box")

	ps := e.projects(t)
	require.Len(t, ps, 1)
	assert.Equal(t, "HTB Box", ps[0].Name)
	assert.Equal(t, project.ZoneIDs, project.OrderedZoneIDs(ps[0].Zones))

	out = e.mustRun(t, "list")
	assert.Contains(t, out, ps[0].ID)
	assert.Contains(t, out, "HTB Box")
	assert.Contains(t, out, "0/0")
}

func TestListJSON(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "web 100")

	out := e.mustRun(t, "list", "--json")
	var got []project.Project
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
}

func TestShow(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "pwn 200")
	e.mustRun(t, "note", p.ID, "recon", "22/tcp open ssh")
	e.mustRun(t, "check", p.ID, "exploit", "overflow offset")

	out := e.mustRun(t, "show", p.ID)
	assert.Contains(t, out, "pwn 200")
	assert.Contains(t, out, "22/tcp open ssh")
	assert.Contains(t, out, "[ ] overflow offset")

	out = e.mustRun(t, "show", "--json", p.ID)
	assert.Contains(t, out, `"name": "pwn 200"`)
}

func TestShowUnknownProject(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.run(t, "show", "42")
	require.True(t, errors.Is(err, project.ErrNotFound), "got %v", err)
}

func TestRenameAndRemove(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "old")

	out := e.mustRun(t, "rename", p.ID, "new", "name")
	assert.Contains(t, out, "renamed old to new name")
	assert.Equal(t, "new name", e.projects(t)[0].Name)

	e.mustRun(t, "rm", p.ID)
	assert.Empty(t, e.projects(t))

	_, _, err := e.run(t, "rm", p.ID)
	require.True(t, errors.Is(err, project.ErrNotFound))
}

func TestNote(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "box")

	e.mustRun(t, "note", p.ID, "recon", "first")
	e.mustRun(t, "note", "--append", p.ID, "recon", "second")
	assert.Equal(t, "first\nsecond", e.projects(t)[0].Zones["recon"].Notes)

	e.mustRun(t, "note", p.ID, "recon", "replaced")
	assert.Equal(t, "replaced", e.projects(t)[0].Zones["recon"].Notes)

	_, _, err := e.run(t, "note", p.ID, "lateral", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown zone")
}

func TestCheck(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "box")

	e.mustRun(t, "check", p.ID, "privesc", "sudo -l")
	e.mustRun(t, "check", "--done", p.ID, "privesc", "suid binaries")
	e.mustRun(t, "check", "--toggle", "1", p.ID, "privesc")

	got := e.projects(t)[0].Zones["privesc"].Checklist
	assert.Equal(t, []project.ChecklistItem{
		{Text: "sudo -l", Checked: true},
		{Text: "suid binaries", Checked: true},
	}, got)

	_, _, err := e.run(t, "check", "--toggle", "9", p.ID, "privesc")
	require.Error(t, err)

	_, _, err = e.run(t, "check", p.ID, "privesc")
	require.Error(t, err)
}

func TestCheckTemplate(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "box")

	out := e.mustRun(t, "check", "--template", "web", p.ID, "recon")
	web := checklist.Default().Get("web")
	assert.Contains(t, out, web.Name)
	assert.Len(t, e.projects(t)[0].Zones["recon"].Checklist, web.Len())

	_, _, err := e.run(t, "check", "--template", "nope", p.ID, "recon")
	require.Error(t, err)
}

func TestTimer(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "box")

	e.mustRun(t, "timer", p.ID, "start")
	tm := e.projects(t)[0].Timer
	assert.True(t, tm.IsRunning)
	assert.NotNil(t, tm.StartTime)

	out := e.mustRun(t, "timer", p.ID)
	assert.Contains(t, out, "running")

	e.mustRun(t, "timer", p.ID, "pause")
	assert.False(t, e.projects(t)[0].Timer.IsRunning)

	e.mustRun(t, "timer", p.ID, "reset")
	assert.Equal(t, project.Timer{}, e.projects(t)[0].Timer)

	_, _, err := e.run(t, "timer", p.ID, "lap")
	require.Error(t, err)
}

// ============================================================
// Export / import
// ============================================================

func TestExportImport(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "HTB Box")
	e.mustRun(t, "note", p.ID, "flags", "HTB{x}")

	dir := filepath.Join(e.dir, "out")
	out := e.mustRun(t, "export", p.ID, "-o", dir, "--csv")
	assert.Contains(t, out, "exported HTB Box")

	matches, err := filepath.Glob(filepath.Join(dir, "HTB_Box_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	csvs, _ := filepath.Glob(filepath.Join(dir, "HTB_Box_*.csv"))
	require.Len(t, csvs, 1)

	out = e.mustRun(t, "import", matches[0])
	assert.Contains(t, out, "imported HTB Box")

	ps := e.projects(t)
	require.Len(t, ps, 2)
	assert.NotEqual(t, ps[0].ID, ps[1].ID)
	assert.Equal(t, "HTB{x}", ps[1].Zones["flags"].Notes)
}

func TestExportDefaultDir(t *testing.T) {
	e := newTestEnv(t)
	p := e.create(t, "box")

	e.mustRun(t, "export", p.ID)
	matches, _ := filepath.Glob(filepath.Join(e.dir, "exports", "box_*.json"))
	assert.Len(t, matches, 1)
}

func TestImportRejectsInvalid(t *testing.T) {
	e := newTestEnv(t)
	bad := filepath.Join(e.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0o644))

	_, errOut, err := e.run(t, "import", bad)
	require.True(t, errors.Is(err, project.ErrInvalidProject), "got %v", err)
	assert.Contains(t, errOut, "bad.json")
	assert.Empty(t, e.projects(t))

	_, _, err = e.run(t, "import", filepath.Join(e.dir, "missing.json"))
	require.Error(t, err)
}

func TestImportManyKeepsArgumentOrder(t *testing.T) {
	e := newTestEnv(t)
	var paths []string
	for _, name := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		path := filepath.Join(e.dir, name+".json")
		body := `{"name":"` + name + `","zones":{}}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		paths = append(paths, path)
	}
	missing := filepath.Join(e.dir, "missing.json")

	_, _, err := e.run(t, append([]string{"import"}, append(paths, missing)...)...)
	require.Error(t, err)

	ps := e.projects(t)
	require.Len(t, ps, 5)
	for i, name := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		assert.Equal(t, name, ps[i].Name)
	}
}

func TestImportArgumentErrors(t *testing.T) {
	e := newTestEnv(t)

	_, _, err := e.run(t, "import")
	require.Error(t, err)

	_, _, err = e.run(t, "import", "--watch", e.dir, "x.json")
	require.Error(t, err)
}

// ============================================================
// Checklists, mode, images
// ============================================================

func TestChecklists(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun(t, "checklists")
	for _, key := range checklist.Default().Types() {
		assert.Contains(t, out, key)
	}

	web := checklist.Default().Get("web")
	out = e.mustRun(t, "checklists", "web")
	assert.Contains(t, out, web.Name)
	assert.Contains(t, out, web.Sections[0].Items[0])

	_, _, err := e.run(t, "checklists", "nope")
	require.Error(t, err)
}

func TestMode(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, "ctf\n", e.mustRun(t, "mode"))
	assert.Contains(t, e.mustRun(t, "mode", "toggle"), "mode osint")
	assert.Equal(t, "osint\n", e.mustRun(t, "mode"))
	e.mustRun(t, "mode", "ctf")
	assert.Equal(t, "ctf\n", e.mustRun(t, "mode"))

	_, _, err := e.run(t, "mode", "dark")
	require.Error(t, err)
}

func TestImages(t *testing.T) {
	e := newTestEnv(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	src := filepath.Join(e.dir, "shot.png")
	require.NoError(t, os.WriteFile(src, png, 0o644))

	e.mustRun(t, "image", "add", src)
	names := strings.Fields(e.mustRun(t, "image", "list"))
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "img_"))

	out := e.mustRun(t, "image", "get", names[0])
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	dst := filepath.Join(e.dir, "copy.png")
	e.mustRun(t, "image", "get", names[0], "-o", dst)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	shots := filepath.Join(e.dir, "shots")
	require.NoError(t, os.Mkdir(shots, 0o755))
	e.mustRun(t, "image", "get", names[0], "-o", shots)
	written, err := filepath.Glob(filepath.Join(shots, "image_*.png"))
	require.NoError(t, err)
	assert.Len(t, written, 1)

	assert.Contains(t, e.mustRun(t, "image", "prune"), "removed 1 images")
	assert.Empty(t, strings.TrimSpace(e.mustRun(t, "image", "list")))

	_, _, err = e.run(t, "image", "get", names[0])
	require.Error(t, err)
	_, _, err = e.run(t, "image", "prune", "-2")
	require.Error(t, err)
}
