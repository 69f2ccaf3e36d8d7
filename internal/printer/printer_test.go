package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestSuccessAddsCheckmark(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Success("created %s\n", "box")
	p.Success("✓ already marked\n")

	assert.Equal(t, "✓ created box\n✓ already marked\n", out.String())
}

func TestWarningGoesToErrorStream(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	p.Warning("zone %q is empty\n", "flags")

	assert.Empty(t, out.String())
	assert.Equal(t, "⚠️  zone \"flags\" is empty\n", errOut.String())
}

func TestErrorFormatsSuggestions(t *testing.T) {
	p, _, errOut := newTestPrinter(t)

	err := p.Error("project not found", "No project has id 42.", "Run 'ctfpad list' to see ids.")
	assert.EqualError(t, err, "project not found")
	assert.Equal(t, "project not found\n\nNo project has id 42.\n\nRun 'ctfpad list' to see ids.\n", errOut.String())

	errOut.Reset()
	p.Error("bad", "", "one", "two")
	assert.Contains(t, errOut.String(), "Either:\n  1. one\n  2. two\n")
}

func TestStepAndInfo(t *testing.T) {
	p, out, _ := newTestPrinter(t)

	p.Step("watching %s\n", "/tmp/drop")
	p.Info("%d imported\n", 2)
	p.Muted("done\n")

	assert.Equal(t, "→ watching /tmp/drop\n2 imported\ndone\n", out.String())
}
