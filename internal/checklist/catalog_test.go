package checklist

import (
	"testing"

	"github.com/sadopc/ctfpad/internal/project"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogTypes(t *testing.T) {
	want := []string{
		"web", "pwn", "crypto", "recon", "osint", "wireless", "mobile", "cloud",
		"social", "physical", "network", "reverse", "forensics", "misc", "ctf",
	}
	require.Equal(t, want, Default().Types())
}

func TestDefaultCatalogEntries(t *testing.T) {
	c := Default()
	for _, key := range c.Types() {
		cl := c.Get(key)
		require.NotNil(t, cl, key)
		require.Equal(t, key, cl.Key)
		require.NotEmpty(t, cl.Name, key)
		require.NotEmpty(t, cl.Sections, key)
		for _, s := range cl.Sections {
			require.NotEmpty(t, s.Text, key)
			require.NotEmpty(t, s.Items, "%s/%s", key, s.Text)
		}
	}
	require.Equal(t, "OSINT", c.Get("osint").Name)
}

func TestGetUnknown(t *testing.T) {
	require.Nil(t, Default().Get("blockchain"))
}

func TestTypesReturnsCopy(t *testing.T) {
	types := Default().Types()
	types[0] = "mutated"
	require.Equal(t, "web", Default().Types()[0])
}

func TestItems(t *testing.T) {
	web := Default().Get("web")

	all := web.Items("")
	require.Len(t, all, web.Len())
	require.Equal(t, project.ChecklistItem{Text: "Directory enumeration (gobuster, dirbuster)"}, all[0])

	auth := web.Items("Authentication")
	require.Len(t, auth, 4)
	require.Equal(t, "Try default credentials", auth[0].Text)

	require.Empty(t, web.Items("No such section"))
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	doc := []byte(`
- key: osint
  name: OSINT Investigation
  sections: []
- key: osint
  name: OSINT
  sections: []
`)
	_, err := Parse(doc)
	require.ErrorContains(t, err, `duplicate key "osint"`)
}

func TestParseRejectsMissingKey(t *testing.T) {
	_, err := Parse([]byte("- name: nameless\n"))
	require.ErrorContains(t, err, "has no key")
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("key: [unterminated"))
	require.Error(t, err)
}
