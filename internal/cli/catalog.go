package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChecklistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checklists [KEY]",
		Short: "Browse the built-in checklists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr := out(cmd)

			if len(args) == 0 {
				t := newTable("KEY", "NAME", "SECTIONS", "ITEMS")
				for _, key := range a.catalog.Types() {
					cl := a.catalog.Get(key)
					t.Row(cl.Key, cl.Name, fmt.Sprintf("%d", len(cl.Sections)), fmt.Sprintf("%d", cl.Len()))
				}
				pr.Info("%s\n", t.String())
				return nil
			}

			cl := a.catalog.Get(args[0])
			if cl == nil {
				return fmt.Errorf("unknown checklist %q", args[0])
			}
			pr.Info("%s\n", cl.Name)
			for _, sec := range cl.Sections {
				pr.Info("\n")
				pr.Step("%s\n", sec.Text)
				for _, item := range sec.Items {
					pr.Info("  - %s\n", item)
				}
			}
			return nil
		},
	}
}
