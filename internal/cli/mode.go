package cli

import (
	"github.com/sadopc/ctfpad/internal/theme"
	"github.com/spf13/cobra"
)

func newModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [toggle|ctf|osint]",
		Short:     "Show or change the display mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", string(theme.ModeCTF), string(theme.ModeOSINT)},
		RunE: func(cmd *cobra.Command, args []string) error {
			pr := out(cmd)
			if len(args) == 0 {
				pr.Info("%s\n", a.theme.Mode())
				return nil
			}

			if args[0] == "toggle" {
				pr.Success("mode %s\n", a.theme.Toggle())
				return nil
			}
			m, err := theme.ParseMode(args[0])
			if err != nil {
				return err
			}
			if err := a.theme.Set(m); err != nil {
				return err
			}
			pr.Success("mode %s\n", m)
			return nil
		},
	}
}
