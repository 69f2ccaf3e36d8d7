package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/ctfpad/internal/images"
	"github.com/spf13/cobra"
)

func newImageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage stored screenshots",
	}

	var outPath string
	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Print an image as a data URL, or write it to a file with -o",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, ok, err := a.images.Get(args[0])
			if err != nil {
				return fmt.Errorf("get image: %w", err)
			}
			if !ok {
				return fmt.Errorf("no image named %q", args[0])
			}
			pr := out(cmd)
			if outPath == "" {
				pr.Info("%s\n", url)
				return nil
			}
			mime, data, err := images.ParseDataURL(url)
			if err != nil {
				return err
			}
			if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
				_, sub, _ := strings.Cut(mime, "/")
				outPath = filepath.Join(outPath, images.UniqueName("image."+sub, time.Now()))
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			pr.Success("wrote %s\n", outPath)
			return nil
		},
	}
	get.Flags().StringVarP(&outPath, "output", "o", "", "Write the decoded image to this file, or to a timestamped file inside this directory")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add FILE",
			Short: "Store an image file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				name, err := a.images.Save(data)
				if err != nil {
					return err
				}
				out(cmd).Success("stored %s as %s\n", args[0], name)
				return nil
			},
		},
		get,
		&cobra.Command{
			Use:   "list",
			Short: "List stored images, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				names, err := a.images.List()
				if err != nil {
					return err
				}
				pr := out(cmd)
				for _, n := range names {
					pr.Info("%s\n", n)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm NAME",
			Short: "Remove a stored image",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.images.Remove(args[0]); err != nil {
					return fmt.Errorf("remove image: %w", err)
				}
				out(cmd).Success("removed %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "prune [N]",
			Short: fmt.Sprintf("Remove the N oldest images (default %d)", images.DefaultPrune),
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n := images.DefaultPrune
				if len(args) == 1 {
					v, err := strconv.Atoi(args[0])
					if err != nil || v < 0 {
						return fmt.Errorf("invalid count %q", args[0])
					}
					n = v
				}
				removed, err := a.images.Prune(n)
				if err != nil {
					return err
				}
				out(cmd).Success("removed %d images\n", len(removed))
				return nil
			},
		},
	)
	return cmd
}
