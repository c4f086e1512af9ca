package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Render geometry files and re-render them on every edit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			opts.OutDir, _ = cmd.Flags().GetString("out-dir")
			opts.Text, _ = cmd.Flags().GetBool("text")
			return c.app.WithOutput(cmd.OutOrStdout()).Watch(cmd.Context(), args, opts)
		},
	}
	addDefineFlag(cmd)
	cmd.Flags().String("out-dir", "", "Write meshes to a content-addressed export directory")
	cmd.Flags().Bool("text", false, "Write text STL instead of binary")
	return cmd
}
