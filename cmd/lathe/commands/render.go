package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Render geometry files to STL meshes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			opts.Output, _ = cmd.Flags().GetString("output")
			opts.OutDir, _ = cmd.Flags().GetString("out-dir")
			opts.Text, _ = cmd.Flags().GetBool("text")
			return c.app.WithOutput(cmd.OutOrStdout()).Render(cmd.Context(), args, opts)
		},
	}
	addDefineFlag(cmd)
	cmd.Flags().StringP("output", "o", "", "Mesh output path (single input only)")
	cmd.Flags().String("out-dir", "", "Write meshes to a content-addressed export directory")
	cmd.Flags().Bool("text", false, "Write text STL instead of binary")
	cmd.MarkFlagsMutuallyExclusive("output", "out-dir")
	return cmd
}
