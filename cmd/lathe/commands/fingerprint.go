package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newFingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint FILE",
		Short: "Print the render cache fingerprint of a geometry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			fp, err := c.app.Fingerprint(args[0], opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fp.String())
			return err
		},
	}
	addDefineFlag(cmd)
	return cmd
}
