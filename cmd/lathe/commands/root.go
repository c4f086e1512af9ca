// Package commands implements the CLI commands for the lathe render tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/build"
)

// CLI represents the command line interface for lathe.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "lathe",
		Short:         "Render parametric CAD models to meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to lathe.yaml (default: discovered from the working directory)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRenderCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newFingerprintCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

func renderOptions(cmd *cobra.Command) (app.RenderOptions, error) {
	configPath, _ := cmd.Flags().GetString("config")
	defines, _ := cmd.Flags().GetStringArray("define")
	params, err := app.ParseDefines(defines)
	if err != nil {
		return app.RenderOptions{}, err
	}
	return app.RenderOptions{ConfigPath: configPath, Params: params}, nil
}

func addDefineFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("define", "D", nil, "Set a geometry parameter (name=value, repeatable)")
}
