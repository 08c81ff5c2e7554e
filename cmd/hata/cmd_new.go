package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hata-go/hata/internal/scaffold"
)

func newNewCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a bot project or plugin",
	}
	cmd.AddCommand(newProjectCmd(c), newPluginCmd(c))
	return cmd
}

func newProjectCmd(c *cli) *cobra.Command {
	var opts scaffold.ProjectOptions

	cmd := &cobra.Command{
		Use:   "project <name>",
		Short: "Create a new bot project",
		Example: `  hata new project mybot
  hata new project mybot --bot main --bot helper --dir ./bots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			opts.Logger = c.log

			res, err := scaffold.NewProject(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created project %s in %s\n", opts.Name, res.Root)
			for _, f := range res.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			fmt.Fprintf(out, "\nNext steps:\n  cd %s\n  cp .env.example .env\n  go mod tidy && go run .\n", res.Root)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.Bots, "bot", nil, "Bot to generate (repeatable)")
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "Directory to create the project in")
	cmd.Flags().StringVar(&opts.Module, "module", "", "Go module path (defaults to the project name)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Write into an existing directory")
	return cmd
}

func newPluginCmd(c *cli) *cobra.Command {
	var opts scaffold.PluginOptions

	cmd := &cobra.Command{
		Use:   "plugin <name>",
		Short: "Add a plugin to an existing project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			opts.Logger = c.log

			res, err := scaffold.NewPlugin(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "Project directory")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing plugin file")
	return cmd
}
