package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/asscii/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		Args:  cobra.NoArgs,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after the config file and flags are applied. The
output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return config.Encode(a.stdout, a.file)
		},
	}

	schema := &cobra.Command{
		Use:         "schema",
		Short:       "Print the JSON Schema of the config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(a.stdout, "%s\n", data)
			if err != nil {
				return fmt.Errorf("writing schema: %w", err)
			}

			return nil
		},
	}

	path := &cobra.Command{
		Use:         "path",
		Short:       "Print the config file and project database paths",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			project := a.file.Project
			if cmd.Flags().Changed(a.cfg.Flags.Project) {
				project = a.cfg.Project
			}

			fmt.Fprintf(a.stdout, "config:  %s\nproject: %s\n", a.cfg.Path, project)

			return nil
		},
	}

	cmd.AddCommand(show, schema, path)

	return cmd
}
