package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/useradmin/internal/config"
)

// configView is the JSON form of the effective client settings.
type configView struct {
	Path     string `json:"path"`
	BaseURL  string `json:"baseUrl"`
	Timeout  string `json:"timeout"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort"`
	LogLevel string `json:"logLevel"`
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the client configuration",
	}

	cmd.AddCommand(newConfigShowCommand(), newConfigInitCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after file, environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			path, err := config.ResolveClientPath(sess.configPath)
			if err != nil {
				return err
			}

			cfg := sess.cfg
			if sess.json {
				return writeJSON(cmd.OutOrStdout(), configView{
					Path:     path,
					BaseURL:  cfg.BaseURL,
					Timeout:  cfg.Timeout.String(),
					PageSize: cfg.PageSize,
					Sort:     string(cfg.Sort),
					LogLevel: cfg.LogLevel,
				})
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "path:      %s\n", path)
			_, _ = fmt.Fprintf(out, "base_url:  %s\n", cfg.BaseURL)
			_, _ = fmt.Fprintf(out, "timeout:   %s\n", cfg.Timeout)
			_, _ = fmt.Fprintf(out, "page_size: %d\n", cfg.PageSize)
			_, _ = fmt.Fprintf(out, "sort:      %s\n", cfg.Sort)
			_, err = fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			path, err := config.ResolveClientPath(sess.configPath)
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("stat %s: %w", path, err)
				}
			}

			if err := config.WriteClient(path, sess.cfg); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
