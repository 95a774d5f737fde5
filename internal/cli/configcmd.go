package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patchsmith/patchsmith/pkg/config"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
)

// newConfigCmd creates the "config" command group with get and set
// subcommands over the TOML configuration file.
func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write patchsmith configuration values",
	}

	keysHint := strings.Join(config.Keys, ", ")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Long:  fmt.Sprintf("Get a config value. Valid keys: %s.", keysHint),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "config get", func(ctx context.Context) (*result, error) {
				key := strings.ToLower(args[0])
				cfg, _, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}
				value, err := cfg.Get(key)
				if err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeUsage, err, "unsupported config key: %s", key)
				}
				return &result{
					Message: fmt.Sprintf("config %s retrieved", key),
					Changes: map[string]any{key: value},
					Data:    map[string]any{"key": key, "value": value},
				}, nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long:  fmt.Sprintf("Set a config value. Valid keys: %s.", keysHint),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "config set", func(ctx context.Context) (*result, error) {
				key := strings.ToLower(args[0])
				cfg, path, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}
				if err := cfg.Set(key, args[1]); err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeUsage, err, "cannot set %s", key)
				}
				if err := cfg.Save(path); err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot save configuration")
				}
				value, _ := cfg.Get(key)
				return &result{
					Message: fmt.Sprintf("config %s updated", key),
					Output:  path,
					Changes: map[string]any{key: value},
					Data:    map[string]any{"key": key, "value": value},
				}, nil
			})
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
