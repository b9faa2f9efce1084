package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKey is a setting that may be stored in ~/.vibe-bed.yaml.
type configKey struct {
	name  string
	help  string
	parse func(string) (any, error)
}

var configKeys = []configKey{
	{"db", "DuckDB database used by load and query", parseString},
	{"lenient", "skip malformed BED lines instead of stopping at the first", parseSwitch},
	{"workers", "decode workers, 0 for one per CPU", parseWorkers},
	{"verbose", "debug logging on stderr", parseSwitch},
	{"log-file", "also write rotated JSON logs to this file", parseString},
}

func lookupConfigKey(name string) (configKey, error) {
	for _, k := range configKeys {
		if k.name == name {
			return k, nil
		}
	}
	return configKey{}, &usageError{fmt.Errorf("unknown config key %q (known keys: %s)", name, configKeyNames())}
}

func configKeyNames() string {
	names := make([]string, len(configKeys))
	for i, k := range configKeys {
		names[i] = k.name
	}
	return strings.Join(names, ", ")
}

func parseString(v string) (any, error) { return v, nil }

func parseSwitch(v string) (any, error) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return nil, fmt.Errorf("expected true or false, got %q", v)
}

func parseWorkers(v string) (any, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("expected a worker count >= 0, got %q", v)
	}
	return n, nil
}

func newConfigCmd() *cobra.Command {
	var keyHelp strings.Builder
	for _, k := range configKeys {
		fmt.Fprintf(&keyHelp, "\n  %-9s %s", k.name, k.help)
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-bed configuration",
		Long: `Show, get, or set the defaults used by decode, load and query. Config is
stored in ~/.vibe-bed.yaml and VIBE_BED_<KEY> environment variables (dashes
become underscores) override it. Keys:` + keyHelp.String(),
		Example: `  vibe-bed config                          # show all settings
  vibe-bed config set db ~/beds.duckdb     # default database for load and query
  vibe-bed config set lenient true         # skip malformed lines
  vibe-bed config get workers              # get a value`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// runConfigShow prints the effective value of every key as YAML.
func runConfigShow(out io.Writer) error {
	settings := make(map[string]any, len(configKeys))
	for _, k := range configKeys {
		settings[k.name] = viper.Get(k.name)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# No config file. Defaults shown; set values with: vibe-bed config set <key> <value>")
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigSet(out io.Writer, name, value string) error {
	key, err := lookupConfigKey(name)
	if err != nil {
		return err
	}
	v, err := key.parse(value)
	if err != nil {
		return &usageError{fmt.Errorf("config %s: %w", name, err)}
	}
	viper.Set(name, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-bed.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %v in %s\n", name, v, cfgFile)
	return nil
}

func runConfigGet(out io.Writer, name string) error {
	if _, err := lookupConfigKey(name); err != nil {
		return err
	}
	fmt.Fprintln(out, viper.Get(name))
	return nil
}
