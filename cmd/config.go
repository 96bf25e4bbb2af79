package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	cfgpkg "github.com/KaramelBytes/datasense-cli/internal/config"
	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/KaramelBytes/datasense-cli/internal/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataSense configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := ensureConfig()
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// start from the file, not from flag overrides
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "service_url":
			u, err := url.Parse(val)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid service_url: %s (expected e.g. http://127.0.0.1:8000)", val)
			}
			c.ServiceURL = val
		case "upload_path":
			c.UploadPath = val
		case "query_path":
			c.QueryPath = val
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			c.HTTPTimeoutSec = i
		case "query_policy":
			p, err := console.ParsePolicy(val)
			if err != nil {
				return err
			}
			c.QueryPolicy = string(p)
		case "log_file":
			c.LogFile = val
		case "log_level":
			if _, err := logging.ParseLevel(val); err != nil {
				return err
			}
			c.LogLevel = val
		case "stub_addr":
			c.StubAddr = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
