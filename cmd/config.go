package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/phishguard/pkg/remote"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the remote classifier configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the remote classifier configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		showKey, _ := cmd.Flags().GetBool("show-key")

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.engine.Config()
		if !showKey {
			cfg = cfg.Redacted()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the remote classifier configuration",
	Long:  "Update the remote classifier configuration. Only the given flags are changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Config().Apply(patch).Validate(); err != nil {
			return err
		}
		cfg, err := a.engine.UpdateConfig(cmd.Context(), patch)
		if err != nil {
			return err
		}
		fmt.Printf("remote classifier: enabled=%t endpoint=%q timeout=%s\n", cfg.Enabled, cfg.Endpoint, cfg.Timeout)
		if cfg.Enabled && !cfg.Active() {
			fmt.Println("warning: no endpoint configured, the remote classifier will not be used")
		}
		return nil
	},
}

func patchFromFlags(cmd *cobra.Command) (remote.ConfigPatch, error) {
	var p remote.ConfigPatch
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		v, _ := flags.GetBool("enabled")
		p.Enabled = &v
	}
	if flags.Changed("endpoint") {
		v, _ := flags.GetString("endpoint")
		p.Endpoint = &v
	}
	if flags.Changed("api-key") {
		v, _ := flags.GetString("api-key")
		p.APIKey = &v
	}
	if flags.Changed("timeout") {
		v, _ := flags.GetDuration("timeout")
		if v <= 0 {
			return p, fmt.Errorf("timeout must be positive")
		}
		ms := v.Milliseconds()
		p.Timeout = &ms
	}
	if p == (remote.ConfigPatch{}) {
		return p, fmt.Errorf("nothing to change, see --help")
	}
	return p, nil
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a probe request to the remote classifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		res, err := a.engine.TestConnection(cmd.Context())
		if err != nil {
			return fmt.Errorf("connection test failed (%s): %w", remote.Kind(err), err)
		}
		fmt.Printf("ok in %s: isPhishing=%t riskScore=%.2f reasons=%v\n", time.Since(start).Round(time.Millisecond), res.IsPhishing, res.RiskScore, res.Reasons)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configTestCmd)

	configGetCmd.Flags().Bool("show-key", false, "Print the API key instead of masking it")

	configSetCmd.Flags().Bool("enabled", false, "Enable or disable the remote classifier")
	configSetCmd.Flags().String("endpoint", "", "Remote classifier URL")
	configSetCmd.Flags().String("api-key", "", "Bearer token sent to the remote classifier")
	configSetCmd.Flags().Duration("timeout", remote.DefaultTimeout, "Remote request timeout")
}
