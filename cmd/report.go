package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manually classify URLs",
}

var reportPhishingCmd = &cobra.Command{
	Use:   "phishing <url>...",
	Short: "Mark URLs as known phishing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, u := range args {
			if err := a.engine.ReportPhishing(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Printf("reported as phishing: %s\n", u)
		}
		return nil
	},
}

var reportFalsePositiveCmd = &cobra.Command{
	Use:   "false-positive <url>...",
	Short: "Mark URLs as legitimate",
	Long:  "Mark URLs as legitimate. A URL that is also known as phishing stays blocked.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, u := range args {
			if err := a.engine.ReportFalsePositive(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Printf("reported as legitimate: %s (now %s)\n", u, a.engine.Label(u))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPhishingCmd)
	reportCmd.AddCommand(reportFalsePositiveCmd)
}
