package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/phishguard/pkg/engine"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>...",
	Short: "Run the full analysis and record the result",
	Long: `Run the full analysis: known URLs are answered from the database, then the remote
classifier is tried if configured, then the local heuristic. Blocked and legitimate URLs
are remembered.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(os.Stdout)
		for _, u := range args {
			out, err := a.engine.Analyze(cmd.Context(), u)
			if errors.Is(err, engine.ErrRestricted) {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", u, err)
				continue
			}
			if err != nil {
				return err
			}
			if asJSON {
				if err := enc.Encode(out); err != nil {
					return err
				}
				continue
			}
			printOutcome(out)
		}
		return nil
	},
}

func printOutcome(out engine.Outcome) {
	line := fmt.Sprintf("%-5s  %s", strings.ToUpper(string(out.Verdict)), out.URL)
	if out.FromCache {
		line += "  (cached)"
	}
	fmt.Println(line)
	if out.Reason != "" {
		fmt.Printf("    %s\n", out.Reason)
	}
	if a := out.Assessment; a != nil {
		fmt.Printf("    score=%.2f source=%s\n", a.Score, a.Source)
		if out.Reason == "" {
			for _, r := range a.Reasons {
				fmt.Printf("    - %s\n", r)
			}
		}
	}
	if out.RemoteError != "" {
		fmt.Printf("    remote classifier failed (%s), used local heuristic\n", out.RemoteError)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print JSON, one object per line")
}
