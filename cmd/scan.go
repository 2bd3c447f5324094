package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/phishguard/internal/utils"
	"github.com/sw33tLie/phishguard/pkg/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [url]...",
	Short: "Analyze many URLs concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		asJSON, _ := cmd.Flags().GetBool("json")

		urls, err := readURLs(args, file)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs given")
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var mu sync.Mutex
		enc := json.NewEncoder(os.Stdout)
		sum, err := scan.Run(cmd.Context(), scan.Config{
			Analyzer:    a.engine,
			Concurrency: concurrency,
			Log:         utils.Log,
			OnResult: func(r scan.Result) {
				mu.Lock()
				defer mu.Unlock()
				switch {
				case r.Err != nil:
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", r.URL, r.Err)
				case asJSON:
					enc.Encode(r.Outcome)
				default:
					printOutcome(r.Outcome)
				}
			},
		}, urls)
		if err != nil {
			return err
		}

		if !asJSON {
			fmt.Printf("\n%d blocked, %d warned, %d passed, %d skipped\n", sum.Blocked, sum.Warned, sum.Passed, sum.Skipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("file", "f", "", "Read URLs from file, one per line (- for stdin)")
	scanCmd.Flags().IntP("concurrency", "c", 5, "Number of concurrent analyses")
	scanCmd.Flags().Bool("json", false, "Print JSON, one object per line")
}
