package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/phishguard/pkg/scoring"
)

// checkCmd scores URLs locally without touching the database.
var checkCmd = &cobra.Command{
	Use:   "check [url]...",
	Short: "Score URLs with the local heuristic only",
	Long:  "Score URLs with the local heuristic only. Nothing is cached or persisted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		showFeatures, _ := cmd.Flags().GetBool("features")
		asJSON, _ := cmd.Flags().GetBool("json")
		lite, _ := cmd.Flags().GetBool("lite")

		urls, err := readURLs(args, file)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs given")
		}

		scorer := scoring.Lite()
		if !lite {
			if scorer, err = scorerFromConfig(); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		for _, u := range urls {
			ev, _ := scorer.Evaluate(u)
			if asJSON {
				if err := enc.Encode(struct {
					Input string `json:"input"`
					scoring.Evaluation
				}{u, ev}); err != nil {
					return err
				}
				continue
			}
			printAssessment(u, ev.Assessment)
			if d := registrableDomain(ev); d != "" {
				fmt.Printf("    domain: %s\n", d)
			}
			if showFeatures && len(ev.Features) > 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				for _, f := range ev.Features {
					mark := " "
					if f.Matched {
						mark = "x"
					}
					fmt.Fprintf(w, "    [%s]\t%s\t%.2f\t\n", mark, f.Name, f.Weight)
				}
				w.Flush()
			}
		}
		return nil
	},
}

func printAssessment(url string, a scoring.Assessment) {
	fmt.Printf("%.2f  %-6s  %s\n", a.Score, strings.ToUpper(scoring.RiskClass(a.Score)), url)
	for _, r := range a.Reasons {
		fmt.Printf("    - %s\n", r)
	}
}

// registrableDomain is the eTLD+1 of the evaluated host, if known.
func registrableDomain(ev scoring.Evaluation) string {
	if ev.URL == nil {
		return ""
	}
	return ev.URL.Domain
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("file", "f", "", "Read URLs from file, one per line (- for stdin)")
	checkCmd.Flags().Bool("features", false, "Print every evaluated feature")
	checkCmd.Flags().Bool("json", false, "Print JSON, one object per line")
	checkCmd.Flags().Bool("lite", false, "Skip the typosquatting check")
}
