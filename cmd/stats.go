package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the size of each classification set.",
	Long:  "Prints the size of each classification set and whether the remote classifier is enabled.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.engine.Stats()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SET\tURLS\t")
		fmt.Fprintf(w, "phishing\t%d\t\n", s.Phishing)
		fmt.Fprintf(w, "legitimate\t%d\t\n", s.Legitimate)
		fmt.Fprintf(w, "blocked\t%d\t\n", s.Blocked)
		fmt.Fprintln(w, " \t \t")
		fmt.Fprintf(w, "remote classifier\t%s\t\n", onOff(s.APIEnabled))
		w.Flush()

		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
