package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/sw33tLie/phishguard/pkg/engine"
	"github.com/sw33tLie/phishguard/pkg/scoring"
)

// printer shows engine decisions on stdout.
type printer struct{}

func (printer) Block(url, reason string) {
	fmt.Printf("BLOCK %s: %s\n", url, reason)
}

func (printer) Display(url string, a scoring.Assessment) {
	fmt.Printf("%.2f %s [%s]\n", a.Score, url, strings.Join(a.Reasons, "; "))
}

func main() {
	// Usage: go run *.go -url "http://paypal-login.tk/verify"

	urlFlag := flag.String("url", "", "URL to analyze")
	endpointFlag := flag.String("endpoint", "", "Remote classifier endpoint (optional)")

	// Parse the command-line flags
	flag.Parse()

	if *urlFlag == "" {
		fmt.Println("URL is required. Please provide it using -url flag.")
		return
	}

	// Without a Store the state lives in memory only
	opts := engine.Options{Notifier: printer{}}
	if *endpointFlag != "" {
		opts.Remote.Enabled = true
		opts.Remote.Endpoint = *endpointFlag
	}

	e, err := engine.New(opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer e.Close()

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		fmt.Println(err)
		return
	}

	out, err := e.Analyze(ctx, *urlFlag)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("verdict:", out.Verdict)
}
