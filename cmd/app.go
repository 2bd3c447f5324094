package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/phishguard/internal/utils"
	"github.com/sw33tLie/phishguard/pkg/engine"
	"github.com/sw33tLie/phishguard/pkg/remote"
	"github.com/sw33tLie/phishguard/pkg/scoring"
	"github.com/sw33tLie/phishguard/pkg/similarity"
	"github.com/sw33tLie/phishguard/pkg/storage"
)

// app is an engine bound to its database and lock.
type app struct {
	engine *engine.Engine
	db     *storage.DB
	lock   *utils.DBLock
}

// openApp locks and opens the database, then starts an engine on it.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, err
	}
	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	utils.Log.Debugf("Using database %s", dbPath)

	opts, err := engineOptions(cmd)
	if err != nil {
		db.Close()
		lock.Unlock()
		return nil, err
	}
	opts.Store = db

	e, err := engine.New(opts)
	if err == nil {
		err = e.Start(ctx)
	}
	if err != nil {
		db.Close()
		lock.Unlock()
		return nil, err
	}
	return &app{engine: e, db: db, lock: lock}, nil
}

func (a *app) Close() {
	if err := a.engine.Close(); err != nil {
		utils.Log.Warnf("Closing database: %v", err)
	}
	a.lock.Unlock()
}

// engineOptions builds everything but the store from the configuration.
func engineOptions(cmd *cobra.Command) (engine.Options, error) {
	scorer, err := scorerFromConfig()
	if err != nil {
		return engine.Options{}, err
	}
	seeds, err := seedsFromConfig()
	if err != nil {
		return engine.Options{}, err
	}
	client, err := clientFromFlags(cmd)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Scorer:     scorer,
		Client:     client,
		Thresholds: thresholdsFromConfig(),
		Seeds:      seeds,
		Remote:     remoteFromConfig(),
		Log:        utils.Log,
	}, nil
}

func scorerFromConfig() (*scoring.Scorer, error) {
	switch mode := strings.ToLower(viper.GetString("scoring.mode")); mode {
	case "", "full":
		return scoring.NewScorer(nil, similarity.NewMatcher(viper.GetStringSlice("scoring.protected_domains")...)), nil
	case "lite":
		return scoring.Lite(), nil
	default:
		return nil, fmt.Errorf("unknown scoring mode %q (available: full, lite)", mode)
	}
}

func thresholdsFromConfig() engine.Thresholds {
	return engine.Thresholds{
		Block:       viper.GetFloat64("thresholds.block"),
		RemoteBlock: viper.GetFloat64("thresholds.remote_block"),
		Link:        viper.GetFloat64("thresholds.link"),
		Legitimate:  viper.GetFloat64("thresholds.legitimate"),
	}
}

func remoteFromConfig() remote.Config {
	return remote.Config{
		Enabled:  viper.GetBool("remote.enabled"),
		Endpoint: viper.GetString("remote.endpoint"),
		APIKey:   viper.GetString("remote.api_key"),
		Timeout:  viper.GetDuration("remote.timeout"),
	}
}

// seedsFromConfig returns the built-in seeds plus those of seed.file.
func seedsFromConfig() ([]string, error) {
	seeds := append([]string{}, engine.DefaultSeeds...)
	path := viper.GetString("seed.file")
	if path == "" {
		return seeds, nil
	}
	extra, err := engine.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	utils.Log.Debugf("Loaded %d seed URLs from %s", len(extra), path)
	return append(seeds, extra...), nil
}

func clientFromFlags(cmd *cobra.Command) (*remote.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	if proxy == "" {
		return remote.NewClient(nil, utils.Log), nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)
	return remote.NewClient(&http.Client{Transport: transport}, utils.Log), nil
}

// readURLs returns args, or one URL per line from file ("-" is stdin).
func readURLs(args []string, file string) ([]string, error) {
	if file == "" {
		return args, nil
	}
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	urls, err := engine.ParseSeeds(r)
	if err != nil {
		return nil, err
	}
	return append(args, urls...), nil
}
