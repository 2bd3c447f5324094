package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/phishguard/pkg/engine"
	"github.com/sw33tLie/phishguard/pkg/remote"
	"github.com/sw33tLie/phishguard/pkg/scoring"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestDefaultsMatchEngine(t *testing.T) {
	resetConfig(t)

	assert.Equal(t, engine.DefaultThresholds(), thresholdsFromConfig())
	assert.Equal(t, "127.0.0.1:8080", viper.GetString("server.listen"))
	assert.Equal(t, remote.Config{Timeout: remote.DefaultTimeout}, remoteFromConfig())

	seeds, err := seedsFromConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultSeeds, seeds)
}

func TestScorerFromConfig(t *testing.T) {
	resetConfig(t)

	s, err := scorerFromConfig()
	require.NoError(t, err)
	assert.Contains(t, s.Score("https://go0gle.com").Reasons, "Possible typosquatting of google.com")

	viper.Set("scoring.protected_domains", []string{"example.org"})
	s, err = scorerFromConfig()
	require.NoError(t, err)
	assert.NotContains(t, s.Score("https://go0gle.com").Reasons, "Possible typosquatting of google.com")
	assert.Contains(t, s.Score("https://exampel.org").Reasons, "Possible typosquatting of example.org")

	viper.Set("scoring.mode", "lite")
	s, err = scorerFromConfig()
	require.NoError(t, err)
	assert.Empty(t, s.Score("https://go0gle.com").Reasons)

	viper.Set("scoring.mode", "turbo")
	_, err = scorerFromConfig()
	assert.Error(t, err)
}

func TestRemoteFromConfig(t *testing.T) {
	resetConfig(t)
	viper.Set("remote.enabled", true)
	viper.Set("remote.endpoint", "https://api.example.com")
	viper.Set("remote.api_key", "k")
	viper.Set("remote.timeout", "1500ms")

	assert.Equal(t, remote.Config{
		Enabled:  true,
		Endpoint: "https://api.example.com",
		APIKey:   "k",
		Timeout:  1500 * time.Millisecond,
	}, remoteFromConfig())
}

func TestSeedsFromFile(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("# feed\nhttp://extra.tk\n"), 0o644))
	viper.Set("seed.file", path)

	seeds, err := seedsFromConfig()
	require.NoError(t, err)
	assert.Len(t, seeds, len(engine.DefaultSeeds)+1)
	assert.Equal(t, "http://extra.tk", seeds[len(seeds)-1])
	assert.Len(t, engine.DefaultSeeds, 10, "defaults are not modified")

	viper.Set("seed.file", filepath.Join(t.TempDir(), "missing"))
	_, err = seedsFromConfig()
	assert.Error(t, err)
}

func TestPatchFromFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "set"}
		c.Flags().Bool("enabled", false, "")
		c.Flags().String("endpoint", "", "")
		c.Flags().String("api-key", "", "")
		c.Flags().Duration("timeout", remote.DefaultTimeout, "")
		return c
	}

	c := newCmd()
	require.NoError(t, c.Flags().Parse([]string{"--enabled", "--timeout", "2s"}))
	p, err := patchFromFlags(c)
	require.NoError(t, err)
	require.NotNil(t, p.Enabled)
	assert.True(t, *p.Enabled)
	require.NotNil(t, p.Timeout)
	assert.EqualValues(t, 2000, *p.Timeout)
	assert.Nil(t, p.Endpoint)
	assert.Nil(t, p.APIKey)

	_, err = patchFromFlags(newCmd())
	assert.Error(t, err, "no flags given")

	c = newCmd()
	require.NoError(t, c.Flags().Parse([]string{"--timeout", "0s"}))
	_, err = patchFromFlags(c)
	assert.Error(t, err)
}

func TestReadURLs(t *testing.T) {
	urls, err := readURLs([]string{"https://a.example"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example"}, urls)

	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://b.example\n\nhttps://c.example\n"), 0o644))
	urls, err = readURLs([]string{"https://a.example"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, urls)
}

func TestRegistrableDomain(t *testing.T) {
	tests := map[string]string{
		"https://accounts.google.co.uk/login": "google.co.uk",
		"http://login.paypal-account.tk/":     "paypal-account.tk",
		"http://192.168.1.10/admin":           "",
		"not a url":                           "",
	}
	for in, want := range tests {
		ev, _ := scoring.Lite().Evaluate(in)
		assert.Equal(t, want, registrableDomain(ev), in)
	}
}
