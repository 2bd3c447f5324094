package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeeds(t *testing.T) {
	input := `# known phishing
http://paypal-security.tk
  http://amazon-verify.ml   # from the weekly feed

http://paypal-security.tk
`
	urls, err := ParseSeeds(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://paypal-security.tk", "http://amazon-verify.ml"}, urls)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("http://a.tk\nhttp://b.ml\n"), 0o644))

	urls, err := LoadSeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.tk", "http://b.ml"}, urls)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDefaultSeeds(t *testing.T) {
	assert.Len(t, DefaultSeeds, 10)
	for _, u := range DefaultSeeds {
		assert.True(t, strings.HasPrefix(u, "http://"), u)
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	tests := []struct {
		name string
		th   Thresholds
	}{
		{"negative", Thresholds{Block: 0.8, Legitimate: -0.1}},
		{"above one", Thresholds{Block: 0.8, Link: 1.1}},
		{"legitimate not below block", Thresholds{Block: 0.5, Legitimate: 0.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.th.Validate())
		})
	}
}
