package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSeeds are known phishing URLs added to every fresh or loaded cache.
var DefaultSeeds = []string{
	"http://paypal-security.tk",
	"http://amazon-verify.ml",
	"http://facebook-login.ga",
	"http://google-account.cf",
	"http://apple-support.tk",
	"http://microsoft-update.ml",
	"http://netflix-billing.ga",
	"http://spotify-renewal.cf",
	"http://instagram-verify.tk",
	"http://twitter-security.ml",
}

// ParseSeeds reads one URL per line. Blank lines and lines starting with #
// are skipped, as is anything after " #". Duplicates are dropped.
func ParseSeeds(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, " #"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

// LoadSeedFile reads a seed list from path.
func LoadSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeeds(f)
}
