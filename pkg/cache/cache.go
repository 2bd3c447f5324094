// Package cache holds the classification sets shared by every analysis.
package cache

import (
	"fmt"
	"sort"
	"sync"
)

// Set names one of the three URL sets.
type Set int

const (
	Phishing Set = iota
	Legitimate
	Blocked
)

func (s Set) String() string {
	switch s {
	case Phishing:
		return "phishing"
	case Legitimate:
		return "legitimate"
	case Blocked:
		return "blocked"
	}
	return fmt.Sprintf("Set(%d)", int(s))
}

func (s Set) valid() bool {
	return s >= Phishing && s <= Blocked
}

// Label is the classification implied by set membership.
type Label string

const (
	LabelUnknown    Label = "Unknown"
	LabelPhishing   Label = "Phishing"
	LabelLegitimate Label = "Legitimate"
	LabelBlocked    Label = "Blocked"
)

// Counts reports the size of each set.
type Counts struct {
	Phishing   int `json:"phishingUrls"`
	Legitimate int `json:"legitimateUrls"`
	Blocked    int `json:"blockedUrls"`
}

// Snapshot is a point-in-time copy of the three sets, sorted.
type Snapshot struct {
	Phishing   []string `json:"knownPhishingUrls"`
	Legitimate []string `json:"knownLegitimateUrls"`
	Blocked    []string `json:"blockedUrls"`
}

// Cache is a thread-safe set of classified URLs. Entries are never evicted.
//
// A URL may be in several sets at once, for example after a false-positive
// report on a URL that was already known as phishing. Phishing wins in that
// case, see Label.
type Cache struct {
	mu   sync.RWMutex
	sets [3]map[string]struct{}
}

// New returns an empty cache.
func New() *Cache {
	c := &Cache{}
	for i := range c.sets {
		c.sets[i] = make(map[string]struct{})
	}
	return c
}

// Contains reports whether url is in set.
func (c *Cache) Contains(url string, set Set) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.has(url, set)
}

// Add inserts url into set. It returns false if url was already present or
// set is not one of the three sets.
func (c *Cache) Add(url string, set Set) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !set.valid() || c.has(url, set) {
		return false
	}
	c.sets[set][url] = struct{}{}
	return true
}

// AddUnless inserts url into set unless it is already in unless. The check and
// the insert happen under one lock.
func (c *Cache) AddUnless(url string, set, unless Set) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !set.valid() || c.has(url, unless) || c.has(url, set) {
		return false
	}
	c.sets[set][url] = struct{}{}
	return true
}

// Label returns the classification of url. Phishing takes precedence over
// Legitimate, which takes precedence over Blocked.
func (c *Cache) Label(url string) Label {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.has(url, Phishing):
		return LabelPhishing
	case c.has(url, Legitimate):
		return LabelLegitimate
	case c.has(url, Blocked):
		return LabelBlocked
	}
	return LabelUnknown
}

func (c *Cache) has(url string, set Set) bool {
	if !set.valid() {
		return false
	}
	_, ok := c.sets[set][url]
	return ok
}

// Counts returns the current set sizes.
func (c *Cache) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Counts{
		Phishing:   len(c.sets[Phishing]),
		Legitimate: len(c.sets[Legitimate]),
		Blocked:    len(c.sets[Blocked]),
	}
}

// Snapshot copies the three sets.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Phishing:   sortedKeys(c.sets[Phishing]),
		Legitimate: sortedKeys(c.sets[Legitimate]),
		Blocked:    sortedKeys(c.sets[Blocked]),
	}
}

// Restore replaces the cache contents with snap.
func (c *Cache) Restore(snap Snapshot) {
	sets := [3]map[string]struct{}{
		toSet(snap.Phishing),
		toSet(snap.Legitimate),
		toSet(snap.Blocked),
	}
	c.mu.Lock()
	c.sets = sets
	c.mu.Unlock()
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(urls []string) map[string]struct{} {
	m := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u != "" {
			m[u] = struct{}{}
		}
	}
	return m
}
