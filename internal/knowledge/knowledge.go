// Package knowledge holds cross-task knowledge facts and regex-extracted
// entity records, both retrieved by keyword/type match for context
// injection.
package knowledge

import (
	"strings"
	"sync"
	"time"
)

// Fact is a single cross-task knowledge fact.
type Fact struct {
	Domain       string    `json:"domain"`
	Keywords     []string  `json:"keywords"`
	Text         string    `json:"text"`
	SourceQuality float64  `json:"source_quality"`
	Timestamp    time.Time `json:"timestamp"`
}

// Base holds the full knowledge fact list, lock-protected for concurrent
// task access.
type Base struct {
	mu    sync.Mutex
	facts []Fact
}

func NewBase(initial []Fact) *Base {
	return &Base{facts: initial}
}

// Extract records a new fact if the source task's quality meets the
// extraction threshold (quality >= 0.5 per the REFLECT contract).
func (b *Base) Extract(fact Fact) {
	if fact.SourceQuality < 0.5 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.facts = append(b.facts, fact)
}

// Retrieve returns facts matching domain and sharing at least one keyword.
func (b *Base) Retrieve(domain string, keywords []string) []Fact {
	b.mu.Lock()
	defer b.mu.Unlock()

	kwSet := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kwSet[strings.ToLower(k)] = true
	}

	var out []Fact
	for _, f := range b.facts {
		if domain != "" && f.Domain != domain {
			continue
		}
		if matchesAny(f.Keywords, kwSet) {
			out = append(out, f)
		}
	}
	return out
}

func matchesAny(factKeywords []string, want map[string]bool) bool {
	for _, k := range factKeywords {
		if want[strings.ToLower(k)] {
			return true
		}
	}
	return false
}

func (b *Base) Snapshot() []Fact {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Fact, len(b.facts))
	copy(out, b.facts)
	return out
}
