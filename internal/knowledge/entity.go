package knowledge

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// EntityType names the canonical entity category.
type EntityType string

const (
	EntityVendor  EntityType = "vendor"
	EntityPerson  EntityType = "person"
	EntityAmount  EntityType = "amount"
	EntityID      EntityType = "id"
	EntityDate    EntityType = "date"
	EntityProduct EntityType = "product"
)

// entityPattern pairs a regex with the type it extracts.
type entityPattern struct {
	typ EntityType
	re  *regexp.Regexp
}

// patterns is the ordered (type, regex) list: amount ($-prefixed), id,
// two date styles, vendor (Inc/LLC/Corp/Ltd/Co suffix), person
// (honorific-prefixed name). Products come from titleCaseCatchAll below.
// Percentages and e-mail addresses are not extracted.
var patterns = []entityPattern{
	{EntityAmount, regexp.MustCompile(`\$[0-9][0-9,]*(?:\.[0-9]{2})?`)},
	{EntityID, regexp.MustCompile(`\b[A-Z]{2,5}-[0-9]{2,8}\b`)},
	{EntityDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{EntityDate, regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.? \d{1,2},? \d{4}\b`)},
	{EntityVendor, regexp.MustCompile(`\b[A-Z][A-Za-z&' ]+ (?:Inc|LLC|Corp|Ltd|Co)\.?\b`)},
	{EntityPerson, regexp.MustCompile(`\b(?:Mr|Ms|Mrs|Dr)\.? [A-Z][a-z]+ [A-Z][a-z]+\b`)},
}

var titleCaseCatchAll = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}(?: [A-Z][a-zA-Z]{2,}){0,2}\b`)
var stopTitles = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"Please": true, "Thanks": true,
}

// ExtractedEntity is one regex hit from a pass over task/answer text.
type ExtractedEntity struct {
	Canonical string
	Type      EntityType
}

// Extract scans text for all known entity patterns plus the product
// catch-all, returning de-duplicated hits.
func Extract(text string) []ExtractedEntity {
	seen := map[string]bool{}
	var out []ExtractedEntity

	for _, p := range patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			canon := normalize(m)
			key := string(p.typ) + "|" + canon
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ExtractedEntity{Canonical: canon, Type: p.typ})
		}
	}

	for _, m := range titleCaseCatchAll.FindAllString(text, -1) {
		if stopTitles[m] {
			continue
		}
		canon := normalize(m)
		key := string(EntityProduct) + "|" + canon
		if seen[key] {
			continue
		}
		// Skip anything already captured as a more specific type.
		alreadyTyped := false
		for _, e := range out {
			if e.Canonical == canon {
				alreadyTyped = true
				break
			}
		}
		if alreadyTyped {
			continue
		}
		seen[key] = true
		out = append(out, ExtractedEntity{Canonical: canon, Type: EntityProduct})
	}

	return out
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}

// Record is the persisted per-entity history.
type Record struct {
	Canonical      string     `json:"canonical_name"`
	Type           EntityType `json:"type"`
	FirstSeen      time.Time  `json:"first_seen"`
	LastSeen       time.Time  `json:"last_seen"`
	SightingCount  int        `json:"sighting_count"`
	AssociatedFacts []string  `json:"associated_facts"`
}

const (
	maxEntities = 1000
	entityTTL   = 7 * 24 * time.Hour
)

// Memory holds the entity-record table, keyed by canonical name.
type Memory struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemory(initial map[string]Record) *Memory {
	if initial == nil {
		initial = map[string]Record{}
	}
	return &Memory{records: initial}
}

// RecordTaskEntities extracts entities from text and updates the memory,
// evicting the oldest entries if the table exceeds its cap.
func (m *Memory) RecordTaskEntities(text string) {
	entities := Extract(text)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entities {
		rec, ok := m.records[e.Canonical]
		if !ok {
			rec = Record{Canonical: e.Canonical, Type: e.Type, FirstSeen: now}
		}
		rec.LastSeen = now
		rec.SightingCount++
		m.records[e.Canonical] = rec
	}

	m.evictExpiredLocked(now)
	m.evictOverflowLocked()
}

func (m *Memory) evictExpiredLocked(now time.Time) {
	for k, r := range m.records {
		if now.Sub(r.LastSeen) > entityTTL {
			delete(m.records, k)
		}
	}
}

func (m *Memory) evictOverflowLocked() {
	if len(m.records) <= maxEntities {
		return
	}
	// Evict the least-recently-seen entries until back under the cap.
	type kv struct {
		key string
		rec Record
	}
	all := make([]kv, 0, len(m.records))
	for k, r := range m.records {
		all = append(all, kv{k, r})
	}
	for len(m.records) > maxEntities {
		oldestIdx := 0
		for i, e := range all {
			if e.rec.LastSeen.Before(all[oldestIdx].rec.LastSeen) {
				oldestIdx = i
			}
		}
		delete(m.records, all[oldestIdx].key)
		all = append(all[:oldestIdx], all[oldestIdx+1:]...)
	}
}

// GetEntityContext surfaces entities seen at least twice for this text's
// mentions, plus the top-3 most frequent entities overall as domain
// background.
func (m *Memory) GetEntityContext(text string) []Record {
	mentioned := Extract(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	addedKey := map[string]bool{}
	for _, e := range mentioned {
		if rec, ok := m.records[e.Canonical]; ok && rec.SightingCount >= 2 {
			out = append(out, rec)
			addedKey[rec.Canonical] = true
		}
	}

	var all []Record
	for _, r := range m.records {
		all = append(all, r)
	}
	topN := topByFrequency(all, 3)
	for _, r := range topN {
		if !addedKey[r.Canonical] {
			out = append(out, r)
			addedKey[r.Canonical] = true
		}
	}

	return out
}

func topByFrequency(records []Record, n int) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].SightingCount > sorted[i].SightingCount {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func (m *Memory) Snapshot() map[string]Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}
