package henkan

import "sort"

// SourceRole classifies a dictionary source.
type SourceRole int

const (
	// RolePrimary sources feed the lattice builder.
	RolePrimary SourceRole = iota
	// RoleSingleTerm sources provide context-free auxiliary candidates
	// (date insertion and the like). They are unioned into lookup
	// results but tracked separately for ranking.
	RoleSingleTerm
)

// Source is one loaded dictionary: an ordered list of reading→surfaces
// entries tagged with a name and a priority class. Higher priority wins
// ranking ties; equal-priority sources never override each other, both
// keep contributing candidates.
type Source struct {
	Name     string
	Role     SourceRole
	Priority int
	// BaseWeight is added to the score of every candidate from this
	// source (log10 scale, usually 0 or slightly negative).
	BaseWeight float64

	readings []string
	entries  map[string][]string
}

// NewSource returns an empty source.
func NewSource(name string, role SourceRole, priority int) *Source {
	return &Source{
		Name:     name,
		Role:     role,
		Priority: priority,
		entries:  make(map[string][]string),
	}
}

// Add appends surface as a candidate for reading, keeping insertion
// order. Exact duplicates within one source are dropped.
func (s *Source) Add(reading, surface string) {
	if reading == "" || surface == "" {
		return
	}
	existing, ok := s.entries[reading]
	if !ok {
		s.readings = append(s.readings, reading)
	}
	for _, e := range existing {
		if e == surface {
			return
		}
	}
	s.entries[reading] = append(existing, surface)
}

// Readings returns every reading the source defines, in insertion order.
func (s *Source) Readings() []string { return s.readings }

// Surfaces returns the surfaces for reading, in insertion order.
func (s *Source) Surfaces(reading string) []string { return s.entries[reading] }

// Len returns the number of distinct readings.
func (s *Source) Len() int { return len(s.readings) }

// DynamicSource produces context-free candidates computed at lookup
// time rather than loaded from a file (e.g. today's date for きょう).
type DynamicSource interface {
	Name() string
	Priority() int
	// Candidates returns the surfaces for reading, or nil.
	Candidates(reading string) []string
}

// Dictionary merges an ordered set of sources behind a single
// prefix-searchable lookup interface. Merging is additive: every source
// contributes all of its entries, only ranking differs. Immutable once
// loading finishes; shared read-only across conversions.
type Dictionary struct {
	sources []*Source
	dynamic []DynamicSource
	trie    *kanaTrie
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{trie: newKanaTrie()}
}

// AddSource registers a loaded source. Single-term sources do not feed
// the lattice trie; their candidates only join whole-reading lookups.
func (d *Dictionary) AddSource(s *Source) {
	d.sources = append(d.sources, s)
	if s.Role == RolePrimary {
		for _, r := range s.readings {
			d.trie.Add(r)
		}
	}
}

// AddDynamicSource registers a dynamic single-term source.
func (d *Dictionary) AddDynamicSource(ds DynamicSource) {
	d.dynamic = append(d.dynamic, ds)
}

// Lookup returns every candidate for the exact reading, across all
// sources, ordered by source priority (descending), then base weight,
// then source registration and insertion order. The slice is freshly
// built per call, so iteration is restartable and callers may keep it.
func (d *Dictionary) Lookup(reading string) []Candidate {
	var out []Candidate
	for si, s := range d.sources {
		for oi, surface := range s.entries[reading] {
			out = append(out, Candidate{
				Reading:  reading,
				Surface:  surface,
				Source:   s.Name,
				Weight:   s.BaseWeight,
				priority: s.Priority,
				order:    si*1_000_000 + oi,
				role:     s.Role,
			})
		}
	}
	for di, ds := range d.dynamic {
		for oi, surface := range ds.Candidates(reading) {
			out = append(out, Candidate{
				Reading:  reading,
				Surface:  surface,
				Source:   ds.Name(),
				priority: ds.Priority(),
				order:    (len(d.sources)+di)*1_000_000 + oi,
				role:     RoleSingleTerm,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].order < out[j].order
	})
	return out
}

// SingleTermLookup returns only the single-term and dynamic candidates
// for reading, used by the engine to rank auxiliary candidates
// separately from lattice output.
func (d *Dictionary) SingleTermLookup(reading string) []Candidate {
	all := d.Lookup(reading)
	out := all[:0:0]
	for _, c := range all {
		if c.role == RoleSingleTerm {
			out = append(out, c)
		}
	}
	return out
}

// prefixLengths returns the rune lengths of every primary-source
// reading that starts at rs[start:], for the lattice builder.
func (d *Dictionary) prefixLengths(rs []rune, start int) []int {
	return d.trie.CommonPrefixLengths(rs, start)
}

// Sources returns the registered sources in order.
func (d *Dictionary) Sources() []*Source { return d.sources }
