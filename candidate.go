package henkan

import "strings"

// Candidate is one surface form proposed for a span of a reading.
type Candidate struct {
	// Reading is the kana span this candidate covers.
	Reading string
	// Surface is the literal output text (kanji/kana/mixed).
	Surface string
	// Source is the name of the dictionary source that contributed it.
	Source string
	// Weight is the source-assigned base score adjustment on the log10
	// scale (0 is neutral, negative disfavours).
	Weight float64

	// priority and order carry the source priority class and the
	// insertion position inside the source, used only for
	// deterministic tie-breaking. role tags single-term candidates,
	// which never enter the lattice.
	priority int
	order    int
	role     SourceRole
}

// Key returns the language-model token key, "surface/reading".
// Mirrors the original engine's token format (私/わたし).
func (c Candidate) Key() string { return c.Surface + "/" + c.Reading }

// Path is one full-coverage conversion result: candidates whose reading
// spans partition the input reading, with the combined model score.
type Path struct {
	Candidates []Candidate
	Score      float64
}

// Surface concatenates the surface forms of the path.
func (p Path) Surface() string {
	var b strings.Builder
	for _, c := range p.Candidates {
		b.WriteString(c.Surface)
	}
	return b.String()
}

// Reading concatenates the reading spans of the path.
func (p Path) Reading() string {
	var b strings.Builder
	for _, c := range p.Candidates {
		b.WriteString(c.Reading)
	}
	return b.String()
}
