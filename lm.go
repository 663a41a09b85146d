package henkan

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Virtual sentence-boundary tokens. The system bigram model may carry
// entries for them (e.g. P(私/わたし | BOS)).
const (
	BOSKey = "__BOS__/__BOS__"
	EOSKey = "__EOS__/__EOS__"
)

// Default scoring parameters, log10 scale. Tunable via Config.
const (
	// DefaultFloorScore is the clamp for completely unknown tokens:
	// novel combinations are disfavoured, never rejected.
	DefaultFloorScore = -20.0
	// DefaultBackoffPenalty is the fixed discount applied when a
	// bigram is missing and scoring backs off to the unigram.
	DefaultBackoffPenalty = -2.0
)

// SystemLM holds the static pre-trained unigram/bigram log10
// probabilities, keyed by "surface/reading" tokens. Immutable once
// loaded; shared read-only across all conversions.
type SystemLM struct {
	unigram map[string]float64
	bigram  map[string]float64
}

// NewSystemLM returns an empty model, useful for tests and tooling.
func NewSystemLM() *SystemLM {
	return &SystemLM{
		unigram: make(map[string]float64),
		bigram:  make(map[string]float64),
	}
}

// AddUnigram registers a unigram log-probability. Only valid before
// the model is shared.
func (m *SystemLM) AddUnigram(key string, score float64) {
	m.unigram[key] = score
}

// AddBigram registers a bigram log-probability.
func (m *SystemLM) AddBigram(prev, key string, score float64) {
	m.bigram[prev+"\t"+key] = score
}

// Unigram returns the log-probability for key.
func (m *SystemLM) Unigram(key string) (float64, bool) {
	s, ok := m.unigram[key]
	return s, ok
}

// Bigram returns the log-probability for the pair (prev, key).
func (m *SystemLM) Bigram(prev, key string) (float64, bool) {
	s, ok := m.bigram[prev+"\t"+key]
	return s, ok
}

// Len returns the unigram and bigram entry counts.
func (m *SystemLM) Len() (unigrams, bigrams int) {
	return len(m.unigram), len(m.bigram)
}

// LoadSystemLM reads the text model files produced by the training
// pipeline:
//
//	unigram: "surface/reading score" per line
//	bigram:  "key1<TAB>key2 score" per line
//
// Either path may be empty, leaving that table empty (the engine still
// converts via back-off and floors).
func LoadSystemLM(unigramPath, bigramPath string) (*SystemLM, error) {
	m := NewSystemLM()
	if unigramPath != "" {
		if err := loadScoreFile(unigramPath, func(word string, score float64) {
			m.unigram[word] = score
		}); err != nil {
			return nil, err
		}
	}
	if bigramPath != "" {
		if err := loadScoreFile(bigramPath, func(word string, score float64) {
			if !strings.Contains(word, "\t") {
				return
			}
			m.bigram[word] = score
		}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// loadScoreFile parses "word score" lines, where word may itself
// contain a tab (bigram keys).
func loadScoreFile(path string, add func(word string, score float64)) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n ")
		if line == "" {
			continue
		}
		i := strings.LastIndexByte(line, ' ')
		if i < 0 {
			return &LoadError{Path: path, Err: fmt.Errorf("line %d: missing score", lineNo)}
		}
		score, err := strconv.ParseFloat(line[i+1:], 64)
		if err != nil {
			return &LoadError{Path: path, Err: fmt.Errorf("line %d: %w", lineNo, err)}
		}
		add(line[:i], score)
	}
	if err := sc.Err(); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// Scorer resolves token scores through the user model and the static
// model. For fixed model state every method is a pure function of its
// inputs. Resolution order for bigrams: user entry (floored at the
// back-off value) and static entry, the better of the two, so a single
// user acceptance can never push a pair below its pre-trained or
// unlearned score; then back-off to the unigram plus a fixed penalty,
// then the floor.
type Scorer struct {
	system *SystemLM
	user   *UserModel

	FloorScore     float64
	BackoffPenalty float64
}

// NewScorer combines a static model with an optional user model.
func NewScorer(system *SystemLM, user *UserModel) *Scorer {
	return &Scorer{
		system:         system,
		user:           user,
		FloorScore:     DefaultFloorScore,
		BackoffPenalty: DefaultBackoffPenalty,
	}
}

// Unigram scores a single token, never returning -Inf.
func (s *Scorer) Unigram(key string) float64 {
	best, found := s.FloorScore, false
	if s.user != nil {
		if sc, ok := s.user.UnigramScore(key); ok {
			best, found = sc, true
		}
	}
	if sc, ok := s.system.Unigram(key); ok && (!found || sc > best) {
		best, found = sc, true
	}
	if !found {
		return s.FloorScore
	}
	return best
}

// Bigram scores token key following prev. prev may be BOSKey. A user
// bigram is floored at the back-off value: a first acceptance after
// many other successors of prev must not score the pair below what it
// scored unlearned.
func (s *Scorer) Bigram(prev, key string) float64 {
	best, found := 0.0, false
	if s.user != nil {
		if sc, ok := s.user.BigramScore(prev, key); ok {
			if bo := s.backoff(key); sc < bo {
				sc = bo
			}
			best, found = sc, true
		}
	}
	if sc, ok := s.system.Bigram(prev, key); ok && (!found || sc > best) {
		best, found = sc, true
	}
	if found {
		return best
	}
	return s.backoff(key)
}

func (s *Scorer) backoff(key string) float64 {
	b := s.Unigram(key) + s.BackoffPenalty
	if b < s.FloorScore {
		return s.FloorScore
	}
	return b
}
