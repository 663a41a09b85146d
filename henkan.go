// Package henkan is a statistical kana-kanji conversion engine. It
// turns romanized or kana keyboard input into Japanese text by
// searching a candidate lattice under a unigram/bigram language model,
// and improves its ranking over time from accepted conversions.
//
// Dictionaries and the static language model are loaded once and
// shared read-only across concurrent conversions; the per-user model
// is the only mutable state and is safe for concurrent use.
package henkan

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Engine bundles the dictionary, the language models and the
// transliterator behind the conversion API. Construct one with New
// (from configuration) or NewFromComponents (tests, embedding).
type Engine struct {
	dict   *Dictionary
	system *SystemLM
	user   *UserModel
	scorer *Scorer
	store  *UserModelStore

	romaji    *RomajiConverter
	beamWidth int
	logger    *slog.Logger

	loadErrs []error
}

// New builds an engine from configuration. Per-source load failures
// are isolated: the failing source is skipped and reported via
// LoadErrors, and startup proceeds with whatever loaded. With every
// source failed the engine still converts — each reading decomposes
// into literal kana fallback.
func New(cfg Config) (*Engine, error) {
	logger := slog.Default()

	e := &Engine{
		dict:      NewDictionary(),
		user:      NewUserModel(),
		romaji:    NewRomajiConverter(ParseInputMode(cfg.InputMode)),
		beamWidth: cfg.BeamWidth,
		logger:    logger,
	}
	if e.beamWidth <= 0 {
		e.beamWidth = DefaultBeamWidth
	}

	for _, sc := range cfg.Sources {
		src, err := LoadSource(sc.Descriptor())
		if err != nil {
			logger.Warn("skipping dictionary source", "path", sc.Path, "error", err)
			e.loadErrs = append(e.loadErrs, err)
			continue
		}
		e.dict.AddSource(src)
		logger.Info("loaded dictionary source", "name", src.Name, "readings", src.Len())
	}
	if !cfg.DisableDateSource {
		e.dict.AddDynamicSource(NewDateSource(cfg.DateSourcePriority))
	}

	system, err := LoadSystemLM(cfg.UnigramLM, cfg.BigramLM)
	if err != nil {
		logger.Warn("language model unavailable, converting on fallback scores", "error", err)
		e.loadErrs = append(e.loadErrs, err)
		system = NewSystemLM()
	}
	e.system = system

	if cfg.UserModelPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.UserModelPath), 0o755); err != nil {
			logger.Warn("user model directory", "error", err)
		}
		store, err := OpenUserModelStore(cfg.UserModelPath)
		if err != nil {
			logger.Warn("user model store unavailable, learning stays in memory", "error", err)
			e.loadErrs = append(e.loadErrs, err)
		} else {
			e.store = store
			snap, err := store.Load()
			if err != nil {
				logger.Warn("user model load", "error", err)
				e.loadErrs = append(e.loadErrs, err)
			} else {
				e.user.LoadSnapshot(snap)
			}
		}
	}

	e.scorer = NewScorer(e.system, e.user)
	return e, nil
}

// NewFromComponents assembles an engine around explicitly constructed
// parts, with no persistence attached. user may be nil for a
// learning-free engine.
func NewFromComponents(dict *Dictionary, system *SystemLM, user *UserModel) *Engine {
	if user == nil {
		user = NewUserModel()
	}
	return &Engine{
		dict:      dict,
		system:    system,
		user:      user,
		scorer:    NewScorer(system, user),
		romaji:    NewRomajiConverter(ModeRomaji),
		beamWidth: DefaultBeamWidth,
		logger:    slog.Default(),
	}
}

// LoadErrors returns the per-source failures collected at startup.
func (e *Engine) LoadErrors() []error { return e.loadErrs }

// Dictionary exposes the merged dictionary (read-only).
func (e *Engine) Dictionary() *Dictionary { return e.dict }

// ToKana transliterates raw keystrokes per the configured input mode,
// flushing any trailing partial mora verbatim.
func (e *Engine) ToKana(src string) string { return e.romaji.ToKana(src) }

// FeedKeystrokes transliterates the preedit string, returning the
// committed kana and the pending partial mora for display.
func (e *Engine) FeedKeystrokes(src string) (kana, pending string) {
	return e.romaji.Feed(src)
}

// Convert returns the best full-coverage conversion of the kana
// reading. The candidate spans partition the reading exactly; an empty
// reading yields an empty path.
func (e *Engine) Convert(yomi string) []Candidate {
	return viterbi(buildLattice(e.dict, yomi), e.scorer).Candidates
}

// ConvertNBest returns up to k alternative full-coverage paths for
// candidate-list display, best first. Single-term candidates (dates
// and other context-free auxiliaries) covering the whole reading are
// merged in: ahead of lattice output when their source outranks every
// primary source, after it otherwise. A katakana rendering of the
// reading is appended as a last-resort alternative.
func (e *Engine) ConvertNBest(yomi string, k int) []Path {
	if yomi == "" || k <= 0 {
		return nil
	}
	paths := nbest(buildLattice(e.dict, yomi), e.scorer, k, e.beamWidth)

	maxPrimary := 0
	for _, s := range e.dict.Sources() {
		if s.Role == RolePrimary && s.Priority > maxPrimary {
			maxPrimary = s.Priority
		}
	}
	var front, back []Path
	for _, c := range e.dict.SingleTermLookup(yomi) {
		p := Path{Candidates: []Candidate{c}}
		if c.priority > maxPrimary {
			front = append(front, p)
		} else {
			back = append(back, p)
		}
	}
	paths = append(front, append(paths, back...)...)

	if kata := HiraToKata(yomi); kata != yomi {
		paths = append(paths, Path{Candidates: []Candidate{{
			Reading: yomi,
			Surface: kata,
			Source:  FallbackSource,
		}}})
	}

	seen := make(map[string]bool)
	out := paths[:0]
	for _, p := range paths {
		if s := p.Surface(); !seen[s] {
			seen[s] = true
			out = append(out, p)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Commit records an accepted conversion in the user model. Single-term
// and fallback candidates are excluded — a memorized date would be
// stale tomorrow, and verbatim kana carries no information.
func (e *Engine) Commit(path []Candidate) {
	learned := make([]Candidate, 0, len(path))
	for _, c := range path {
		if c.role == RoleSingleTerm || c.Source == FallbackSource {
			continue
		}
		learned = append(learned, c)
	}
	if len(learned) == 0 {
		return
	}
	e.user.RecordAcceptance(learned)
}

// Persist flushes a point-in-time snapshot of the user model to the
// backing store. Failures leave the in-memory counts untouched and the
// next call retries from the same state. Without a store it is a
// no-op.
func (e *Engine) Persist() error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(e.user.Snapshot())
}

// Close persists the user model and releases the store.
func (e *Engine) Close() error {
	err := e.Persist()
	if e.store != nil {
		if cerr := e.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
