package henkan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
}

func testEngine(datePriority int) *Engine {
	s := NewSource("system", RolePrimary, 0)
	s.Add("きょう", "京")
	s.Add("きょう", "今日")
	s.Add("わたし", "私")
	s.Add("わたし", "渡し")
	s.Add("は", "歯")
	s.Add("は", "は")

	d := NewDictionary()
	d.AddSource(s)

	ds := NewDateSource(datePriority)
	ds.now = fixedClock
	d.AddDynamicSource(ds)

	lm := NewSystemLM()
	lm.AddUnigram("今日/きょう", -2.0)
	lm.AddUnigram("私/わたし", -2.0)
	lm.AddUnigram("は/は", -1.5)

	return NewFromComponents(d, lm, nil)
}

func TestConvertDateCandidateRanksFirst(t *testing.T) {
	e := testEngine(1000)

	paths := e.ConvertNBest("きょう", 10)
	require.NotEmpty(t, paths)

	// The date source outranks every primary source, so its candidates
	// lead the list; lattice output follows; katakana closes it.
	assert.Equal(t, "2026-08-24", paths[0].Surface())
	assert.Equal(t, "2026年08月24日", paths[1].Surface())

	surfaces := make([]string, len(paths))
	for i, p := range paths {
		surfaces[i] = p.Surface()
	}
	assert.Contains(t, surfaces, "今日")
	assert.Equal(t, "キョウ", surfaces[len(surfaces)-1])
}

func TestConvertDateCandidateRanksLast(t *testing.T) {
	e := testEngine(-5)

	paths := e.ConvertNBest("きょう", 10)
	require.NotEmpty(t, paths)
	assert.Equal(t, "今日", paths[0].Surface(), "lattice output leads when the date source is outranked")

	surfaces := make([]string, len(paths))
	for i, p := range paths {
		surfaces[i] = p.Surface()
	}
	assert.Contains(t, surfaces, "2026-08-24")
}

func TestConvertExcludesSingleTermFromLattice(t *testing.T) {
	e := testEngine(1000)

	// Convert is the single-best path; date candidates never enter it
	// even at top priority.
	path := e.Convert("きょう")
	require.NotEmpty(t, path)
	assert.Equal(t, "今日", Path{Candidates: path}.Surface())

	// きょうは: the date reading as a proper substring must not block
	// normal segmentation.
	full := e.Convert("きょうは")
	assert.Equal(t, "きょうは", Path{Candidates: full}.Reading())
}

func TestConvertIdempotentWithoutCommit(t *testing.T) {
	e := testEngine(1000)
	first := Path{Candidates: e.Convert("わたしは")}.Surface()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Path{Candidates: e.Convert("わたしは")}.Surface())
	}
}

func TestCommitShiftsRanking(t *testing.T) {
	e := testEngine(1000)

	require.Equal(t, "私", Path{Candidates: e.Convert("わたし")}.Surface())

	e.Commit([]Candidate{{Reading: "わたし", Surface: "渡し"}})
	assert.Equal(t, "渡し", Path{Candidates: e.Convert("わたし")}.Surface())
}

func TestCommitSkipsAuxiliaryCandidates(t *testing.T) {
	e := testEngine(1000)

	date := e.Dictionary().SingleTermLookup("きょう")
	require.NotEmpty(t, date)
	e.Commit([]Candidate{date[0]})
	e.Commit([]Candidate{{Reading: "あ", Surface: "あ", Source: FallbackSource}})

	if _, ok := e.user.UnigramScore(date[0].Key()); ok {
		t.Error("date candidate leaked into the user model")
	}
	if _, ok := e.user.UnigramScore("あ/あ"); ok {
		t.Error("fallback candidate leaked into the user model")
	}
}

func TestConvertWithEmptyDictionary(t *testing.T) {
	e := NewFromComponents(NewDictionary(), NewSystemLM(), nil)
	path := e.Convert("あかざ")
	assert.Equal(t, "あかざ", Path{Candidates: path}.Surface())
	assert.Nil(t, e.Convert(""))
}

func TestPersistWithoutStore(t *testing.T) {
	e := testEngine(1000)
	assert.NoError(t, e.Persist())
	assert.NoError(t, e.Close())
}

func TestEngineLifecycle(t *testing.T) {
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dict.skk")
	require.NoError(t, os.WriteFile(dictPath, []byte("わたし /私/渡し/\n"), 0o644))

	cfg := Config{
		Sources: []SourceConfig{{
			Path:     dictPath,
			Encoding: "utf-8",
			Format:   "skk",
			Name:     "main",
		}},
		UserModelPath: filepath.Join(dir, "user-model.db"),
		BeamWidth:     DefaultBeamWidth,
	}

	e, err := New(cfg)
	require.NoError(t, err)
	require.Empty(t, e.LoadErrors())

	// Learn 渡し, persist, shut down.
	e.Commit([]Candidate{{Reading: "わたし", Surface: "渡し"}})
	require.Equal(t, "渡し", Path{Candidates: e.Convert("わたし")}.Surface())
	require.NoError(t, e.Close())

	// A fresh engine over the same store remembers the preference.
	e2, err := New(cfg)
	require.NoError(t, err)
	defer e2.Close()
	assert.Equal(t, "渡し", Path{Candidates: e2.Convert("わたし")}.Surface())
}

func TestEngineSurvivesSourceFailure(t *testing.T) {
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "good.skk")
	require.NoError(t, os.WriteFile(goodPath, []byte("わたし /私/\n"), 0o644))

	cfg := Config{
		Sources: []SourceConfig{
			{Path: filepath.Join(dir, "missing.skk"), Format: "skk"},
			{Path: goodPath, Format: "skk", Name: "good"},
		},
		UserModelPath: filepath.Join(dir, "user-model.db"),
	}

	e, err := New(cfg)
	require.NoError(t, err, "one bad source must not abort startup")
	defer e.Close()
	assert.Len(t, e.LoadErrors(), 1)
	assert.Equal(t, "私", Path{Candidates: e.Convert("わたし")}.Surface())
}

func TestEngineAllSourcesFailed(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Sources: []SourceConfig{{Path: filepath.Join(dir, "missing.skk"), Format: "skk"}},
	}

	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()
	assert.NotEmpty(t, e.LoadErrors())

	// Degraded but alive: every reading converts to itself.
	assert.Equal(t, "かな", Path{Candidates: e.Convert("かな")}.Surface())
}

func TestFeedKeystrokes(t *testing.T) {
	e := testEngine(1000)
	kana, pending := e.FeedKeystrokes("watash")
	assert.Equal(t, "わた", kana)
	assert.Equal(t, "sh", pending)
	assert.Equal(t, "わたし", e.ToKana("watashi"))
}
