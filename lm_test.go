package henkan

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestScorerResolutionChain(t *testing.T) {
	system := NewSystemLM()
	system.AddUnigram("私/わたし", -2.0)
	system.AddBigram("私/わたし", "は/は", -1.0)

	s := NewScorer(system, nil)

	if got := s.Unigram("私/わたし"); got != -2.0 {
		t.Errorf("system unigram = %v, want -2", got)
	}
	if got := s.Unigram("未知/みち"); got != DefaultFloorScore {
		t.Errorf("unknown unigram = %v, want floor %v", got, DefaultFloorScore)
	}
	if got := s.Bigram("私/わたし", "は/は"); got != -1.0 {
		t.Errorf("system bigram = %v, want -1", got)
	}
	// Missing bigram backs off to unigram + penalty.
	if got := s.Bigram("は/は", "私/わたし"); got != -2.0+DefaultBackoffPenalty {
		t.Errorf("backoff bigram = %v, want %v", got, -2.0+DefaultBackoffPenalty)
	}
	// Backoff from an unknown token clamps at the floor.
	if got := s.Bigram(BOSKey, "未知/みち"); got != DefaultFloorScore {
		t.Errorf("floored bigram = %v, want %v", got, DefaultFloorScore)
	}
}

func TestScorerNeverInf(t *testing.T) {
	s := NewScorer(NewSystemLM(), NewUserModel())
	for _, key := range []string{"x/x", "", BOSKey, EOSKey} {
		if got := s.Unigram(key); math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("Unigram(%q) = %v", key, got)
		}
		if got := s.Bigram(BOSKey, key); math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("Bigram(BOS, %q) = %v", key, got)
		}
	}
}

func TestScorerUserOverlay(t *testing.T) {
	system := NewSystemLM()
	system.AddBigram("私/わたし", "は/は", -0.5)
	user := NewUserModel()
	s := NewScorer(system, user)

	before := s.Bigram("私/わたし", "は/は")

	// One acceptance of a different successor gives the pair a poor
	// user score; the pre-trained score must still win.
	user.RecordAcceptance([]Candidate{
		{Reading: "わたし", Surface: "私"},
		{Reading: "は", Surface: "は"},
	})
	user.RecordAcceptance([]Candidate{
		{Reading: "わたし", Surface: "私"},
		{Reading: "が", Surface: "が"},
	})
	after := s.Bigram("私/わたし", "は/は")
	if after < before {
		t.Errorf("accepted pair scored %v, below pre-trained %v", after, before)
	}

	// A pair the system never saw is now resolvable through the user
	// model instead of the back-off path.
	if got := s.Bigram("私/わたし", "が/が"); got <= DefaultFloorScore {
		t.Errorf("learned pair = %v, want above the floor", got)
	}
}

func TestScorerAcceptanceNeverLowersPair(t *testing.T) {
	system := NewSystemLM()
	system.AddUnigram("b/b", -0.7)
	user := NewUserModel()
	s := NewScorer(system, user)

	// Many prior successors of a make the first (a, b) count a poor
	// relative frequency; the pair must still not score below the
	// back-off it replaces.
	for i := 0; i < 999; i++ {
		user.RecordAcceptance(acceptedPath("a", "x"))
	}
	before := s.Bigram("a/a", "b/b")

	user.RecordAcceptance(acceptedPath("a", "b"))
	after := s.Bigram("a/a", "b/b")
	if after < before {
		t.Errorf("accepting the pair lowered its score: %v then %v", before, after)
	}
}

func TestLoadSystemLM(t *testing.T) {
	dir := t.TempDir()
	uni := filepath.Join(dir, "unigram.txt")
	bi := filepath.Join(dir, "bigram.txt")
	if err := os.WriteFile(uni, []byte("私/わたし -2.37\nは/は -1.02\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bi, []byte("私/わたし\tは/は -0.52\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadSystemLM(uni, bi)
	if err != nil {
		t.Fatal(err)
	}
	nu, nb := m.Len()
	if nu != 2 || nb != 1 {
		t.Fatalf("Len = (%d, %d), want (2, 1)", nu, nb)
	}
	if got, ok := m.Unigram("私/わたし"); !ok || got != -2.37 {
		t.Errorf("Unigram = (%v, %v)", got, ok)
	}
	if got, ok := m.Bigram("私/わたし", "は/は"); !ok || got != -0.52 {
		t.Errorf("Bigram = (%v, %v)", got, ok)
	}

	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("noscore\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSystemLM(bad, ""); err == nil {
		t.Error("malformed model file must fail to load")
	}
}

func TestLoadSystemLMScannerError(t *testing.T) {
	// One line past the scanner's buffer cap: the failure must surface
	// as a *LoadError like every other parse failure.
	long := filepath.Join(t.TempDir(), "long.txt")
	line := append(bytes.Repeat([]byte{'a'}, 2<<20), []byte(" -1.0\n")...)
	if err := os.WriteFile(long, line, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSystemLM(long, "")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if loadErr.Path != long {
		t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, long)
	}
}
