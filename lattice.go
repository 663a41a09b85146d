package henkan

import "sort"

// FallbackSource names the synthetic source of single-kana fallback
// edges. They guarantee every reading position is covered, so "no path
// found" cannot happen by construction.
const FallbackSource = "fallback"

// DefaultBeamWidth caps the partial paths retained per lattice
// position during N-best search.
const DefaultBeamWidth = 20

// latticeNode is one candidate edge, materialized at its span
// [start, end) over the reading's runes. Nodes live in a single arena
// slice; all DP state is indexed by node position in that slice.
type latticeNode struct {
	cand       Candidate
	start, end int
}

// lattice is the conversion DAG for one reading: the arena of nodes
// plus, for every end position 1..len, the indices of nodes ending
// there (the layout of the original resolver's node lists).
type lattice struct {
	runes []rune
	nodes []latticeNode
	ends  [][]int
}

// buildLattice enumerates every dictionary candidate starting at every
// position, plus the single-kana fallback edge for each position.
func buildLattice(d *Dictionary, yomi string) *lattice {
	rs := []rune(yomi)
	lat := &lattice{
		runes: rs,
		ends:  make([][]int, len(rs)+1),
	}

	for start := 0; start < len(rs); start++ {
		lengths := d.prefixLengths(rs, start)

		seenSingleVerbatim := false
		for _, l := range lengths {
			reading := string(rs[start : start+l])
			for _, cand := range d.Lookup(reading) {
				if cand.role == RoleSingleTerm {
					continue
				}
				if l == 1 && cand.Surface == reading {
					seenSingleVerbatim = true
				}
				lat.addNode(cand, start, start+l)
			}
		}

		// Fallback edge: the kana itself as its own surface form.
		if !seenSingleVerbatim {
			ch := string(rs[start : start+1])
			lat.addNode(Candidate{
				Reading: ch,
				Surface: ch,
				Source:  FallbackSource,
				// Rank fallbacks after any real candidate.
				priority: -1 << 30,
				order:    1 << 30,
			}, start, start+1)
		}
	}
	return lat
}

func (lat *lattice) addNode(cand Candidate, start, end int) {
	lat.nodes = append(lat.nodes, latticeNode{cand: cand, start: start, end: end})
	lat.ends[end] = append(lat.ends[end], len(lat.nodes)-1)
}

// edgeScore is the score of entering node via prevKey: the language
// model bigram plus the candidate's base weight.
func edgeScore(s *Scorer, prevKey string, node *latticeNode) float64 {
	return s.Bigram(prevKey, node.cand.Key()) + node.cand.Weight
}

// dpEntry is the best partial path reaching one node.
type dpEntry struct {
	score  float64
	tokens int
	prev   int // node index, or -1 for BOS
	ok     bool
}

// betterPath is the deterministic path ordering: higher combined
// score, then fewer tokens (long candidates beat runs of short ones),
// then lower node index — which encodes source priority and insertion
// order, since Lookup emits candidates in that order.
func betterPath(scoreA float64, tokensA, idxA int, scoreB float64, tokensB, idxB int) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	if tokensA != tokensB {
		return tokensA < tokensB
	}
	return idxA < idxB
}

// viterbi finds the single best full-coverage path. Empty readings
// yield an empty path.
func viterbi(lat *lattice, s *Scorer) Path {
	n := len(lat.runes)
	if n == 0 {
		return Path{}
	}

	best := make([]dpEntry, len(lat.nodes))
	for end := 1; end <= n; end++ {
		for _, idx := range lat.ends[end] {
			node := &lat.nodes[idx]
			if node.start == 0 {
				best[idx] = dpEntry{
					score:  edgeScore(s, BOSKey, node),
					tokens: 1,
					prev:   -1,
					ok:     true,
				}
				continue
			}
			for _, pidx := range lat.ends[node.start] {
				pe := best[pidx]
				if !pe.ok {
					continue
				}
				score := pe.score + edgeScore(s, lat.nodes[pidx].cand.Key(), node)
				tokens := pe.tokens + 1
				if !best[idx].ok || betterPath(score, tokens, pidx, best[idx].score, best[idx].tokens, best[idx].prev) {
					best[idx] = dpEntry{score: score, tokens: tokens, prev: pidx, ok: true}
				}
			}
		}
	}

	// EOS step: pick the best full-coverage endpoint.
	final := -1
	var finalScore float64
	var finalTokens int
	for _, idx := range lat.ends[n] {
		if !best[idx].ok {
			continue
		}
		score := best[idx].score + s.Bigram(lat.nodes[idx].cand.Key(), EOSKey)
		if final < 0 || betterPath(score, best[idx].tokens, idx, finalScore, finalTokens, final) {
			final, finalScore, finalTokens = idx, score, best[idx].tokens
		}
	}
	if final < 0 {
		// Unreachable: fallback edges cover every position.
		return Path{}
	}

	var cands []Candidate
	for idx := final; idx >= 0; idx = best[idx].prev {
		cands = append(cands, lat.nodes[idx].cand)
	}
	reverse(cands)
	return Path{Candidates: cands, Score: finalScore}
}

// partial is one retained partial path during N-best search, a linked
// list through the node arena.
type partial struct {
	score  float64
	tokens int
	node   int
	parent *partial
}

// betterPartial orders partials like betterPath, walking parents when
// the heads tie, so beam trimming is fully deterministic.
func betterPartial(a, b *partial) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.tokens != b.tokens {
		return a.tokens < b.tokens
	}
	for pa, pb := a, b; pa != nil && pb != nil; pa, pb = pa.parent, pb.parent {
		if pa.node != pb.node {
			return pa.node < pb.node
		}
	}
	return false
}

// nbest extends the DP to keep up to beam partial paths per position
// and returns up to k full paths, best first, deduplicated by surface.
func nbest(lat *lattice, s *Scorer, k, beam int) []Path {
	n := len(lat.runes)
	if n == 0 || k <= 0 {
		return nil
	}
	if beam <= 0 {
		beam = DefaultBeamWidth
	}
	if beam < k {
		beam = k
	}

	table := make([][]*partial, n+1)
	for end := 1; end <= n; end++ {
		for _, idx := range lat.ends[end] {
			node := &lat.nodes[idx]
			if node.start == 0 {
				table[end] = append(table[end], &partial{
					score:  edgeScore(s, BOSKey, node),
					tokens: 1,
					node:   idx,
				})
				continue
			}
			for _, p := range table[node.start] {
				table[end] = append(table[end], &partial{
					score:  p.score + edgeScore(s, lat.nodes[p.node].cand.Key(), node),
					tokens: p.tokens + 1,
					node:   idx,
					parent: p,
				})
			}
		}
		sort.SliceStable(table[end], func(i, j int) bool {
			return betterPartial(table[end][i], table[end][j])
		})
		if len(table[end]) > beam {
			table[end] = table[end][:beam]
		}
	}

	// EOS step over the full-coverage partials.
	finals := make([]*partial, 0, len(table[n]))
	for _, p := range table[n] {
		finals = append(finals, &partial{
			score:  p.score + s.Bigram(lat.nodes[p.node].cand.Key(), EOSKey),
			tokens: p.tokens,
			node:   p.node,
			parent: p.parent,
		})
	}
	sort.SliceStable(finals, func(i, j int) bool {
		return betterPartial(finals[i], finals[j])
	})

	var paths []Path
	seen := make(map[string]bool)
	for _, p := range finals {
		if len(paths) >= k {
			break
		}
		var cands []Candidate
		for q := p; q != nil; q = q.parent {
			cands = append(cands, lat.nodes[q.node].cand)
		}
		reverse(cands)
		path := Path{Candidates: cands, Score: p.score}
		if surface := path.Surface(); !seen[surface] {
			seen[surface] = true
			paths = append(paths, path)
		}
	}
	return paths
}

func reverse(cands []Candidate) {
	for i, j := 0, len(cands)-1; i < j; i, j = i+1, j-1 {
		cands[i], cands[j] = cands[j], cands[i]
	}
}
