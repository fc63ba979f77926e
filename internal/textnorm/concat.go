package textnorm

import "strings"

// minSplitLen is the shortest token considered for splitting; shorter tokens
// are too likely to be real words.
const minSplitLen = 6

// SplitConcatenated separates temporal keywords that the transcriber glued
// together, e.g. "anytimethisweek" → "any time this week" or
// "nextweek" → "next week". Known keywords and protected words such as
// "weekend" are left intact.
func (p *Preprocessor) SplitConcatenated(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		lead, core, trail := splitToken(tok)
		if len(core) < minSplitLen || strings.Contains(core, "-") {
			continue
		}
		if p.keywords[core] || p.protected[core] {
			continue
		}
		if pieces := p.segment(core); len(pieces) > 1 {
			tokens[i] = lead + strings.Join(pieces, " ") + trail
			continue
		}
		if split, ok := p.splitEdge(core); ok {
			tokens[i] = lead + split + trail
		}
	}
	return strings.Join(tokens, " ")
}

// segment splits word entirely into temporal keywords, preferring the
// segmentation with the most pieces ("any time" over "anytime"). It returns
// nil when no complete segmentation exists.
func (p *Preprocessor) segment(word string) []string {
	n := len(word)
	// best[i] is the max number of pieces covering word[i:], -1 when impossible.
	best := make([]int, n+1)
	next := make([]int, n+1)
	for i := range best {
		best[i] = -1
	}
	best[n] = 0
	for i := n - 1; i >= 0; i-- {
		for j := n; j > i; j-- {
			if best[j] < 0 || !p.keywords[word[i:j]] {
				continue
			}
			if c := best[j] + 1; c > best[i] {
				best[i] = c
				next[i] = j
			}
		}
	}
	if best[0] < 0 {
		return nil
	}
	var out []string
	for i := 0; i < n; i = next[i] {
		out = append(out, word[i:next[i]])
	}
	return out
}

// splitEdge peels a keyword off the front or back of word when the remainder
// is still a plausible word of at least three letters ("nextfriday" is
// handled by segment; "mondaymorningish" becomes "monday morningish").
func (p *Preprocessor) splitEdge(word string) (string, bool) {
	for j := len(word) - 3; j >= 3; j-- {
		if p.keywords[word[:j]] {
			return word[:j] + " " + word[j:], true
		}
	}
	for i := 3; i <= len(word)-3; i++ {
		if p.keywords[word[i:]] {
			return word[:i] + " " + word[i:], true
		}
	}
	return "", false
}
