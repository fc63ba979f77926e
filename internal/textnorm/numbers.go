package textnorm

import (
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// numberWord is one classified token of a spoken-number run.
type numberWord struct {
	value   int
	kind    wordKind
	ordinal bool
}

type wordKind int

const (
	kindOnes wordKind = iota // 0-9
	kindTeen                 // 10-19
	kindTens                 // 20, 30, ... 90
	kindHundred
	kindThousand
	kindOh // "oh" / "o" used as zero inside years ("nineteen oh five")
)

// ConvertNumbers replaces spelled-out numbers and ordinals with digits.
// Compound years follow the spoken grammar: "nineteen ninety eight" → 1998,
// "two thousand and eleven" → 2011. Tokens that cannot be resolved pass
// through unchanged.
func (p *Preprocessor) ConvertNumbers(text string) string {
	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); {
		run, consumed := p.collectRun(tokens, i)
		if consumed == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		lead, _ := splitPunct(tokens[i])
		_, lastTrail := splitPunct(tokens[i+consumed-1])
		values := resolveRun(run)
		parts := make([]string, len(values))
		for j, v := range values {
			parts[j] = strconv.Itoa(v)
		}
		out = append(out, lead+strings.Join(parts, " ")+lastTrail)
		i += consumed
	}
	return strings.Join(out, " ")
}

// collectRun gathers consecutive number words starting at tokens[i]. Hyphenated
// tokens ("twenty-first") contribute each part. "and" is kept only between a
// multiplier and a following number ("two thousand and eleven").
func (p *Preprocessor) collectRun(tokens []string, i int) ([]numberWord, int) {
	var run []numberWord
	consumed := 0
	for j := i; j < len(tokens); j++ {
		_, core, trail := splitToken(tokens[j])
		if core == "" {
			break
		}
		if core == "and" && len(run) > 0 && j+1 < len(tokens) {
			prev := run[len(run)-1].kind
			_, next, _ := splitToken(tokens[j+1])
			if (prev == kindThousand || prev == kindHundred) && p.classify(next) != nil {
				consumed++
				continue
			}
			break
		}
		if (core == "oh" || core == "o") && p.ohIsZero(run, tokens, j) {
			run = append(run, numberWord{value: 0, kind: kindOh})
			consumed++
			continue
		}
		words := p.classify(core)
		if words == nil {
			break
		}
		run = append(run, words...)
		consumed++
		if words[len(words)-1].ordinal || trail != "" {
			// Ordinals and punctuation end a number ("the 21st, 1990").
			break
		}
	}
	if len(run) == 0 {
		return nil, 0
	}
	return run, consumed
}

// ohIsZero accepts "oh" after a year head (19, 20) when a digit word follows.
func (p *Preprocessor) ohIsZero(run []numberWord, tokens []string, j int) bool {
	if len(run) == 0 || j+1 >= len(tokens) {
		return false
	}
	head := run[len(run)-1]
	if head.ordinal || (head.value != 19 && head.value != 20) {
		return false
	}
	_, next, _ := splitToken(tokens[j+1])
	words := p.classify(next)
	return len(words) == 1 && words[0].kind == kindOnes
}

// classify resolves a token (possibly hyphenated) into number words, or nil.
func (p *Preprocessor) classify(core string) []numberWord {
	parts := strings.Split(core, "-")
	out := make([]numberWord, 0, len(parts))
	for _, part := range parts {
		w, ok := p.lookupNumber(part)
		if !ok {
			return nil
		}
		out = append(out, w)
	}
	return out
}

func (p *Preprocessor) lookupNumber(word string) (numberWord, bool) {
	if w, ok := p.exactNumber(word); ok {
		return w, true
	}
	if fixed, ok := p.vocab.NumberMisspellings[word]; ok {
		return p.exactNumber(fixed)
	}
	if fuzzy, ok := p.fuzzyNumber(word); ok {
		return p.exactNumber(fuzzy)
	}
	return numberWord{}, false
}

func (p *Preprocessor) exactNumber(word string) (numberWord, bool) {
	switch word {
	case "hundred":
		return numberWord{value: 100, kind: kindHundred}, true
	case "thousand":
		return numberWord{value: 1000, kind: kindThousand}, true
	}
	if v, ok := p.vocab.Cardinals[word]; ok {
		return numberWord{value: v, kind: kindOf(v)}, true
	}
	if v, ok := p.vocab.Ordinals[word]; ok {
		return numberWord{value: v, kind: kindOf(v), ordinal: true}, true
	}
	return numberWord{}, false
}

// fuzzyNumber matches long tokens one edit away from a long number word
// ("sevnty", "ninteen"). Plurals are excluded so "seconds" stays a word.
func (p *Preprocessor) fuzzyNumber(word string) (string, bool) {
	if len(word) < 6 {
		return "", false
	}
	for _, candidate := range p.longNumberWords {
		if word == candidate+"s" {
			return "", false
		}
	}
	for _, candidate := range p.longNumberWords {
		if levenshtein.ComputeDistance(word, candidate) <= 1 {
			return candidate, true
		}
	}
	return "", false
}

func kindOf(v int) wordKind {
	switch {
	case v < 10:
		return kindOnes
	case v < 20:
		return kindTeen
	default:
		return kindTens
	}
}

// resolveRun folds a run of number words into one or more integers.
func resolveRun(run []numberWord) []int {
	var values []int
	i := 0
	for i < len(run) {
		v, n := resolveOne(run[i:])
		values = append(values, v)
		i += n
	}
	return values
}

// resolveOne consumes the longest number it can from the front of run.
func resolveOne(run []numberWord) (int, int) {
	first, n := twoDigit(run)
	if n == 0 {
		// A stray multiplier or "oh" on its own.
		if run[0].kind == kindOh {
			return 0, 1
		}
		return run[0].value, 1
	}

	rest := run[n:]
	if len(rest) > 0 && !run[n-1].ordinal {
		switch rest[0].kind {
		case kindThousand:
			total := first * 1000
			tail, m := belowThousand(rest[1:])
			return total + tail, n + 1 + m
		case kindHundred:
			total := first * 100
			tail, m := twoDigit(rest[1:])
			if m > 0 {
				return total + tail, n + 1 + m
			}
			return total, n + 1
		}
		// Year grammar: "nineteen ninety eight", "twenty twenty four", "nineteen oh five".
		if first == 19 || first == 20 {
			if rest[0].kind == kindOh && len(rest) > 1 {
				return first*100 + rest[1].value, n + 2
			}
			tail, m := twoDigit(rest)
			if m > 0 && tail >= 10 {
				return first*100 + tail, n + m
			}
		}
	}
	return first, n
}

// belowThousand reads an optional "X hundred Y" or "Y" tail.
func belowThousand(run []numberWord) (int, int) {
	v, n := twoDigit(run)
	if n == 0 {
		return 0, 0
	}
	if n < len(run) && run[n].kind == kindHundred && !run[n-1].ordinal {
		tail, m := twoDigit(run[n+1:])
		return v*100 + tail, n + 1 + m
	}
	return v, n
}

// twoDigit reads 0-99: a ones/teen word, a tens word, or tens followed by ones.
func twoDigit(run []numberWord) (int, int) {
	if len(run) == 0 {
		return 0, 0
	}
	w := run[0]
	switch w.kind {
	case kindOnes, kindTeen:
		return w.value, 1
	case kindTens:
		if !w.ordinal && len(run) > 1 && run[1].kind == kindOnes && run[1].value > 0 {
			return w.value + run[1].value, 2
		}
		return w.value, 1
	}
	return 0, 0
}

// splitPunct separates leading and trailing punctuation from a token.
func splitPunct(tok string) (string, string) {
	lead, _, trail := splitToken(tok)
	return lead, trail
}

func splitToken(tok string) (lead, core, trail string) {
	start := 0
	for start < len(tok) && !isWordByte(tok[start]) {
		start++
	}
	end := len(tok)
	for end > start && !isWordByte(tok[end-1]) {
		end--
	}
	core = tok[start:end]
	for i := 0; i < len(core); i++ {
		if !isWordByte(core[i]) && core[i] != '-' {
			return "", "", ""
		}
	}
	return tok[:start], core, tok[end:]
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z'
}
