// Package textnorm cleans up transcribed speech before date parsing:
// lowercasing, spoken numbers to digits, repair of words glued together by
// the transcriber, typo and synonym tables, and whitespace collapsing.
package textnorm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wolfman30/voice-normalizers/internal/vocab"
)

var spaceRE = regexp.MustCompile(`\s+`)

// Stages exposes the text after each interesting preprocessing step.
type Stages struct {
	// Lower is the trimmed, lowercased input.
	Lower string
	// Corrected has numbers converted, glued words split and typos fixed,
	// but no synonym substitution. Markers such as "noon" or "asap" survive here.
	Corrected string
	// Text is the fully normalized text handed to the parsers.
	Text string
}

// Preprocessor applies the vocabulary tables. It is immutable after New and
// safe for concurrent use.
type Preprocessor struct {
	vocab           *vocab.Vocabulary
	keywords        map[string]bool
	protected       map[string]bool
	longNumberWords []string
	synonyms        []synonymRule
	typoRE          *regexp.Regexp
}

type synonymRule struct {
	re *regexp.Regexp
	to string
}

// New compiles the vocabulary into a Preprocessor. A nil vocabulary uses vocab.Default().
func New(v *vocab.Vocabulary) *Preprocessor {
	if v == nil {
		v = vocab.Default()
	}
	p := &Preprocessor{
		vocab:     v,
		keywords:  make(map[string]bool, len(v.TemporalKeywords)),
		protected: make(map[string]bool, len(v.ProtectedWords)),
	}
	for _, k := range v.TemporalKeywords {
		p.keywords[k] = true
	}
	for _, w := range v.ProtectedWords {
		p.protected[w] = true
	}
	for w := range v.Cardinals {
		if len(w) >= 6 {
			p.longNumberWords = append(p.longNumberWords, w)
		}
	}
	for w := range v.Ordinals {
		if len(w) >= 6 {
			p.longNumberWords = append(p.longNumberWords, w)
		}
	}
	p.longNumberWords = append(p.longNumberWords, "hundred", "thousand")
	sort.Strings(p.longNumberWords)

	for _, r := range v.Synonyms {
		p.synonyms = append(p.synonyms, synonymRule{
			re: regexp.MustCompile(`\b` + regexp.QuoteMeta(r.From) + `\b`),
			to: r.To,
		})
	}
	if len(v.Typos) > 0 {
		words := make([]string, 0, len(v.Typos))
		for w := range v.Typos {
			words = append(words, regexp.QuoteMeta(w))
		}
		sort.Slice(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
		p.typoRE = regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
	}
	return p
}

// Vocabulary returns the tables the preprocessor was built from.
func (p *Preprocessor) Vocabulary() *vocab.Vocabulary {
	return p.vocab
}

// Normalize runs the full pipeline and returns the final text.
func (p *Preprocessor) Normalize(text string) string {
	return p.Run(text).Text
}

// Run executes the pipeline in its fixed order and reports intermediate stages.
func (p *Preprocessor) Run(text string) Stages {
	lower := CollapseSpace(strings.ToLower(text))
	corrected := p.ConvertNumbers(lower)
	corrected = p.SplitConcatenated(corrected)
	corrected = p.FixTypos(corrected)
	corrected = CollapseSpace(corrected)
	final := CollapseSpace(p.ApplySynonyms(corrected))
	return Stages{Lower: lower, Corrected: corrected, Text: final}
}

// FixTypos replaces whole-word misspellings from the typo table.
func (p *Preprocessor) FixTypos(text string) string {
	if p.typoRE == nil {
		return text
	}
	return p.typoRE.ReplaceAllStringFunc(text, func(w string) string {
		return p.vocab.Typos[w]
	})
}

// ApplySynonyms rewrites phrases such as "noon" or "end of day" into parseable forms.
func (p *Preprocessor) ApplySynonyms(text string) string {
	for _, s := range p.synonyms {
		text = s.re.ReplaceAllLiteralString(text, s.to)
	}
	return text
}

// CollapseSpace trims and collapses runs of whitespace.
func CollapseSpace(text string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(text, " "))
}
