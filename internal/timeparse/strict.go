package timeparse

import (
	"context"
	"regexp"
	"time"
)

var strictTokenRE = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))\b`)

// strictLayouts are the unambiguous numeric templates. Go's "1" and "2"
// verbs accept an optional leading zero, so "1/2/2006" also covers MM/DD/YYYY.
var strictLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
}

type strictStrategy struct{}

func (strictStrategy) Name() string { return "strict_format" }

func (strictStrategy) Attempt(_ context.Context, in Input) (Match, bool) {
	token := strictTokenRE.FindString(in.Lower)
	if token == "" {
		return Match{}, false
	}
	for _, layout := range strictLayouts {
		d, err := time.ParseInLocation(layout, token, in.Now.Location())
		if err != nil {
			continue
		}
		return Match{
			Date:       d,
			Clock:      extractClock(in.Text),
			Confidence: ConfidenceHigh,
		}, true
	}
	return Match{}, false
}
