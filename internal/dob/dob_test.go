package dob

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	"github.com/wolfman30/voice-normalizers/internal/vocab"
)

var refNow = time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

func newTestNormalizer(level Level) *Normalizer {
	n := NewNormalizer(nil, level, nil)
	n.now = func() time.Time { return refNow }
	return n
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer(LevelStandard)
	cases := []struct {
		in     string
		want   string
		method string
	}{
		{"01/15/1980", "1980-01-15", "strict_format"},
		{"15/01/1980", "1980-01-15", "strict_format"},
		{"13/05/1990", "1990-05-13", "strict_format"},
		{"1980-01-15", "1980-01-15", "strict_format"},
		{"1.15.80", "1980-01-15", "strict_format"},
		{"March 21st, 1990", "1990-03-21", "strict_format"},
		{"I was born 15 January 1990", "1990-01-15", "strict_format"},
		{"02/29/2024", "2024-02-29", "strict_format"},
		{"011580", "1980-01-15", "continuous_digits"},
		{"19800115", "1980-01-15", "continuous_digits"},
		{"zero one one five eight zero", "1980-01-15", "continuous_digits"},
		{"the eleventh of nov two thousand", "2000-11-11", "spoken_numbers"},
		{"june third, nineteen eighty", "1980-06-03", "spoken_numbers"},
		{"march third two thousand eleven", "2011-03-03", "spoken_numbers"},
		{"four fifteen ninety four", "1994-04-15", "voice_pattern"},
		{"13 05 1990", "1990-05-13", "voice_pattern"},
		{"3rd day of june 1985", "1985-06-03", "loose"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r := n.Normalize(context.Background(), tc.in)
			require.Equal(t, TypeSuccess, r.Type)
			require.NotNil(t, r.DOBISO)
			assert.Equal(t, tc.want, *r.DOBISO)
			assert.Equal(t, tc.method, r.Method)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	n := newTestNormalizer(LevelStandard)
	for _, in := range []string{
		"February 30, 1990",
		"02/29/2023",
		"01/01/1890",
		"12/25/2030",
		"march 20 2025",
		"i don't remember",
		"",
	} {
		t.Run(in, func(t *testing.T) {
			r := n.Normalize(context.Background(), in)
			assert.Equal(t, TypeUnable, r.Type)
			assert.Nil(t, r.DOBISO)
		})
	}
}

func TestMissingYearShiftsBack(t *testing.T) {
	n := newTestNormalizer(LevelStandard)

	r := n.Normalize(context.Background(), "march 20")
	require.NotNil(t, r.DOBISO)
	assert.Equal(t, "2024-03-20", *r.DOBISO)

	r = n.Normalize(context.Background(), "march 1")
	require.NotNil(t, r.DOBISO)
	assert.Equal(t, "2025-03-01", *r.DOBISO)
}

func TestYearBand(t *testing.T) {
	n := newTestNormalizer(LevelStandard)

	r := n.Normalize(context.Background(), "01/01/1905")
	require.NotNil(t, r.DOBISO)
	assert.Equal(t, "1905-01-01", *r.DOBISO)

	r = n.Normalize(context.Background(), "12/31/1904")
	assert.Equal(t, TypeUnable, r.Type)
}

func TestLevels(t *testing.T) {
	ctx := context.Background()

	r := newTestNormalizer(LevelStrict).Normalize(ctx, "3rd day of june 1985")
	assert.Equal(t, TypeUnable, r.Type, "strict disables loose parsing")

	r = newTestNormalizer(LevelStandard).Normalize(ctx, "septembr 3 1985")
	assert.Equal(t, TypeUnable, r.Type, "standard needs exact month names")

	r = newTestNormalizer(LevelLoose).Normalize(ctx, "septembr 3 1985")
	require.NotNil(t, r.DOBISO)
	assert.Equal(t, "1985-09-03", *r.DOBISO)
	assert.Equal(t, "loose", r.Method)

	r = newTestNormalizer(LevelStandard).Normalize(ctx, "1990年01月15日")
	assert.Equal(t, TypeUnable, r.Type)
	r = newTestNormalizer(LevelLoose).Normalize(ctx, "1990年01月15日")
	require.Equal(t, TypeSuccess, r.Type)
	assert.Equal(t, "1990-01-15", *r.DOBISO)
	assert.Equal(t, "loose", r.Method)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"":         LevelStandard,
		"standard": LevelStandard,
		" STRICT ": LevelStrict,
		"loose":    LevelLoose,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("lenient")
	assert.Error(t, err)
}

func TestExpandYear(t *testing.T) {
	today := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1980, expandYear(80, today))
	assert.Equal(t, 1926, expandYear(26, today))
	assert.Equal(t, 2025, expandYear(25, today))
	assert.Equal(t, 2005, expandYear(5, today))
}

func TestFuzzyMonth(t *testing.T) {
	p := newParser(vocab.Default())
	cases := []struct {
		word string
		want time.Month
		ok   bool
	}{
		{"septembr", time.September, true},
		{"febuary", time.February, true},
		{"mrch", time.March, true},
		{"jun", 0, false},
		{"bogus", 0, false},
	}
	for _, tc := range cases {
		got, ok := p.fuzzyMonth(tc.word)
		assert.Equal(t, tc.ok, ok, tc.word)
		assert.Equal(t, tc.want, got, tc.word)
	}
}

func TestCachedNormalizer(t *testing.T) {
	ctx := context.Background()
	n := newTestNormalizer(LevelStandard)
	c := NewCachedNormalizer(n, cache.NewMemoryCache(10, time.Hour), time.Hour, nil)

	first := c.Normalize(ctx, "01/15/1980")
	require.NotNil(t, first.DOBISO)
	assert.Equal(t, "strict_format", first.Method)

	second := c.Normalize(ctx, "  01/15/1980 ")
	require.NotNil(t, second.DOBISO)
	assert.Equal(t, *first.DOBISO, *second.DOBISO)
	assert.Equal(t, "cache", second.Method)

	miss := c.Normalize(ctx, "no idea")
	assert.Equal(t, TypeUnable, miss.Type)
	again := c.Normalize(ctx, "no idea")
	assert.Equal(t, TypeUnable, again.Type)
	assert.Nil(t, again.DOBISO)
}
