// Package textindex builds a TF-IDF vocabulary over freelancer skills and
// projects free text into that vocabulary for cosine comparison.
//
// Weighting follows the smoothed formulation: raw term counts multiplied by
// idf(t) = ln((1+n)/(1+df(t))) + 1, then L2-normalized per document. Terms are
// lowercased unigrams of two or more word characters.
package textindex

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	defaultMinDF = 1
	defaultMaxDF = 0.8
	minTokenLen  = 2
)

var wordRun = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Option configures Fit.
type Option func(*config)

type config struct {
	minDF int
	maxDF float64
}

// WithMinDF drops terms that occur in fewer than n documents.
func WithMinDF(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.minDF = n
		}
	}
}

// WithMaxDF drops terms that occur in more than the given proportion of documents.
func WithMaxDF(p float64) Option {
	return func(c *config) {
		if p > 0 && p <= 1 {
			c.maxDF = p
		}
	}
}

// Index is a fitted vocabulary with per-term inverse document frequencies.
// It is read-only after Fit and safe for concurrent use.
type Index struct {
	vocab map[string]int
	terms []string
	idf   []float64
}

// Fit builds the vocabulary from a corpus of documents.
func Fit(docs []string, opts ...Option) *Index {
	cfg := config{minDF: defaultMinDF, maxDF: defaultMaxDF}
	for _, opt := range opts {
		opt(&cfg)
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := len(docs)
	maxDocCount := cfg.maxDF * float64(n)
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= cfg.minDF && float64(count) <= maxDocCount {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	idx := &Index{
		vocab: make(map[string]int, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
	}
	for i, term := range terms {
		idx.vocab[term] = i
		idx.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	return idx
}

// Size returns the number of vocabulary terms.
func (x *Index) Size() int {
	return len(x.terms)
}

// Terms returns the vocabulary in index order.
func (x *Index) Terms() []string {
	out := make([]string, len(x.terms))
	copy(out, x.terms)
	return out
}

// Transform projects text into the vocabulary. Unknown terms are ignored.
func (x *Index) Transform(text string) Vector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(text) {
		if i, ok := x.vocab[tok]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	v := Vector{
		idx: make([]int, 0, len(counts)),
		val: make([]float64, 0, len(counts)),
	}
	for i := range counts {
		v.idx = append(v.idx, i)
	}
	sort.Ints(v.idx)

	var norm float64
	for _, i := range v.idx {
		w := counts[i] * x.idf[i]
		v.val = append(v.val, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for k := range v.val {
		v.val[k] /= norm
	}
	return v
}

// TransformTokens joins tokens with spaces and transforms the result.
func (x *Index) TransformTokens(tokens []string) Vector {
	return x.Transform(strings.Join(tokens, " "))
}

// Tokenize lowercases text and returns its word runs of at least two characters.
func Tokenize(text string) []string {
	runs := wordRun.FindAllString(strings.ToLower(text), -1)
	out := runs[:0]
	for _, r := range runs {
		if utf8.RuneCountInString(r) >= minTokenLen {
			out = append(out, r)
		}
	}
	return out
}
