// Package classifier implements the statistical text classifier behind the
// classifier agent: a TF-IDF vectorizer feeding a random forest.
package classifier

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned when fitting finds no usable tokens.
var ErrEmptyVocabulary = errors.New("classifier: empty vocabulary; documents contain only stop words or short tokens")

// Vector is a sparse feature vector. Index is sorted ascending.
type Vector struct {
	Index []int
	Value []float64
}

// At returns the value of feature i.
func (v Vector) At(i int) float64 {
	k, ok := slices.BinarySearch(v.Index, i)
	if !ok {
		return 0
	}
	return v.Value[k]
}

// Vectorizer turns documents into L2-normalized TF-IDF vectors.
//
// Tokens are lowercased runs of at least two letters, digits or
// underscores. Terms are n-grams of consecutive tokens from MinN to MaxN.
// When MaxFeatures is positive only the most frequent terms across the
// fitted corpus are kept.
type Vectorizer struct {
	MinN        int
	MaxN        int
	MaxFeatures int

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer returns a vectorizer over unigrams and bigrams keeping at
// most maxFeatures terms.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MinN: 1, MaxN: 2, MaxFeatures: maxFeatures}
}

// Tokenize splits s into lowercase word tokens.
func Tokenize(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 2 {
			out = append(out, w)
		}
	}
	return out
}

func (v *Vectorizer) ngrams(doc string) []string {
	tokens := Tokenize(doc)
	minN, maxN := max(v.MinN, 1), max(v.MaxN, v.MinN, 1)
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit learns the vocabulary and inverse document frequencies of docs.
func (v *Vectorizer) Fit(docs []string) error {
	type stat struct {
		tf int
		df int
	}
	stats := make(map[string]*stat)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.ngrams(doc) {
			s, ok := stats[term]
			if !ok {
				s = &stat{}
				stats[term] = s
			}
			s.tf++
			if !seen[term] {
				seen[term] = true
				s.df++
			}
		}
	}
	if len(stats) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(stats))
	for term := range stats {
		terms = append(terms, term)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		slices.SortFunc(terms, func(a, b string) int {
			if c := cmp.Compare(stats[b].tf, stats[a].tf); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		terms = terms[:v.MaxFeatures]
	}
	slices.Sort(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(stats[term].df))) + 1
	}
	return nil
}

// Transform maps docs into the fitted feature space. Unknown terms are
// ignored.
func (v *Vectorizer) Transform(docs []string) ([]Vector, error) {
	if v.vocab == nil {
		return nil, ErrNotTrained
	}
	out := make([]Vector, len(docs))
	for d, doc := range docs {
		counts := make(map[int]float64)
		for _, term := range v.ngrams(doc) {
			if i, ok := v.vocab[term]; ok {
				counts[i]++
			}
		}
		vec := Vector{Index: make([]int, 0, len(counts))}
		for i := range counts {
			vec.Index = append(vec.Index, i)
		}
		slices.Sort(vec.Index)
		vec.Value = make([]float64, len(vec.Index))
		for k, i := range vec.Index {
			vec.Value[k] = counts[i] * v.idf[i]
		}
		if norm := floats.Norm(vec.Value, 2); norm > 0 {
			floats.Scale(1/norm, vec.Value)
		}
		out[d] = vec
	}
	return out, nil
}

// FitTransform fits docs and returns their vectors.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// Vocabulary returns the fitted terms in feature order.
func (v *Vectorizer) Vocabulary() []string {
	return slices.Clone(v.terms)
}

// Features returns the size of the fitted feature space.
func (v *Vectorizer) Features() int {
	return len(v.terms)
}
