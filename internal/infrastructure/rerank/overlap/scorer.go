// Package overlap scores passages by lexical overlap with the query. It is
// used when no cross-encoder endpoint is configured.
package overlap

import (
	"context"
	"strings"
	"unicode"
)

type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

// Score blends the share of query tokens found in the passage with a bigram
// hit bonus. Scores fall in [0, 1].
func (s *Scorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := splitAlphaNumLower(query)
	querySet := toTokenSet(queryTokens)
	queryBigrams := bigrams(queryTokens)

	scores := make([]float64, len(passages))
	for i, passage := range passages {
		tokens := splitAlphaNumLower(passage)
		overlap := tokenOverlap(querySet, toTokenSet(tokens))
		bigramHit := tokenOverlap(queryBigrams, bigrams(tokens))
		scores[i] = 0.80*overlap + 0.20*bigramHit
	}
	return scores, nil
}

func tokenOverlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := chunk[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func bigrams(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for i := 1; i < len(tokens); i++ {
		out[tokens[i-1]+" "+tokens[i]] = struct{}{}
	}
	return out
}

func toTokenSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
