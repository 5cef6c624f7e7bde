package bm25

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const (
	k1 = 1.2
	b  = 0.75
)

type posting struct {
	doc   int
	count int
}

// Index is an immutable in-memory BM25 index over a corpus snapshot.
type Index struct {
	chunks   []domain.Chunk
	inverted map[string][]posting
	docLens  []int
	avgLen   float64
}

// New indexes chunks in the order given; that order breaks score ties.
func New(chunks []domain.Chunk) *Index {
	idx := &Index{
		chunks:   make([]domain.Chunk, len(chunks)),
		inverted: make(map[string][]posting),
		docLens:  make([]int, len(chunks)),
	}
	copy(idx.chunks, chunks)

	var total int
	for i, chunk := range idx.chunks {
		tokens := Tokenize(chunk.Text)
		idx.docLens[i] = len(tokens)
		total += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t, count := range tf {
			idx.inverted[t] = append(idx.inverted[t], posting{doc: i, count: count})
		}
	}
	if len(idx.chunks) > 0 {
		idx.avgLen = float64(total) / float64(len(idx.chunks))
	}
	return idx
}

// Builder adapts New to the lexical index port.
func Builder(chunks []domain.Chunk) ports.LexicalIndex {
	return New(chunks)
}

func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search returns up to limit chunks with a positive score, best first.
func (idx *Index) Search(query string, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(idx.chunks) == 0 {
		return nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	n := float64(len(idx.chunks))
	scores := make(map[int]float64)
	for _, term := range terms {
		postings := idx.inverted[term]
		if len(postings) == 0 {
			continue
		}
		df := float64(len(postings))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range postings {
			tf := float64(p.count)
			norm := 1 - b
			if idx.avgLen > 0 {
				norm += b * float64(idx.docLens[p.doc]) / idx.avgLen
			}
			scores[p.doc] += idf * (tf * (k1 + 1)) / (tf + k1*norm)
		}
	}

	docs := make([]int, 0, len(scores))
	for doc, score := range scores {
		if score > 0 {
			docs = append(docs, doc)
		}
	}
	sort.Ints(docs)
	sort.SliceStable(docs, func(i, j int) bool {
		return scores[docs[i]] > scores[docs[j]]
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}

	out := make([]domain.RetrievedChunk, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.RetrievedChunk{
			Chunk:  idx.chunks[doc],
			Score:  scores[doc],
			Method: domain.MethodLexical,
		})
	}
	return out
}

// Tokenize lowercases s and splits it into letter/digit runs.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var sb strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			continue
		}
		if sb.Len() > 0 {
			out = append(out, sb.String())
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}
