package usecase

import "github.com/kirillkom/resume-rag/internal/core/domain"

// fuseCandidates concatenates lexical then semantic hits and drops repeated
// content. The first copy of a chunk wins; scores are not blended.
func fuseCandidates(lexical, semantic []domain.RetrievedChunk) []domain.RetrievedChunk {
	seen := make(map[string]struct{}, len(lexical)+len(semantic))
	out := make([]domain.RetrievedChunk, 0, len(lexical)+len(semantic))
	for _, list := range [][]domain.RetrievedChunk{lexical, semantic} {
		for _, chunk := range list {
			key := chunk.ContentHash()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, chunk)
		}
	}
	return out
}

func trimCandidates(chunks []domain.RetrievedChunk, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
