package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// UnknownIdentity groups chunks that carry no identity key.
const UnknownIdentity = "Unknown"

type RetrievalMethod string

const (
	MethodLexical  RetrievalMethod = "lexical"
	MethodSemantic RetrievalMethod = "semantic"
)

// Chunk is the unit of retrieval. It is immutable once ingested.
type Chunk struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id"`
	Section     Section `json:"section"`
	IdentityKey string  `json:"identity_key,omitempty"`
	Text        string  `json:"text"`
}

// ContentHash identifies a chunk by its text for deduplication.
func (c Chunk) ContentHash() string {
	sum := sha256.Sum256([]byte(c.Text))
	return hex.EncodeToString(sum[:])
}

// Identity returns the grouping key, falling back to UnknownIdentity.
func (c Chunk) Identity() string {
	key := strings.TrimSpace(c.IdentityKey)
	if key == "" {
		return UnknownIdentity
	}
	return key
}

type RetrievedChunk struct {
	Chunk
	Score  float64         `json:"score"`
	Method RetrievalMethod `json:"method"`
}

type Answer struct {
	Text      string           `json:"text"`
	Sources   []RetrievedChunk `json:"sources"`
	Sections  []Section        `json:"sections,omitempty"`
	NoContext bool             `json:"no_context"`
}
