package domain

import "time"

// ProfileRecord is the structured identity stored per resume.
type ProfileRecord struct {
	IdentityKey string    `json:"identity_key"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	SourceID    string    `json:"source_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SourceDocument is a resume file read from the data directory during ingestion.
type SourceDocument struct {
	ID       string
	Filename string
	Text     string
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
	Profiles  int      `json:"profiles"`
	Skipped   []string `json:"skipped,omitempty"`
}
