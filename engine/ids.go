// ABOUTME: ID generation helpers: UUIDs for pipelines, ULIDs for runs.
// ABOUTME: Run IDs are ULIDs so lexical order matches creation order across all pipelines.
package engine

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewPipelineID returns a random UUID string for a new pipeline.
func NewPipelineID() string {
	return uuid.NewString()
}

// NewRunID returns a ULID string for a new run. ULIDs sort by creation time,
// which ListRuns relies on for its newest-first ordering.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
