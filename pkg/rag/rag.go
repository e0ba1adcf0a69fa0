// Package rag defines the lore-retrieval contract used by the agents.
// Retrieval quality is someone else's problem: callers only depend on
// this interface and must tolerate empty results.
package rag

import "context"

// Indexes a retriever may serve.
const (
	IndexLore    = "lore"    // world background and locations
	IndexSession = "session" // summarized past events of one session
)

// Retriever answers free-form queries against a named index. An empty
// string result with a nil error means "nothing relevant".
type Retriever interface {
	Query(ctx context.Context, query, index, sessionID string) (string, error)
}

// Noop is the default retriever when no vector store is configured.
type Noop struct{}

func (Noop) Query(ctx context.Context, query, index, sessionID string) (string, error) {
	return "", nil
}
