package embedding

import "context"

// Task types passed to providers that distinguish query vs document embeddings.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider defines the interface for generating text embeddings
type Provider interface {
	// Embed converts text into a fixed-width embedding vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector width this provider produces.
	// Must stay constant for the lifetime of the process.
	Dimensions() int
}
