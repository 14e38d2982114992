// Package queries produces the simulated tourist search queries an audit
// run fans out to the SERP provider.
package queries

import (
	"context"

	"github.com/serplens/serplens/internal/serp"
)

// DefaultTopics are the subject areas queries are spread across when the
// caller does not supply its own list.
var DefaultTopics = []string{
	"cultural events",
	"concerts and live music",
	"exhibitions and museums",
	"festivals",
	"restaurants and local cuisine",
	"tourist attractions",
	"sports and outdoor activities",
	"nightlife",
	"shopping",
	"guided tours",
}

// DefaultLanguages are the languages queries are balanced across by default.
var DefaultLanguages = []string{"it", "fr", "en"}

// Producer generates search queries for an audit run.
type Producer interface {
	Generate(ctx context.Context, n int, languages []string) ([]serp.QueryMetadata, error)
}
