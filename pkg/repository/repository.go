package repository

import (
	"context"

	"leadagent/pkg/model"
)

// ProfileStore is the key-value memory store for lead profiles. One profile
// record exists per namespace; the key is always model.ProfileKey.
type ProfileStore interface {
	// GetProfile retrieves a profile. A namespace with no prior write
	// returns (nil, nil), not an error.
	GetProfile(ctx context.Context, ns model.Namespace, key string) (*model.Profile, error)

	// PutProfile fully replaces the profile record. Merge logic happens in
	// the usecase layer, never here.
	PutProfile(ctx context.Context, ns model.Namespace, key string, profile *model.Profile) error
}

// FAQIndex is the vector index over the normalized FAQ corpus
type FAQIndex interface {
	// PutFAQ upserts a record with its embedding
	PutFAQ(ctx context.Context, record *model.FAQRecord, embedding []float32) error

	// SearchSimilarFAQs returns up to limit matches ordered by descending
	// similarity, scores in [0, 1]
	SearchSimilarFAQs(ctx context.Context, embedding []float32, limit int) ([]*model.FAQMatch, error)
}
