package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"leadagent/pkg/model"
)

const (
	defaultFAQCollection = "faq_embeddings"
	recordsCollection    = "records"
	distanceField        = "vector_distance"
)

// Firestore implements ProfileStore and FAQIndex using Firestore. Profiles
// live under {category}/{user_id}/records/{key}; FAQ records live in a flat
// collection with a vector field for FindNearest queries.
type Firestore struct {
	client        *firestore.Client
	faqCollection string
}

type FirestoreOption func(*Firestore)

func WithFAQCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		f.faqCollection = name
	}
}

// NewFirestore creates a Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	f := &Firestore{
		client:        client,
		faqCollection: defaultFAQCollection,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) profileDoc(ns model.Namespace, key string) *firestore.DocumentRef {
	return f.client.Collection(ns.Category).
		Doc(string(ns.UserID)).
		Collection(recordsCollection).
		Doc(key)
}

func (f *Firestore) GetProfile(ctx context.Context, ns model.Namespace, key string) (*model.Profile, error) {
	snap, err := f.profileDoc(ns, key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get profile",
			goerr.V("category", ns.Category), goerr.V("user_id", ns.UserID))
	}

	var profile model.Profile
	if err := snap.DataTo(&profile); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile document")
	}

	return &profile, nil
}

func (f *Firestore) PutProfile(ctx context.Context, ns model.Namespace, key string, profile *model.Profile) error {
	if _, err := f.profileDoc(ns, key).Set(ctx, profile); err != nil {
		return goerr.Wrap(err, "failed to put profile",
			goerr.V("category", ns.Category), goerr.V("user_id", ns.UserID))
	}
	return nil
}

// faqDoc is the stored shape of a FAQ record with its embedding
type faqDoc struct {
	model.FAQRecord
	Embedding firestore.Vector32 `firestore:"embedding"`
}

func (f *Firestore) PutFAQ(ctx context.Context, record *model.FAQRecord, embedding []float32) error {
	doc := &faqDoc{
		FAQRecord: *record,
		Embedding: firestore.Vector32(embedding),
	}
	if _, err := f.client.Collection(f.faqCollection).Doc(record.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put FAQ record", goerr.V("id", record.ID))
	}
	return nil
}

func (f *Firestore) SearchSimilarFAQs(ctx context.Context, embedding []float32, limit int) ([]*model.FAQMatch, error) {
	query := f.client.Collection(f.faqCollection).FindNearest(
		"embedding",
		firestore.Vector32(embedding),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		},
	)

	it := query.Documents(ctx)
	defer it.Stop()

	var matches []*model.FAQMatch
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate FAQ search results")
		}

		var doc faqDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode FAQ document")
		}

		similarity := 0.0
		if dist, ok := snap.Data()[distanceField].(float64); ok {
			similarity = 1 - dist
		}
		if similarity < 0 {
			similarity = 0
		} else if similarity > 1 {
			similarity = 1
		}

		record := doc.FAQRecord
		matches = append(matches, &model.FAQMatch{
			Record:     &record,
			Similarity: similarity,
		})
	}

	return matches, nil
}
