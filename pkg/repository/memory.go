package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"leadagent/pkg/model"
)

// Memory is an in-memory implementation of ProfileStore and FAQIndex, used
// in tests and for local runs without cloud credentials.
type Memory struct {
	mu       sync.RWMutex
	profiles map[memoryKey]*model.Profile
	faqs     map[string]*memoryFAQ
}

type memoryKey struct {
	category string
	userID   model.UserID
	key      string
}

type memoryFAQ struct {
	record    *model.FAQRecord
	embedding []float32
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[memoryKey]*model.Profile),
		faqs:     make(map[string]*memoryFAQ),
	}
}

func (m *Memory) GetProfile(ctx context.Context, ns model.Namespace, key string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[memoryKey{ns.Category, ns.UserID, key}]
	if !ok {
		return nil, nil
	}
	return profile.Clone(), nil
}

func (m *Memory) PutProfile(ctx context.Context, ns model.Namespace, key string, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[memoryKey{ns.Category, ns.UserID, key}] = profile.Clone()
	return nil
}

func (m *Memory) PutFAQ(ctx context.Context, record *model.FAQRecord, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	rec := *record
	m.faqs[record.ID] = &memoryFAQ{record: &rec, embedding: vec}
	return nil
}

func (m *Memory) SearchSimilarFAQs(ctx context.Context, embedding []float32, limit int) ([]*model.FAQMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*model.FAQMatch, 0, len(m.faqs))
	for _, faq := range m.faqs {
		rec := *faq.record
		matches = append(matches, &model.FAQMatch{
			Record:     &rec,
			Similarity: cosineSimilarity(embedding, faq.embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
