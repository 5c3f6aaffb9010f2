package retrieval

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"leadagent/pkg/adapter"
	"leadagent/pkg/repository"
	"leadagent/pkg/utils/logging"
)

const (
	// DefaultTopK is how many FAQ entries end up in the context block
	DefaultTopK = 3
	// DefaultThreshold is the minimum similarity for a result to be used
	DefaultThreshold = 0.4

	// The search fetches extra candidates so enough survive the threshold
	searchHeadroom = 2

	noResultContext = "Nenhuma informação relevante encontrada."
	resultSeparator = "\n\n---\n\n"
	failurePrefix   = "Erro ao buscar informações de suporte técnico: "
)

// Augmenter builds a short FAQ context block for a user utterance. Its
// public contract is total: Augment always returns a usable string, and any
// embedding or search failure degrades to a diagnostic message instead of
// an error.
type Augmenter struct {
	gemini    adapter.Gemini
	index     repository.FAQIndex
	topK      int
	threshold float64
}

type Option func(*Augmenter)

func WithTopK(topK int) Option {
	return func(a *Augmenter) {
		a.topK = topK
	}
}

func WithThreshold(threshold float64) Option {
	return func(a *Augmenter) {
		a.threshold = threshold
	}
}

// New creates an Augmenter
func New(gemini adapter.Gemini, index repository.FAQIndex, opts ...Option) *Augmenter {
	a := &Augmenter{
		gemini:    gemini,
		index:     index,
		topK:      DefaultTopK,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Augment returns the FAQ context block for a query. It never fails: the
// worst case is a diagnostic string the response generator can ignore.
func (a *Augmenter) Augment(ctx context.Context, query string) string {
	contextBlock, err := a.retrieve(ctx, query)
	if err != nil {
		logging.From(ctx).Warn("FAQ retrieval failed", "error", err)
		return failurePrefix + err.Error()
	}
	return contextBlock
}

func (a *Augmenter) retrieve(ctx context.Context, query string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	embedding, err := a.gemini.Embedding(ctx, normalized)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed query")
	}

	matches, err := a.index.SearchSimilarFAQs(ctx, embedding, a.topK*searchHeadroom)
	if err != nil {
		return "", goerr.Wrap(err, "failed to search FAQ index")
	}

	blocks := make([]string, 0, a.topK)
	for _, match := range matches {
		if match.Similarity < a.threshold {
			continue
		}
		blocks = append(blocks, "Q: "+match.Record.Question+"\nA: "+match.Record.Answer)
		if len(blocks) >= a.topK {
			break
		}
	}

	if len(blocks) == 0 {
		return noResultContext, nil
	}
	return strings.Join(blocks, resultSeparator), nil
}
