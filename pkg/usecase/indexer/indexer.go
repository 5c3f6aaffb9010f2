package indexer

import (
	"context"
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"leadagent/pkg/adapter"
	"leadagent/pkg/model"
	"leadagent/pkg/repository"
	"leadagent/pkg/utils/logging"
)

// DefaultConcurrency bounds how many records are embedded at once
const DefaultConcurrency = 4

// Result summarizes one indexing run
type Result struct {
	Indexed int64
	Skipped int64
	Failed  int64
}

// Indexer embeds normalized FAQ records and writes them to the vector index
type Indexer struct {
	gemini      adapter.Gemini
	index       repository.FAQIndex
	concurrency int
}

type Option func(*Indexer)

func WithConcurrency(n int) Option {
	return func(x *Indexer) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// New creates an Indexer
func New(gemini adapter.Gemini, index repository.FAQIndex, opts ...Option) *Indexer {
	x := &Indexer{
		gemini:      gemini,
		index:       index,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// LoadCorpus reads a normalized FAQ corpus from a JSON array file
func LoadCorpus(path string) ([]*model.FAQRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus file", goerr.V("path", path))
	}

	var records []*model.FAQRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, goerr.Wrap(err, "corpus file is not a valid JSON array", goerr.V("path", path))
	}

	return records, nil
}

// Run embeds and stores every record with a non-empty embedding input.
// A record that fails to embed or store is counted and logged, not fatal:
// a partial index is still a usable index.
func (x *Indexer) Run(ctx context.Context, records []*model.FAQRecord) (*Result, error) {
	var result Result

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.concurrency)

	for _, record := range records {
		if record.EmbeddingInput == "" {
			atomic.AddInt64(&result.Skipped, 1)
			logging.From(ctx).Warn("record has no embedding input, skipped", "id", record.ID)
			continue
		}

		eg.Go(func() error {
			if err := x.indexRecord(ctx, record); err != nil {
				atomic.AddInt64(&result.Failed, 1)
				logging.From(ctx).Error("failed to index record", "id", record.ID, "error", err)
				return nil
			}
			atomic.AddInt64(&result.Indexed, 1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to index corpus")
	}

	return &result, nil
}

func (x *Indexer) indexRecord(ctx context.Context, record *model.FAQRecord) error {
	embedding, err := x.gemini.Embedding(ctx, record.EmbeddingInput)
	if err != nil {
		return goerr.Wrap(err, "failed to embed record")
	}

	if err := x.index.PutFAQ(ctx, record, embedding); err != nil {
		return goerr.Wrap(err, "failed to store record")
	}

	return nil
}
