package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// TurnEvent is one row of the lead funnel analytics table
type TurnEvent struct {
	UserID       string    `bigquery:"user_id"`
	SessionID    string    `bigquery:"session_id"`
	Turn         int       `bigquery:"turn"`
	FilledFields int       `bigquery:"filled_fields"`
	Qualified    bool      `bigquery:"qualified"`
	CreatedAt    time.Time `bigquery:"created_at"`
}

// Analytics records per-turn funnel events. Implementations must be safe to
// call from concurrent turns.
type Analytics interface {
	InsertTurn(ctx context.Context, event *TurnEvent) error
}

type bigqueryAnalytics struct {
	inserter *bigquery.Inserter
}

// NewBigQueryAnalytics creates an Analytics sink streaming rows into BigQuery
func NewBigQueryAnalytics(ctx context.Context, projectID, datasetID, tableID string) (Analytics, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryAnalytics{
		inserter: client.Dataset(datasetID).Table(tableID).Inserter(),
	}, nil
}

func (a *bigqueryAnalytics) InsertTurn(ctx context.Context, event *TurnEvent) error {
	if err := a.inserter.Put(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to insert turn event")
	}
	return nil
}

// NoopAnalytics is used when no analytics destination is configured
type NoopAnalytics struct{}

func (NoopAnalytics) InsertTurn(ctx context.Context, event *TurnEvent) error {
	return nil
}
