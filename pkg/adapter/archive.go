package adapter

import (
	"context"
	"encoding/json"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"leadagent/pkg/model"
)

// Archive persists conversation transcripts outside the memory store, one
// JSON object per session.
type Archive interface {
	SaveTranscript(ctx context.Context, id model.SessionID, contents []*genai.Content) error
	LoadTranscript(ctx context.Context, id model.SessionID) ([]*genai.Content, error)
}

// storageArchive implements Archive using Cloud Storage
type storageArchive struct {
	bucketName string
	client     *storage.Client
}

// NewArchive creates a Cloud Storage backed transcript archive
func NewArchive(ctx context.Context, bucketName string) (Archive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageArchive{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func transcriptKey(id model.SessionID) string {
	return "transcripts/" + string(id) + ".json"
}

func (s *storageArchive) SaveTranscript(ctx context.Context, id model.SessionID, contents []*genai.Content) error {
	data, err := json.Marshal(contents)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal transcript")
	}

	obj := s.client.Bucket(s.bucketName).Object(transcriptKey(id))
	writer := obj.NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write transcript", goerr.Value("session", id))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close transcript writer", goerr.Value("session", id))
	}

	return nil
}

func (s *storageArchive) LoadTranscript(ctx context.Context, id model.SessionID) ([]*genai.Content, error) {
	obj := s.client.Bucket(s.bucketName).Object(transcriptKey(id))
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read transcript", goerr.Value("session", id))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read transcript data", goerr.Value("session", id))
	}

	var contents []*genai.Content
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal transcript", goerr.Value("session", id))
	}

	return contents, nil
}
