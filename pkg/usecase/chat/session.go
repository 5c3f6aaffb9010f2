package chat

import (
	"context"
	_ "embed"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"leadagent/pkg/adapter"
	"leadagent/pkg/model"
	"leadagent/pkg/repository"
	"leadagent/pkg/usecase/memory"
	"leadagent/pkg/usecase/retrieval"
	"leadagent/pkg/utils/logging"
)

//go:embed prompt/system.md
var systemPromptRaw string

// Session holds one lead conversation. Each Send is one turn: fetch the
// memory snapshot and FAQ context, generate the reply, then re-derive and
// commit the profile from the full transcript including that reply.
type Session struct {
	gemini    adapter.Gemini
	store     repository.ProfileStore
	augmenter *retrieval.Augmenter
	updater   *memory.Updater

	id       model.SessionID
	userID   model.UserID
	contents []*genai.Content
	profile  *model.Profile
}

// NewInput contains parameters for creating a chat session
type NewInput struct {
	Gemini    adapter.Gemini
	Store     repository.ProfileStore
	Augmenter *retrieval.Augmenter
	Updater   *memory.Updater
	UserID    model.UserID

	// Optional: resume from an archived transcript
	Contents []*genai.Content
}

// New creates a chat session for one user
func New(input NewInput) *Session {
	return &Session{
		gemini:    input.Gemini,
		store:     input.Store,
		augmenter: input.Augmenter,
		updater:   input.Updater,

		id:       model.NewSessionID(),
		userID:   input.UserID,
		contents: input.Contents,
	}
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID {
	return s.id
}

// UserID returns the lead identity this session belongs to
func (s *Session) UserID() model.UserID {
	return s.userID
}

// Contents returns the transcript accumulated so far
func (s *Session) Contents() []*genai.Content {
	return s.contents
}

// Profile returns the profile committed by the most recent turn
func (s *Session) Profile() *model.Profile {
	return s.profile
}

// Turns returns the number of user messages sent so far
func (s *Session) Turns() int {
	n := 0
	for _, content := range s.contents {
		if content.Role == genai.RoleUser {
			n++
		}
	}
	return n
}

// Send runs one conversation turn and returns the assistant reply
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	ns := model.NewMemoryNamespace(s.userID)
	profile, err := s.store.GetProfile(ctx, ns, model.ProfileKey)
	if err != nil {
		return "", goerr.Wrap(err, "failed to load memory snapshot")
	}

	ragContext := s.augmenter.Augment(ctx, message)
	systemPrompt := buildSystemPrompt(profile.FormatMemory(), ragContext)

	s.contents = append(s.contents, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
	}
	resp, err := s.gemini.GenerateContent(ctx, s.contents, config)
	if err != nil {
		// Drop the pending user message so a retried Send does not leave
		// two consecutive user turns in the transcript
		s.contents = s.contents[:len(s.contents)-1]
		return "", goerr.Wrap(err, "failed to generate reply")
	}

	reply := replyText(resp)
	if reply == "" {
		s.contents = s.contents[:len(s.contents)-1]
		return "", goerr.New("model returned an empty reply")
	}
	s.contents = append(s.contents, resp.Candidates[0].Content)

	// Memory extraction reads the complete transcript, reply included. A
	// failed commit degrades to an unchanged profile for this turn; the
	// reply is still delivered.
	committed, err := s.updater.RunTurn(ctx, s.userID, s.contents)
	if err != nil {
		logging.From(ctx).Warn("profile update skipped for this turn",
			"user_id", s.userID, "error", err)
	} else {
		s.profile = committed
	}

	return reply, nil
}

func buildSystemPrompt(memoryBlock, ragContext string) string {
	return strings.NewReplacer(
		"{memory}", memoryBlock,
		"{rag_context}", ragContext,
	).Replace(systemPromptRaw)
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
