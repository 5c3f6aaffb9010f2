package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"leadagent/pkg/adapter"
	"leadagent/pkg/model"
	"leadagent/pkg/repository"
	"leadagent/pkg/usecase/chat"
	"leadagent/pkg/usecase/memory"
	"leadagent/pkg/usecase/retrieval"
	"leadagent/pkg/utils/logging"
	"leadagent/pkg/workflow"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("LEADAGENT_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, leadFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the conversation HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			store, index, err := cfg.newRepositories(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			archive, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}

			analytics, err := cfg.newAnalytics(ctx)
			if err != nil {
				return err
			}

			engine, err := cfg.newWorkflow(ctx)
			if err != nil {
				return err
			}

			srv := &server{
				gemini:    gemini,
				store:     store,
				augmenter: cfg.newAugmenter(gemini, index),
				updater:   cfg.newUpdater(gemini, store),
				archive:   archive,
				analytics: analytics,
				engine:    engine,
				sessions:  make(map[model.UserID]*userSession),
			}

			fmt.Fprintf(c.Root().Writer, "Listening on %s\n", addr)
			if err := http.ListenAndServe(addr, srv.router(ctx)); err != nil {
				return goerr.Wrap(err, "failed to serve", goerr.V("addr", addr))
			}
			return nil
		},
	}
}

// userSession serializes the turns of one lead. Two concurrent requests for
// the same user run one after the other against the same transcript.
type userSession struct {
	mu      sync.Mutex
	session *chat.Session
}

type server struct {
	gemini    adapter.Gemini
	store     repository.ProfileStore
	augmenter *retrieval.Augmenter
	updater   *memory.Updater
	archive   adapter.Archive
	analytics adapter.Analytics
	engine    *workflow.Engine

	mu       sync.Mutex
	sessions map[model.UserID]*userSession
}

func (s *server) router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logging.With(req.Context(), logging.From(ctx))))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/profile/{userID}", s.handleProfile)

	return r
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply     string   `json:"reply"`
	SessionID string   `json:"session_id"`
	Qualified *bool    `json:"qualified,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
}

func (s *server) userSession(userID model.UserID) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.sessions[userID]
	if !ok {
		us = &userSession{
			session: chat.New(chat.NewInput{
				Gemini:    s.gemini,
				Store:     s.store,
				Augmenter: s.augmenter,
				Updater:   s.updater,
				UserID:    userID,
			}),
		}
		s.sessions[userID] = us
	}
	return us
}

func (s *server) handleChat(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body chatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserID == "" || body.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	us := s.userSession(model.UserID(body.UserID))
	us.mu.Lock()
	defer us.mu.Unlock()

	reply, err := us.session.Send(ctx, body.Message)
	if err != nil {
		logging.From(ctx).Error("failed to run turn", "user_id", body.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate reply")
		return
	}

	resp := chatResponse{
		Reply:     reply,
		SessionID: string(us.session.ID()),
	}

	decision, err := s.engine.Evaluate(ctx, us.session.Profile())
	if err != nil {
		logging.From(ctx).Warn("failed to evaluate qualification", "user_id", body.UserID, "error", err)
	} else if decision != nil {
		resp.Qualified = &decision.Qualified
		resp.Reasons = decision.Reasons
	}

	// Archive and analytics are best-effort side channels
	event := turnEvent(us.session)
	if decision != nil {
		event.Qualified = decision.Qualified
	}
	if err := s.analytics.InsertTurn(ctx, event); err != nil {
		logging.From(ctx).Warn("failed to record turn event", "error", err)
	}
	if s.archive != nil {
		if err := s.archive.SaveTranscript(ctx, us.session.ID(), us.session.Contents()); err != nil {
			logging.From(ctx).Warn("failed to archive transcript", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleProfile(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	userID := model.UserID(chi.URLParam(req, "userID"))
	ns := model.NewMemoryNamespace(userID)

	profile, err := s.store.GetProfile(ctx, ns, model.ProfileKey)
	if err != nil {
		logging.From(ctx).Error("failed to load profile", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
