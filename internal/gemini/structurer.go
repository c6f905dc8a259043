// Package gemini adapts the Gemini agent runtime to the profile
// structuring interface. Each call runs inside a throwaway in-memory
// session and is paced by a shared rate limiter.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	adkgemini "google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/talentmatch/matchworker/internal/extract"
	"github.com/talentmatch/matchworker/internal/logger"
	"github.com/talentmatch/matchworker/internal/profile"
)

const structurerUser = "matchworker"

type Config struct {
	APIKey string
	Model  string
	// RequestsPerMinute throttles calls across all workers. Zero or
	// negative disables throttling.
	RequestsPerMinute int
}

// Structurer implements extract.Structurer against the Gemini API.
type Structurer struct {
	runner   *runner.Runner
	sessions session.Service
	appName  string
	limiter  *rate.Limiter
	log      *zap.Logger
}

func New(ctx context.Context, cfg Config, log *zap.Logger) (*Structurer, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}
	if log == nil {
		log = zap.NewNop()
	}

	model, err := adkgemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %v", err)
	}

	parser, err := llmagent.New(llmagent.Config{
		Name:        "profile structurer",
		Model:       model,
		Description: "Structure resume text",
		Instruction: prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %v", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        parser.Name(),
		Agent:          parser,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %v", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Structurer{
		runner:   r,
		sessions: sessions,
		appName:  parser.Name(),
		limiter:  rate.NewLimiter(limit, 1),
		log:      log,
	}, nil
}

// Structure sends one resume through the agent and parses the JSON reply.
func (s *Structurer) Structure(ctx context.Context, text string, schema extract.Schema) (*profile.Snapshot, float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, classify(err)
	}

	created, err := s.sessions.Create(ctx, &session.CreateRequest{
		AppName:   s.appName,
		UserID:    structurerUser,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return nil, 0, classify(err)
	}
	defer func() {
		err := s.sessions.Delete(context.Background(), &session.DeleteRequest{
			AppName:   created.Session.AppName(),
			UserID:    created.Session.UserID(),
			SessionID: created.Session.ID(),
		})
		if err != nil {
			s.log.Warn("failed to delete agent session", zap.Error(err))
		}
	}()

	stream := s.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: buildMessage(schema, text)},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return nil, 0, classify(err)
		}
		if event != nil && event.IsFinalResponse() && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if strings.TrimSpace(output) == "" {
		return nil, 0, fmt.Errorf("%w: empty model response", extract.ErrInvalidResponse)
	}
	s.log.Debug("model response", zap.String("body", logger.Truncate(output, 400)))

	return parseResponse(output)
}

func buildMessage(schema extract.Schema, text string) string {
	var fields strings.Builder
	for _, f := range schema {
		fmt.Fprintf(&fields, "- %s (%s)\n", f.Name, f.Type)
	}
	return fmt.Sprintf("Fields to extract:\n%s\nResume:\n%s", fields.String(), text)
}

func parseResponse(output string) (*profile.Snapshot, float64, error) {
	var resp struct {
		profile.Snapshot
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(output)), &resp); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", extract.ErrInvalidResponse, err)
	}
	return &resp.Snapshot, resp.Confidence, nil
}

// cleanJSON strips the markdown code fences models like to wrap JSON in.
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// classify maps transport failures onto the extraction error taxonomy.
// Parent-context cancellation passes through untouched so the caller can
// tell a shutdown from a slow backend.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", extract.ErrStructuringTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", extract.ErrStructuringUnavailable, err)
	}
}
