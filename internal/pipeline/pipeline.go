// Package pipeline orchestrates a question through classification, community
// selection, perspective generation, and persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pluralign/prism/internal/controversy"
	"github.com/pluralign/prism/internal/perspective"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

// Classifier decides how controversial a query is and which topic it belongs
// to. The model-backed classifier satisfies this; when nil, rule-based
// classification is used directly.
type Classifier interface {
	ClassifyQuery(ctx context.Context, query string, userCommunities []string) (controversy.Profile, string)
}

// Response is the full outcome of answering one question.
type Response struct {
	InteractionID        string              `json:"interaction_id"`
	Question             string              `json:"question"`
	TopicCategory        string              `json:"topic_category,omitempty"`
	Controversy          controversy.Profile `json:"controversy"`
	SurfacedPerspectives bool                `json:"surfaced_perspectives"`
	Baseline             string              `json:"baseline,omitempty"`
	Additional           []string            `json:"additional,omitempty"`
	Rationale            string              `json:"rationale,omitempty"`
	Perspectives         map[string]string   `json:"perspectives,omitempty"`
	Tensions             string              `json:"tensions,omitempty"`
	Synthesis            string              `json:"synthesis,omitempty"`
	StandardResponse     string              `json:"standard_response,omitempty"`
}

// Service wires the classifier, selector, generator, and store together.
type Service struct {
	classifier    Classifier
	generator     *perspective.Generator
	store         *storage.Store
	maxAdditional int
}

// NewService creates a Service. classifier may be nil, in which case queries
// are classified by rules alone.
func NewService(classifier Classifier, generator *perspective.Generator, store *storage.Store, maxAdditional int) *Service {
	if maxAdditional <= 0 {
		maxAdditional = selection.DefaultMaxAdditional
	}
	return &Service{
		classifier:    classifier,
		generator:     generator,
		store:         store,
		maxAdditional: maxAdditional,
	}
}

// Answer runs the full pipeline for one question and records the interaction.
func (s *Service) Answer(ctx context.Context, user selection.UserProfile, question string) (Response, error) {
	profile, topic := s.classify(ctx, user, question)

	resp := Response{
		InteractionID: uuid.NewString(),
		Question:      question,
		TopicCategory: topic,
		Controversy:   profile,
	}

	if profile.ShouldSurfacePerspectives() {
		selected := selection.Select(user, profile, topic, s.maxAdditional)
		resp.SurfacedPerspectives = true
		resp.Baseline = selected.Baseline
		resp.Additional = selected.Additional
		resp.Rationale = selected.Rationale
		resp.Perspectives = s.generator.GenerateAll(ctx, selected.All(), topic, question)
		resp.Tensions = s.generator.Tensions(ctx, user.Communities(), question)
		resp.Synthesis = s.generator.Synthesize(ctx, resp.Perspectives)
	} else {
		resp.StandardResponse = s.generator.Standard(ctx, question)
	}

	if err := s.saveInteraction(user, resp); err != nil {
		return Response{}, fmt.Errorf("saving interaction: %w", err)
	}
	return resp, nil
}

func (s *Service) classify(ctx context.Context, user selection.UserProfile, question string) (controversy.Profile, string) {
	if s.classifier != nil {
		return s.classifier.ClassifyQuery(ctx, question, user.Communities())
	}
	return controversy.Classify(question)
}

func (s *Service) saveInteraction(user selection.UserProfile, resp Response) error {
	controversyJSON, err := json.Marshal(map[string]string{
		"religious": resp.Controversy.Religious.String(),
		"political": resp.Controversy.Political.String(),
		"regional":  resp.Controversy.Regional.String(),
	})
	if err != nil {
		return fmt.Errorf("marshaling controversy profile: %w", err)
	}

	selected := []string{}
	if resp.Baseline != "" {
		selected = append(append(selected, resp.Baseline), resp.Additional...)
	}
	selectedJSON, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("marshaling selected communities: %w", err)
	}

	perspectivesJSON := "{}"
	if len(resp.Perspectives) > 0 {
		b, err := json.Marshal(resp.Perspectives)
		if err != nil {
			return fmt.Errorf("marshaling perspectives: %w", err)
		}
		perspectivesJSON = string(b)
	}

	return s.store.SaveInteraction(storage.Interaction{
		ID:                   resp.InteractionID,
		UserID:               user.UserID,
		Question:             resp.Question,
		TopicCategory:        resp.TopicCategory,
		ControversyJSON:      string(controversyJSON),
		SelectedJSON:         string(selectedJSON),
		PerspectivesJSON:     perspectivesJSON,
		Synthesis:            resp.Synthesis,
		StandardResponse:     resp.StandardResponse,
		SurfacedPerspectives: resp.SurfacedPerspectives,
		CreatedAt:            time.Now().UTC(),
	})
}

// RecordFeedback attaches user feedback to a stored interaction.
func (s *Service) RecordFeedback(f storage.Feedback) error {
	if err := s.store.SaveFeedback(f); err != nil {
		return err
	}
	slog.Info("feedback recorded", "interaction_id", f.InteractionID, "usefulness", f.Usefulness)
	return nil
}
