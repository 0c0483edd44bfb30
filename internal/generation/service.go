// Package generation turns a visitor's topic into a short creative line by
// proxying to an external text-generation API.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaki95/studio-eighty7/internal/sanitize"
)

// FallbackLine is returned when the provider answers without text.
const FallbackLine = "Listen to the silence. The beat will drop."

type Result struct {
	Text string `json:"text"`
}

type Service struct {
	provider Provider
	logger   *slog.Logger
}

func NewService(provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, logger: logger}
}

// BuildPrompt embeds an already sanitized topic in the fixed instruction.
func BuildPrompt(topic string) string {
	return fmt.Sprintf("You are a legendary music producer and lyricist for Studio Eighty7. "+
		"The user needs a song concept, title, or a one-line lyric hook for: \"%s\". "+
		"Provide a punchy, moody, or hard-hitting creative text snippet. "+
		"Keep it under 20 words. Focus on rhythm, emotion, and grit.", topic)
}

// Generate validates the topic, asks the provider and returns its text.
// Every call may return different text. Provider failures come back as one
// of the error classes wrapped with context.
func (s *Service) Generate(ctx context.Context, topic string) (Result, error) {
	clean, err := sanitize.Topic(topic)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("generating creative idea", "topicLength", len(clean))

	text, err := s.provider.GenerateContent(ctx, BuildPrompt(clean))
	if err != nil {
		class := Classify(err)
		s.logger.Error("generation provider failed", "class", class.Error(), "error", err)
		return Result{}, fmt.Errorf("failed to generate content: %w", class)
	}

	if strings.TrimSpace(text) == "" {
		text = FallbackLine
	}
	return Result{Text: text}, nil
}
