package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure GeneratorService implements the interface.
var _ driving.Generator = (*GeneratorService)(nil)

// GeneratorService produces grounded answers from retrieved passages.
type GeneratorService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.CompleteOptions
}

// NewGeneratorService creates a generator.
func NewGeneratorService(llm driven.LLMService, prompts driven.PromptStore) *GeneratorService {
	return &GeneratorService{
		llm:     llm,
		prompts: prompts,
		opts: driven.CompleteOptions{
			MaxTokens:   1024,
			Temperature: 0,
		},
	}
}

// Answer generates an answer grounded in the passages. With no
// passages it still asks the model, which is instructed to say when
// the manual does not cover the question.
func (s *GeneratorService) Answer(ctx context.Context, query domain.RewrittenQuery, passages []domain.ContextPassage) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}

	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptAnswerSystem, err)
	}
	userTmpl, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptAnswerUser, err)
	}

	model := query.ExtractedModel
	if model == "" {
		model = "the vehicle"
	}
	user := fmt.Sprintf(userTmpl, model, ContextBlock(passages), query.CanonicalText)

	logger.Debug("Generate: %d passages, model=%q", len(passages), model)
	reply, err := s.llm.Chat(ctx, system, user, s.opts)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	answer := strings.TrimSpace(reply)
	if answer == "" {
		return "", fmt.Errorf("generate answer: empty reply")
	}
	return answer, nil
}

// ContextBlock renders passages into the prompt context format:
// one "[Page N] : Chunk number i: text" block per passage, i 1-based,
// separated by blank lines.
func ContextBlock(passages []domain.ContextPassage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = fmt.Sprintf("[Page %d] : Chunk number %d: %s", p.PageNumber, i+1, p.Text)
	}
	return strings.Join(blocks, "\n\n")
}
