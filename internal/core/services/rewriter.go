package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure RewriterService implements the interface.
var _ driving.Rewriter = (*RewriterService)(nil)

// Rewriter confidence levels by extraction path.
const (
	confidenceLocal = 1.0
	confidenceLLM   = 0.8
)

// RewriterService reformulates user questions for retrieval and
// extracts the vehicle model they are about.
type RewriterService struct {
	llm     driven.LLMService
	prompts driven.PromptStore

	// models is the registry of indexable vehicle models.
	models []string

	// patterns maps each model to a loose pattern matching its name in
	// free text ("MG_Astor" matches "mg astor", "MG-Astor", ...).
	patterns map[string]*regexp.Regexp

	opts driven.CompleteOptions
}

// NewRewriterService creates a rewriter over the given model registry.
// The llm parameter is optional (can be nil); without it every rewrite
// falls back to local detection only.
func NewRewriterService(llm driven.LLMService, prompts driven.PromptStore, models []string) *RewriterService {
	patterns := make(map[string]*regexp.Regexp, len(models))
	for _, m := range models {
		patterns[m] = modelPattern(m)
	}
	return &RewriterService{
		llm:      llm,
		prompts:  prompts,
		models:   models,
		patterns: patterns,
		opts: driven.CompleteOptions{
			MaxTokens:   256,
			Temperature: 0,
		},
	}
}

// Rewrite extracts a vehicle model and reformulates the query.
// It makes at most one LLM round trip and fails open: any service
// error or unparseable reply yields the original text with no model
// and confidence 0, never an error.
func (s *RewriterService) Rewrite(ctx context.Context, query domain.Query) (domain.RewrittenQuery, error) {
	raw := strings.TrimSpace(query.Raw)
	failOpen := domain.RewrittenQuery{CanonicalText: raw}
	if raw == "" {
		return failOpen, nil
	}
	if s.llm == nil {
		if model, ok := s.detectLocal(raw); ok {
			return domain.RewrittenQuery{
				CanonicalText:  raw,
				ExtractedModel: model,
				Confidence:     confidenceLocal,
			}, nil
		}
		return failOpen, nil
	}

	// Local pattern hit: the model is settled, one call rewrites the query.
	if model, ok := s.detectLocal(raw); ok {
		logger.Debug("Rewrite: local model match %q", model)
		canonical, err := s.rewriteOnly(ctx, raw)
		if err != nil {
			logger.Warn("Rewrite: LLM rewrite failed: %v (failing open)", err)
			return failOpen, nil
		}
		return domain.RewrittenQuery{
			CanonicalText:  canonical,
			ExtractedModel: model,
			Confidence:     confidenceLocal,
		}, nil
	}

	// No local hit: one combined detect-and-rewrite call.
	model, canonical, err := s.detectAndRewrite(ctx, raw)
	if err != nil {
		logger.Warn("Rewrite: detect-and-rewrite failed: %v (failing open)", err)
		return failOpen, nil
	}
	if model == "" {
		return domain.RewrittenQuery{CanonicalText: canonical}, nil
	}
	logger.Debug("Rewrite: LLM extracted model %q", model)
	return domain.RewrittenQuery{
		CanonicalText:  canonical,
		ExtractedModel: model,
		Confidence:     confidenceLLM,
	}, nil
}

// detectLocal matches the query against the model registry.
func (s *RewriterService) detectLocal(query string) (string, bool) {
	for _, m := range s.models {
		if s.patterns[m].MatchString(query) {
			return m, true
		}
	}
	return "", false
}

// rewriteOnly asks the LLM to reformulate the query, model already known.
func (s *RewriterService) rewriteOnly(ctx context.Context, query string) (string, error) {
	tmpl, err := s.prompts.Load(driven.PromptQueryRewrite)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptQueryRewrite, err)
	}
	reply, err := s.llm.Complete(ctx, fmt.Sprintf(tmpl, query), s.opts)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	canonical := strings.TrimSpace(reply)
	if canonical == "" {
		return "", fmt.Errorf("rewrite query: empty reply")
	}
	return canonical, nil
}

// detectAndRewrite extracts the model and reformulates the query in a
// single call. The reply must carry CAR_MODEL: and QUERY: lines.
func (s *RewriterService) detectAndRewrite(ctx context.Context, query string) (model, canonical string, err error) {
	tmpl, err := s.prompts.Load(driven.PromptDetectRewrite)
	if err != nil {
		return "", "", fmt.Errorf("load prompt %s: %w", driven.PromptDetectRewrite, err)
	}
	prompt := fmt.Sprintf(tmpl, strings.Join(s.models, ", "), query)
	reply, err := s.llm.Complete(ctx, prompt, s.opts)
	if err != nil {
		return "", "", fmt.Errorf("detect and rewrite: %w", err)
	}

	rawModel, canonical, ok := parseDetectReply(reply)
	if !ok {
		return "", "", fmt.Errorf("detect and rewrite: unparseable reply %q", reply)
	}
	if rawModel == "" || strings.EqualFold(rawModel, "none") {
		return "", canonical, nil
	}
	resolved, ok := s.resolveModel(rawModel)
	if !ok {
		return "", "", fmt.Errorf("%w: extracted model %q not in registry",
			domain.ErrAmbiguousModel, rawModel)
	}
	return resolved, canonical, nil
}

// parseDetectReply extracts the CAR_MODEL: and QUERY: lines.
// ok is false when the QUERY line is missing or empty.
func parseDetectReply(reply string) (model, canonical string, ok bool) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if rest, found := strings.CutPrefix(line, "CAR_MODEL:"); found {
			model = strings.TrimSpace(rest)
		} else if rest, found := strings.CutPrefix(line, "QUERY:"); found {
			canonical = strings.TrimSpace(rest)
		}
	}
	return model, canonical, canonical != ""
}

// resolveModel maps an LLM-reported model name onto a registry entry,
// tolerating case and separator differences.
func (s *RewriterService) resolveModel(name string) (string, bool) {
	want := normalizeModel(name)
	for _, m := range s.models {
		if normalizeModel(m) == want {
			return m, true
		}
	}
	return "", false
}

var modelSeparators = regexp.MustCompile(`[\s_-]+`)

// normalizeModel reduces a model name to a comparable form.
func normalizeModel(name string) string {
	return modelSeparators.ReplaceAllString(strings.ToLower(name), "")
}

// modelPattern builds a case-insensitive pattern matching the model
// name with any separator between its parts.
func modelPattern(model string) *regexp.Regexp {
	parts := modelSeparators.Split(model, -1)
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	expr := `(?i)\b` + strings.Join(quoted, `[\s_-]+`) + `\b`
	return regexp.MustCompile(expr)
}
