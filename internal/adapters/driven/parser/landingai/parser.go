// Package landingai provides a document parser adapter for the
// Landing AI agentic document extraction API.
package landingai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/manualhq/manualqa-cli/internal/backoff"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.va.landing.ai"
	DefaultTimeout = 5 * time.Minute

	analysisPath = "/v1/tools/agentic-document-analysis"
)

// Config holds configuration for the Landing AI parser.
type Config struct {
	// APIKey is the Landing AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.va.landing.ai).
	BaseURL string

	// Timeout is the per-request timeout. Document analysis is slow;
	// the default is five minutes.
	Timeout time.Duration
}

// Parser extracts structured blocks from manual files through the
// Landing AI document analysis service.
type Parser struct {
	client  *http.Client
	baseURL string
	apiKey  string
	retry   backoff.Policy
}

// analysisResponse is the service response format.
type analysisResponse struct {
	Data struct {
		Chunks []struct {
			Text      string `json:"text"`
			ChunkType string `json:"chunk_type"`
			Grounding []struct {
				Page int `json:"page"`
			} `json:"grounding"`
		} `json:"chunks"`
	} `json:"data"`
}

// NewParser creates a Landing AI parser.
func NewParser(cfg Config) (*Parser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("landingai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Parser{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		retry:   backoff.Default(),
	}, nil
}

// Parse uploads the file and returns the extracted blocks in document
// order. Service outages surface as domain.ErrExternalService so the
// caller can fall back to another chunking strategy.
func (p *Parser) Parse(ctx context.Context, path string) ([]driven.ParsedBlock, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var blocks []driven.ParsedBlock
	err = backoff.Retry(ctx, p.retry, isRetryable, func() error {
		var attemptErr error
		blocks, attemptErr = p.analyze(ctx, filepath.Base(path), payload)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Landing AI: %d blocks from %s", len(blocks), path)
	return blocks, nil
}

// retryableStatus marks a transient service reply worth retrying.
type retryableStatus struct{ code int }

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("%v: landingai status %d", domain.ErrExternalService, e.code)
}

func (e *retryableStatus) Unwrap() error { return domain.ErrExternalService }

func isRetryable(err error) bool {
	var rs *retryableStatus
	return errors.As(err, &rs)
}

// analyze performs one upload and decodes the block list.
func (p *Parser) analyze(ctx context.Context, filename string, payload []byte) ([]driven.ParsedBlock, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("pdf", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+analysisPath, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Basic "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &retryableStatus{code: resp.StatusCode}
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: landingai status %d: %s",
			domain.ErrExternalService, resp.StatusCode, string(msg))
	}

	var parsed analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrExternalService, err)
	}

	blocks := make([]driven.ParsedBlock, 0, len(parsed.Data.Chunks))
	for _, c := range parsed.Data.Chunks {
		block := driven.ParsedBlock{
			Type: c.ChunkType,
			Text: c.Text,
		}
		if len(c.Grounding) > 0 {
			// The service counts pages from zero.
			block.PageNumber = c.Grounding[0].Page + 1
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
