package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across the service tests ---

// mockLLM implements driven.LLMService. Replies are served from a
// queue when set, otherwise from the fixed reply.
type mockLLM struct {
	mu            sync.Mutex
	reply         string
	replies       []string
	completeErr   error
	chatErr       error
	completeCalls int
	chatCalls     int
	lastPrompt    string
	lastSystem    string
	lastUser      string
}

func (m *mockLLM) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	m.lastPrompt = prompt
	if m.completeErr != nil {
		return "", m.completeErr
	}
	if len(m.replies) > 0 {
		next := m.replies[0]
		m.replies = m.replies[1:]
		return next, nil
	}
	return m.reply, nil
}

func (m *mockLLM) Chat(_ context.Context, system, user string, _ driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls++
	m.lastSystem = system
	m.lastUser = user
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls + m.chatCalls
}

// mockPrompts implements driven.PromptStore with pass-through templates.
type mockPrompts struct {
	overrides map[string]string
	loadErr   error
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if tmpl, ok := m.overrides[name]; ok {
		return tmpl, nil
	}
	switch name {
	case driven.PromptQueryRewrite:
		return "Rewrite: %s", nil
	case driven.PromptDetectRewrite:
		return "Models: %s\nQuestion: %s", nil
	case driven.PromptAnswerSystem:
		return "You answer from the manual only.", nil
	case driven.PromptAnswerUser:
		return "Model: %s\nContext:\n%s\nQuestion: %s", nil
	case driven.PromptJudgeRelevance:
		return "Rate relevance.\nQ: %s\nA: %s", nil
	case driven.PromptJudgeFaithfulness:
		return "Rate faithfulness.\nContext: %s\nReference: %s\nA: %s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (m *mockPrompts) Reload() {}

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedding  []float32
	embedErr   error
	embedCalls int
	batchCalls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockSearchStore implements driven.SearchStore with canned hits.
type mockSearchStore struct {
	mu           sync.Mutex
	vectorHits   []driven.StoreHit
	keywordHits  []driven.StoreHit
	vectorErr    error
	keywordErr   error
	insertErr    error
	ensureErr    error
	vectorCalls  int
	keywordCalls int
	insertCalls  int
	ensureCalls  int
	lastFilter   driven.Filter
	inserted     []domain.Chunk
}

func (m *mockSearchStore) VectorSearch(_ context.Context, _ domain.ChunkingStrategy, _ []float32, topK int, filter driven.Filter) ([]driven.StoreHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorCalls++
	m.lastFilter = filter
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	if topK < len(m.vectorHits) {
		return m.vectorHits[:topK], nil
	}
	return m.vectorHits, nil
}

func (m *mockSearchStore) KeywordSearch(_ context.Context, _ domain.ChunkingStrategy, _ string, topK int, filter driven.Filter) ([]driven.StoreHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordCalls++
	m.lastFilter = filter
	if m.keywordErr != nil {
		return nil, m.keywordErr
	}
	if topK < len(m.keywordHits) {
		return m.keywordHits[:topK], nil
	}
	return m.keywordHits, nil
}

func (m *mockSearchStore) Insert(_ context.Context, _ domain.ChunkingStrategy, chunks []domain.Chunk, _ [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, chunks...)
	return nil
}

func (m *mockSearchStore) EnsureCollection(_ context.Context, _ domain.ChunkingStrategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	return m.ensureErr
}

func (m *mockSearchStore) CollectionExists(_ context.Context, _ domain.ChunkingStrategy) (bool, error) {
	return true, nil
}

func (m *mockSearchStore) Close() error { return nil }

// mockResultStore implements driven.ResultStore in memory.
type mockResultStore struct {
	mu       sync.Mutex
	runs     map[string]*domain.EvaluationRun
	getErr   error
	putErr   error
	getCalls int
	putCalls int
}

func newMockResultStore() *mockResultStore {
	return &mockResultStore{runs: make(map[string]*domain.EvaluationRun)}
}

func (m *mockResultStore) Get(_ context.Context, key string) (*domain.EvaluationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	run, ok := m.runs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (m *mockResultStore) Put(_ context.Context, run *domain.EvaluationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.runs[run.Config.Key()] = run
	return nil
}

func (m *mockResultStore) List(_ context.Context) ([]*domain.EvaluationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.EvaluationRun, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *mockResultStore) Close() error { return nil }

// --- Driving-port mocks for the evaluation harness ---

// mockRewriter implements driving.Rewriter.
type mockRewriter struct {
	mu     sync.Mutex
	result domain.RewrittenQuery
	err    error
	calls  int
}

func (m *mockRewriter) Rewrite(_ context.Context, query domain.Query) (domain.RewrittenQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.RewrittenQuery{}, m.err
	}
	if m.result.CanonicalText == "" {
		return domain.RewrittenQuery{CanonicalText: query.Raw}, nil
	}
	return m.result, nil
}

// mockRetriever implements driving.Retriever with per-item passages.
type mockRetriever struct {
	mu       sync.Mutex
	passages []domain.ContextPassage
	err      error
	errFor   map[string]error // keyed by canonical query text
	calls    int
}

func (m *mockRetriever) Retrieve(_ context.Context, query domain.RewrittenQuery, _ domain.RetrievalConfig) ([]domain.ContextPassage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errFor[query.CanonicalText]; ok {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// mockGenerator implements driving.Generator.
type mockGenerator struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) Answer(_ context.Context, _ domain.RewrittenQuery, _ []domain.ContextPassage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}
