package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Load triggers lazy init
	_, err = store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	files := []string{
		"query_rewrite.txt",
		"detect_rewrite.txt",
		"answer_system.txt",
		"answer_user.txt",
		"judge_relevance.txt",
		"judge_faithfulness.txt",
		"README.md",
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectRewrite)

	require.NoError(t, err)
	assert.Contains(t, prompt, "CAR_MODEL:")
	assert.Contains(t, prompt, "QUERY:")
	assert.Equal(t, 2, countPlaceholders(prompt))
}

func TestPromptStore_DefaultPlaceholderCounts(t *testing.T) {
	// Templates are filled positionally by the services, so the
	// placeholder counts are part of the contract.
	expected := map[string]int{
		driven.PromptQueryRewrite:      1,
		driven.PromptDetectRewrite:     2,
		driven.PromptAnswerSystem:      0,
		driven.PromptAnswerUser:        3,
		driven.PromptJudgeRelevance:    2,
		driven.PromptJudgeFaithfulness: 3,
	}

	for name, want := range expected {
		prompt, ok := defaultPrompts[name]
		require.True(t, ok, "missing default for %s", name)
		assert.Equal(t, want, countPlaceholders(prompt), "placeholders in %s", name)
	}
}

func countPlaceholders(s string) int {
	count := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '%' && s[i+1] == 's' {
			count++
		}
	}
	return count
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()

	customContent := "My custom prompt: %s"
	err := os.WriteFile(
		filepath.Join(dir, "query_rewrite.txt"),
		[]byte(customContent),
		0600,
	)
	require.NoError(t, err)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQueryRewrite)

	require.NoError(t, err)
	assert.Equal(t, customContent, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Delete the file after init creates it
	_, _ = store.Load(driven.PromptQueryRewrite) // Trigger init
	os.Remove(filepath.Join(dir, "query_rewrite.txt"))
	store.Reload() // Clear cache

	prompt, err := store.Load(driven.PromptQueryRewrite)

	require.NoError(t, err)
	assert.Contains(t, prompt, "Rewrite this question")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_CachesResults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt1, err := store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	// Modify file on disk
	err = os.WriteFile(
		filepath.Join(dir, "query_rewrite.txt"),
		[]byte("modified content"),
		0600,
	)
	require.NoError(t, err)

	// Second load should return cached value
	prompt2, err := store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	modifiedContent := "modified content: %s"
	err = os.WriteFile(
		filepath.Join(dir, "query_rewrite.txt"),
		[]byte(modifiedContent),
		0600,
	)
	require.NoError(t, err)

	store.Reload()

	prompt, err := store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	assert.Equal(t, modifiedContent, prompt)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()

	customContent := "pre-existing custom prompt"
	err := os.WriteFile(
		filepath.Join(dir, "answer_system.txt"),
		[]byte(customContent),
		0600,
	)
	require.NoError(t, err)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Trigger init
	_, _ = store.Load(driven.PromptQueryRewrite)

	data, err := os.ReadFile(filepath.Join(dir, "answer_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, customContent, string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()

	contentWithWhitespace := "\n\n  prompt content  \n\n"
	err := os.WriteFile(
		filepath.Join(dir, "query_rewrite.txt"),
		[]byte(contentWithWhitespace),
		0600,
	)
	require.NoError(t, err)

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQueryRewrite)
	require.NoError(t, err)

	assert.Equal(t, "prompt content", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	prompts := make(chan string, goroutines)
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptJudgeRelevance)
			if err != nil {
				errs <- err
				return
			}
			prompts <- prompt
		}()
	}

	wg.Wait()
	close(errs)
	close(prompts)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	var first string
	for prompt := range prompts {
		if first == "" {
			first = prompt
		} else {
			assert.Equal(t, first, prompt)
		}
	}
}
