package fsdump

import (
	"os"
	"path/filepath"
	"testing"

	"biopartner-insights/config"
	"biopartner-insights/models"
	"biopartner-insights/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fda_drug_approval__keytruda.txt"),
		[]byte("KEYTRUDA label text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"),
		[]byte("press release"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.pdf"),
		[]byte("binary"), 0o644))

	c := NewCollector(&config.Config{DocumentDumpDir: dir}, zap.NewNop())
	items, err := c.Collect(nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byType := map[string]providers.RawItem{}
	for _, it := range items {
		byType[it.SourceType] = it
	}
	fda, ok := byType["fda_drug_approval"]
	require.True(t, ok)
	assert.Equal(t, "keytruda", fda.Title)
	assert.Equal(t, []byte("KEYTRUDA label text"), fda.Body)

	// Ohne "__"-Präfix gilt der Default-Quelltyp.
	_, ok = byType["company_pipeline"]
	assert.True(t, ok)
}

func TestCollectMissingDir(t *testing.T) {
	c := NewCollector(&config.Config{DocumentDumpDir: "/nonexistent/dumps"}, zap.NewNop())
	items, err := c.Collect(nil)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseWithHeaders(t *testing.T) {
	c := NewCollector(&config.Config{}, zap.NewNop())
	raw := providers.RawItem{
		SourceURL:  "file:///tmp/x.txt",
		Title:      "fallback title",
		SourceType: "press_release",
		Body: []byte("url: https://www.merck.com/news/1\ntitle: Merck Announces Data\n\n" +
			"Merck announced results for KEYTRUDA."),
	}

	docs, err := c.Parse(raw)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "https://www.merck.com/news/1", doc.SourceURL)
	assert.Equal(t, "Merck Announces Data", doc.Title)
	assert.Equal(t, "Merck announced results for KEYTRUDA.", doc.Content)
	assert.Equal(t, models.HashContent(doc.Content), doc.ContentHash)
	assert.Equal(t, "press_release", doc.SourceType)
}

func TestParseWithoutHeaders(t *testing.T) {
	c := NewCollector(&config.Config{}, zap.NewNop())
	raw := providers.RawItem{
		SourceURL:  "file:///tmp/y.txt",
		Title:      "pipeline page",
		SourceType: "company_pipeline",
		Body:       []byte("First paragraph.\n\nSecond paragraph."),
	}

	docs, err := c.Parse(raw)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "file:///tmp/y.txt", docs[0].SourceURL)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", docs[0].Content)
}

func TestParseEmptyDocument(t *testing.T) {
	c := NewCollector(&config.Config{}, zap.NewNop())
	_, err := c.Parse(providers.RawItem{SourceURL: "file:///tmp/z.txt", Body: []byte("   \n\n  ")})
	assert.Error(t, err)
}

func TestSourceTypeFromFilename(t *testing.T) {
	assert.Equal(t, "fda_drug_approval", sourceTypeFromFilename("fda_drug_approval__keytruda.txt"))
	assert.Equal(t, "clinical_trial", sourceTypeFromFilename("clinical_trial__nct01234567.md"))
	assert.Equal(t, "company_pipeline", sourceTypeFromFilename("notes.txt"))
}
