package seedcorpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectFiltersByCompany(t *testing.T) {
	c := NewCollector(zap.NewNop())

	all, err := c.Collect(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(fixtures))

	bms, err := c.Collect([]string{"bristol myers squibb"})
	require.NoError(t, err)
	require.Len(t, bms, 1)
	assert.Equal(t, "company_pipeline", bms[0].SourceType)
	assert.Contains(t, string(bms[0].Body), "Nivolumab")

	none, err := c.Collect([]string{"Unknown Pharma"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParse(t *testing.T) {
	c := NewCollector(zap.NewNop())
	items, err := c.Collect([]string{"Merck & Co."})
	require.NoError(t, err)
	require.NotEmpty(t, items)

	docs, err := c.Parse(items[0])
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, items[0].SourceURL, docs[0].SourceURL)
	assert.NotEmpty(t, docs[0].ContentHash)
	assert.NotZero(t, docs[0].RetrievalDate)
}
