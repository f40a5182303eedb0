package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIndicationExtractor(t *testing.T) {
	ie := NewIndicationExtractor(300, 15, zap.NewNop())
	text := "Pembrolizumab is indicated for the treatment of melanoma and non-small cell lung cancer."

	candidates := ie.Extract(text, "Pembrolizumab")
	require.NotEmpty(t, candidates)

	names := map[string]Candidate{}
	for _, c := range candidates {
		names[c.Name] = c
	}
	require.Contains(t, names, "Melanoma")
	require.Contains(t, names, "Non-small Cell Lung Cancer")

	mel := names["Melanoma"]
	assert.Equal(t, "oncology", mel.Type)
	// Basis 0.8 + "treatment" + "indicated for" + Distanzbonus, Deckel 1.0
	assert.InDelta(t, 1.0, mel.Confidence, 1e-9)

	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Confidence, 0.3)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
}

func TestIndicationExtractorNoMention(t *testing.T) {
	ie := NewIndicationExtractor(300, 15, zap.NewNop())
	assert.Empty(t, ie.Extract("melanoma without any drug mention", "Nivolumab"))
}

func TestIndicationType(t *testing.T) {
	assert.Equal(t, "oncology", indicationType("breast cancer"))
	assert.Equal(t, "oncology", indicationType("hodgkin lymphoma"))
	assert.Equal(t, "oncology", indicationType("myelofibrosis"))
	assert.Equal(t, "non-oncology", indicationType("atopic dermatitis"))
	assert.Equal(t, "non-oncology", indicationType("rheumatoid arthritis"))
}
