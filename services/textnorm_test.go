package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	in := "Eﬀicacy  of   pembrolizumab\r\nin ﬁrst-line therapy\n\n\n\nNext   paragraph\t\t here"
	out := NormalizeText(in)

	assert.Contains(t, out, "Efficacy of pembrolizumab")
	assert.Contains(t, out, "first-line therapy")
	assert.NotContains(t, out, "\r")
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "Next paragraph here")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "pembrolizumab", NormalizeName("  Pembrolizumab "))
	assert.Equal(t, "patritumab deruxtecan", NormalizeName("Patritumab Deruxtecan"))
	assert.Equal(t, NormalizeName("KEYTRUDA"), NormalizeName("keytruda"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Pembrolizumab", titleCase("PEMBROLIZUMAB"))
	assert.Equal(t, "Patritumab Deruxtecan", titleCase("patritumab deruxtecan"))
	assert.Equal(t, "Non-small Cell Lung Cancer", titleCase("non-small cell lung cancer"))
	assert.Equal(t, "", titleCase("   "))
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "High", FormatConfidence(0.95))
	assert.Equal(t, "High", FormatConfidence(0.8))
	assert.Equal(t, "Medium", FormatConfidence(0.6))
	assert.Equal(t, "Low", FormatConfidence(0.4))
	assert.Equal(t, "Very Low", FormatConfidence(0.39))
	assert.Equal(t, "Very Low", FormatConfidence(0))
}
