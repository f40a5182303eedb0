package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTargetExtractorKnownVocabulary(t *testing.T) {
	te := NewTargetExtractor(200, 15, zap.NewNop())
	text := "Pembrolizumab is a humanized antibody that targets PD-1 on T cells."

	candidates := te.Extract(text, "Pembrolizumab")
	require.NotEmpty(t, candidates)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Name == "PD-1" {
			found = &candidates[i]
		}
	}
	require.NotNil(t, found, "PD-1 muss aus dem Vokabular erkannt werden")
	assert.Equal(t, "known_vocabulary", found.Method)
	// Basis 0.5 + Vokabular 0.3 + "targets" 0.1 + Distanz 0.1
	assert.InDelta(t, 1.0, found.Confidence, 1e-9)
}

func TestTargetExtractorConfidenceBounds(t *testing.T) {
	te := NewTargetExtractor(200, 15, zap.NewNop())
	text := "Nemtabrutinib inhibits BTK and blocks downstream signaling. " +
		"It also binds to SYK, modulates JAK1 and activates nothing else. " +
		"EGFR HER2 KRAS kinase Deruxtecan"

	for _, c := range te.Extract(text, "Nemtabrutinib") {
		assert.GreaterOrEqual(t, c.Confidence, 0.3, "Kandidat %q", c.Name)
		assert.LessOrEqual(t, c.Confidence, 1.0, "Kandidat %q", c.Name)
	}
}

func TestTargetExtractorNoMention(t *testing.T) {
	te := NewTargetExtractor(200, 15, zap.NewNop())
	assert.Empty(t, te.Extract("PD-1 and HER2 without any drug here.", "Pembrolizumab"))
	assert.Empty(t, te.Extract("", "Pembrolizumab"))
	assert.Empty(t, te.Extract("some text", ""))
}

func TestContextWindows(t *testing.T) {
	text := "aaaa Pembrolizumab bbbb Pembrolizumab cccc"
	windows := contextWindows(text, "pembrolizumab", 5)
	require.Len(t, windows, 2)
	assert.Equal(t, 5, windows[0].mentionOffset)
	assert.Contains(t, windows[0].text, "Pembrolizumab")
}

func TestRankCandidatesKeepsHighestAndLimits(t *testing.T) {
	var in []Candidate
	in = append(in, Candidate{Name: "PD-1", Confidence: 0.6})
	in = append(in, Candidate{Name: "pd-1", Confidence: 0.9})
	in = append(in, Candidate{Name: "LOW", Confidence: 0.2})
	for i := 0; i < 20; i++ {
		in = append(in, Candidate{Name: fmt.Sprintf("T%02d", i), Confidence: 0.5})
	}

	out := rankCandidates(in, 15)
	require.Len(t, out, 15)

	assert.Equal(t, "pd-1", out[0].Name)
	assert.InDelta(t, 0.9, out[0].Confidence, 1e-9)
	for _, c := range out {
		assert.NotEqual(t, "LOW", c.Name, "Kandidaten unter 0.3 fliegen raus")
	}
	// Stabil sortiert: gleicher Score, alphabetische Reihenfolge.
	assert.Equal(t, "T00", out[1].Name)
}

func TestScoreCandidate(t *testing.T) {
	w := contextWindow{text: "Pembrolizumab targets PD-1", mentionOffset: 0}
	assert.InDelta(t, 1.0, scoreCandidate(w, 22, true), 1e-9)
	assert.InDelta(t, 0.7, scoreCandidate(w, 22, false), 1e-9)

	far := contextWindow{text: "no keywords here", mentionOffset: 0}
	assert.InDelta(t, 0.5, scoreCandidate(far, 300, false), 1e-9)
}

func TestClassifyTargetType(t *testing.T) {
	assert.Equal(t, "Enzyme", ClassifyTargetType("kinase"))
	assert.Equal(t, "Protein", ClassifyTargetType("Claudin"))
	assert.Equal(t, "Gene/Protein", ClassifyTargetType("KRAS"))
	assert.Equal(t, "Gene/Protein", ClassifyTargetType("PD-L1"))
}

func TestMechanismNear(t *testing.T) {
	s := mechanismNear("Pembrolizumab binds to PD-1. It is approved.")
	assert.Equal(t, "binds to PD-1", s)
	assert.Equal(t, "", mechanismNear("nothing relevant"))
}
