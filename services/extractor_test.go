package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNCTCodes(t *testing.T) {
	text := "Enrollment in NCT01234567 and NCT07654321 continues. NCT01234567 is the lead study."
	codes := ExtractNCTCodes(text)
	assert.Equal(t, []string{"NCT01234567", "NCT07654321"}, codes)

	assert.Empty(t, ExtractNCTCodes("no trial identifiers here"))
	// Zu kurze Ziffernfolgen sind keine NCT-Codes.
	assert.Empty(t, ExtractNCTCodes("NCT1234567"))
}

func TestNCTCodesNear(t *testing.T) {
	pad := make([]byte, 600)
	for i := range pad {
		pad[i] = 'x'
	}
	text := "Pembrolizumab is studied in NCT01234567. " + string(pad) + " NCT09999999 unrelated."

	codes := nctCodesNear(text, "Pembrolizumab", 500)
	assert.Equal(t, []string{"NCT01234567"}, codes)
}

func TestMergeCodes(t *testing.T) {
	merged := mergeCodes([]string{"NCT00000001", "NCT00000002"}, []string{"NCT00000002", "NCT00000003"})
	assert.Equal(t, []string{"NCT00000001", "NCT00000002", "NCT00000003"}, merged)
	assert.Empty(t, mergeCodes(nil, nil))
}

func TestResolveCompany(t *testing.T) {
	name, ok := ResolveCompany("Merck announced new data for KEYTRUDA today.")
	require.True(t, ok)
	assert.Equal(t, "Merck & Co.", name)

	name, ok = ResolveCompany("Genentech, a member of the Roche Group, reported results.")
	require.True(t, ok)
	assert.Equal(t, "Roche/Genentech", name)

	name, ok = ResolveCompany("Acme Therapeutics reported earnings.")
	require.True(t, ok)
	assert.Equal(t, "Acme", name)

	_, ok = ResolveCompany("No sponsor is named in this abstract.")
	assert.False(t, ok)
}

func TestExtractDrugCandidates(t *testing.T) {
	text := "Patritumab Deruxtecan and Pembrolizumab were evaluated together with MK-3475. " +
		"KEYTRUDA is the brand name."

	candidates := ExtractDrugCandidates(text)

	assert.Contains(t, candidates, "Patritumab Deruxtecan")
	assert.Contains(t, candidates, "MK-3475")

	// Pembrolizumab taucht genau einmal auf, obwohl Suffix-Treffer und
	// Markenname beide darauf zeigen.
	count := 0
	for _, c := range candidates {
		if NormalizeName(c) == "pembrolizumab" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// "Patritumab" allein darf nicht zusätzlich zum Kombinationsnamen stehen.
	assert.NotContains(t, candidates, "Patritumab")
}

func TestCleanFDAIndication(t *testing.T) {
	in := "INDICATIONS AND USAGE: KEYTRUDA is indicated for the treatment of melanoma. See full prescribing information."
	assert.Equal(t, "the treatment of melanoma", CleanFDAIndication(in))

	assert.Equal(t, "unresectable melanoma",
		CleanFDAIndication("Indicated for the treatment of unresectable melanoma.\nMore text."))
	assert.Equal(t, "", CleanFDAIndication("   "))
}

func TestParseEffectiveTime(t *testing.T) {
	got := parseEffectiveTime("Label metadata. Effective time: 20140904. End.")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2014, 9, 4, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, parseEffectiveTime("no date here"))
	assert.Nil(t, parseEffectiveTime("Effective time: 20141399"))
}

func TestTrialStatusAndPhase(t *testing.T) {
	assert.Equal(t, "Active, Not Recruiting", trialStatus("Status: Active, not recruiting as of June."))
	assert.Equal(t, "Recruiting", trialStatus("The study is recruiting patients."))
	assert.Equal(t, "", trialStatus("status unknown"))

	assert.Equal(t, "Phase III", trialPhase("a randomized Phase III study"))
	assert.Equal(t, "Phase 3", trialPhase("a randomized phase 3 study"))
	assert.Equal(t, "", trialPhase("preclinical work"))
}

func TestRelationshipFromMechanism(t *testing.T) {
	assert.Equal(t, "inhibits", relationshipFromMechanism("inhibits BTK signaling"))
	assert.Equal(t, "binds", relationshipFromMechanism("binds to PD-1"))
	assert.Equal(t, "targets", relationshipFromMechanism(""))
}

func TestBrandNameFor(t *testing.T) {
	assert.Equal(t, "KEYTRUDA", brandNameFor("Pembrolizumab"))
	assert.Equal(t, "KEYTRUDA", brandNameFor("pembrolizumab"))
	assert.Equal(t, "", brandNameFor("Sotatercept"))
}
