package services

import (
	"testing"

	"biopartner-insights/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDrugMerges(t *testing.T) {
	drugs := []models.Drug{
		{ID: 7, GenericName: "Pembrolizumab"},
		{ID: 3, GenericName: "pembrolizumab"},
		{ID: 9, GenericName: "PEMBROLIZUMAB "},
		{ID: 4, GenericName: "Nivolumab"},
	}

	plans := PlanDrugMerges(drugs)
	require.Len(t, plans, 1)

	plan := plans[0]
	assert.Equal(t, uint(3), plan.PrimaryID, "kleinste ID überlebt")
	assert.Equal(t, "Pembrolizumab", plan.PrimaryName)
	assert.Equal(t, []uint{7, 9}, plan.DuplicateIDs)
}

func TestPlanDrugMergesNoDuplicates(t *testing.T) {
	drugs := []models.Drug{
		{ID: 1, GenericName: "Pembrolizumab"},
		{ID: 2, GenericName: "Nivolumab"},
	}
	assert.Empty(t, PlanDrugMerges(drugs))
	assert.Empty(t, PlanDrugMerges(nil))
}

func TestPlanDrugMergesStableOrder(t *testing.T) {
	drugs := []models.Drug{
		{ID: 10, GenericName: "ruxolitinib"},
		{ID: 2, GenericName: "Ruxolitinib"},
		{ID: 5, GenericName: "avelumab"},
		{ID: 1, GenericName: "Avelumab"},
	}

	plans := PlanDrugMerges(drugs)
	require.Len(t, plans, 2)
	assert.Equal(t, uint(1), plans[0].PrimaryID)
	assert.Equal(t, "Avelumab", plans[0].PrimaryName)
	assert.Equal(t, uint(2), plans[1].PrimaryID)
	assert.Equal(t, "Ruxolitinib", plans[1].PrimaryName)
}

func TestTaskResult(t *testing.T) {
	ok := taskResult("deduplicate_drugs", nil, "2 duplicate groups merged")
	assert.True(t, ok.Success)
	assert.Equal(t, "2 duplicate groups merged", ok.Details)

	failed := taskResult("deduplicate_drugs", assert.AnError, "ignored")
	assert.False(t, failed.Success)
	assert.Equal(t, assert.AnError.Error(), failed.Details)
}
