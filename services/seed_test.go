package services

import (
	"os"
	"path/filepath"
	"testing"

	"biopartner-insights/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadCompanyRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "companies.csv")
	csvData := "Company,OncologyPipelineURL,OfficialWebsite\n" +
		"Merck & Co.,https://www.merck.com/pipeline,https://www.merck.com\n" +
		"Bristol Myers Squibb,,https://www.bms.com\n" +
		"merck & co.,,\n" + // Duplikat nach Normalisierung
		",,\n"
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	ss := NewSeedService(&config.Config{CompaniesCSVPath: path}, nil, zap.NewNop())
	roster := ss.LoadCompanyRoster()

	require.Len(t, roster, 2)
	assert.Equal(t, "Merck & Co.", roster[0].Name)
	assert.Equal(t, "https://www.merck.com/pipeline", roster[0].PipelineURL)
	assert.Equal(t, "Bristol Myers Squibb", roster[1].Name)
	assert.Equal(t, "https://www.bms.com", roster[1].Website)
}

func TestLoadCompanyRosterFallsBackToDefault(t *testing.T) {
	ss := NewSeedService(&config.Config{CompaniesCSVPath: "/nonexistent/companies.csv"}, nil, zap.NewNop())
	roster := ss.LoadCompanyRoster()
	assert.Equal(t, defaultCompanyRoster, roster)
	assert.NotEmpty(t, roster)
}

func TestLoadCompanyRosterMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,URL\nMerck,x\n"), 0o644))

	ss := NewSeedService(&config.Config{CompaniesCSVPath: path}, nil, zap.NewNop())
	assert.Equal(t, defaultCompanyRoster, ss.LoadCompanyRoster())
}

func TestSeedDrugsAreValidNames(t *testing.T) {
	for _, sd := range seedDrugs {
		assert.True(t, IsValidDrugName(sd.genericName), "seed drug %q", sd.genericName)
	}
}
