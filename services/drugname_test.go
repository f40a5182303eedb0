package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDrugName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"Pembrolizumab", true},
		{"Nivolumab", true},
		{"MK-3475", true},
		{"RG7446", true},
		{"Patritumab Deruxtecan", true},
		{"Sacituzumab Tirumotecan", true},
		{"Tisagenlecleucel", true},
		{"Abatacept", true},
		{"Nemtabrutinib", true},

		{"NCT01234567", false},
		{"nct01234567", false},
		{"the", false},
		{"and", false},
		{"ab", false},
		{"Lung123", false},
		{"Breast45", false},
		{"IgG1", false},
		{"TYK2", false},
		{"antibody drug conjugate", false},
		{"small molecule", false},
		{"Keytruda is", false},
		{"Ordinaryword", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, IsValidDrugName(tc.name), "name %q", tc.name)
	}
}

func TestIsValidDrugNameLength(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, IsValidDrugName(string(long)))
	assert.False(t, IsValidDrugName(""))
}

func TestInferDrugClass(t *testing.T) {
	assert.Equal(t, "Monoclonal Antibody", InferDrugClass("Pembrolizumab"))
	assert.Equal(t, "Small Molecule", InferDrugClass("Nemtabrutinib"))
	assert.Equal(t, "Therapeutic Protein", InferDrugClass("Sotatercept"))
	assert.Equal(t, "CAR-T Cell Therapy", InferDrugClass("Tisagenlecleucel"))
	assert.Equal(t, "ADC", InferDrugClass("Patritumab Deruxtecan"))
	assert.Equal(t, "", InferDrugClass("MK-3475"))
}
