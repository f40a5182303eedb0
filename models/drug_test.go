package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrugNCTCodes(t *testing.T) {
	var drug Drug
	assert.Empty(t, drug.NCTCodes())

	drug.SetNCTCodes([]string{"NCT01234567", "NCT07654321"})
	assert.Equal(t, []string{"NCT01234567", "NCT07654321"}, drug.NCTCodes())

	drug.SetNCTCodes(nil)
	assert.Empty(t, drug.NCTCodes())
}

func TestHashContent(t *testing.T) {
	a := HashContent("Merck announced results.")
	b := HashContent("Merck announced results.")
	c := HashContent("different text")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
