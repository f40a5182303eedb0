package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	c := &Config{DBHost: "localhost", DBUser: "app", DBPassword: "secret", DBName: "biopartner", DBPort: 5432}
	assert.Equal(t,
		"host=localhost user=app password=secret dbname=biopartner port=5432 sslmode=disable",
		c.DSN())
}

func TestProviderEnabled(t *testing.T) {
	c := &Config{EnabledProviders: "fsdump, SeedCorpus"}
	assert.True(t, c.ProviderEnabled("fsdump"))
	assert.True(t, c.ProviderEnabled("seedcorpus"))
	assert.False(t, c.ProviderEnabled("pubhooks"))

	empty := &Config{}
	assert.False(t, empty.ProviderEnabled("fsdump"))
}
