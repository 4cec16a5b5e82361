package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, Request) ([]domain.Article, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("fakti"), namedScanner("dnevnik"))
	reg.Register(namedScanner("rss"))

	s, err := reg.Resolve("dnevnik")
	require.NoError(t, err)
	assert.Equal(t, "dnevnik", s.Name())

	_, err = reg.Resolve("bta")
	assert.ErrorIs(t, err, ErrUnknownScanner)

	assert.Equal(t, []string{"dnevnik", "fakti", "rss"}, reg.Names())
}

func TestZeroRegistryRegister(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(namedScanner("24chasa"))

	_, err := reg.Resolve("24chasa")
	assert.NoError(t, err)
}
