package internal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testController(t *testing.T, p *graphProvider) *Controller {
	t.Helper()

	cache := &LayeredCache{wrapped: []cacher{newMemory()}}
	ctrl, err := NewController(NewSearcher(p, testConfig()), cache)
	require.NoError(t, err)
	return ctrl
}

func TestControllerCachesResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := &graphProvider{links: map[string][]string{
		"en:A": {"B"},
		"en:C": {"B"},
	}}
	ctrl := testController(t, p)

	first, err := ctrl.Search(ctx, "A", "C", "en")
	require.NoError(t, err)
	fetched := p.fetchCount()
	require.Positive(t, fetched)

	var res searchResource
	require.NoError(t, json.Unmarshal(first, &res))
	assert.Equal(t, 3, res.PathLength)
	assert.Equal(t, "en:B", res.Path[1].FullName)
	assert.Equal(t, 2, res.Path[1].Step)

	// The second identical search is served from cache without running the
	// engine again.
	second, err := ctrl.Search(ctx, "A", "C", "en")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetched, p.fetchCount())
}

func TestControllerCachesNotFound(t *testing.T) {
	// A failed search is expensive, so its outcome is cached too.
	t.Parallel()

	ctx := context.Background()
	p := &graphProvider{fail: true}
	ctrl := testController(t, p)

	_, err := ctrl.Search(ctx, "A", "B", "en")
	require.ErrorIs(t, err, errNotFound)
	fetched := p.fetchCount()

	_, err = ctrl.Search(ctx, "A", "B", "en")
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, fetched, p.fetchCount())
}

func TestArticleURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"https://en.wikipedia.org/wiki/New_York_City",
		articleURL(Node{Title: "New_York_City", Lang: "en"}))
	assert.Equal(t,
		"https://ru.wikipedia.org/wiki/%D0%9C%D0%BE%D1%81%D0%BA%D0%B2%D0%B0",
		articleURL(Node{Title: "Москва", Lang: "ru"}))
	assert.Equal(t,
		"https://en.wikipedia.org/wiki/AC/DC",
		articleURL(Node{Title: "AC/DC", Lang: "en"}))
}
