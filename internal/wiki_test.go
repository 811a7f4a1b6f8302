package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWiki serves canned MediaWiki responses and counts hits.
func fakeWiki(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func wikiConfig(endpoint string) SearchConfig {
	cfg := DefaultSearchConfig()
	cfg.Languages = map[string]string{"en": endpoint, "ru": endpoint}
	return cfg
}

func TestFetchLinks(t *testing.T) {
	t.Parallel()

	// Langlink titles hide under "*" in the query API, and links into editions
	// we don't search must be dropped.
	srv, hits := fakeWiki(t, `{
		"query": {
			"pages": {
				"1": {
					"title": "Apple",
					"links": [{"title": "Fruit"}, {"title": "Orchard"}],
					"langlinks": [
						{"lang": "ru", "*": "Яблоко"},
						{"lang": "xx", "*": "unsupported"}
					]
				}
			}
		}
	}`)

	p := NewWikiProvider(wikiConfig(srv.URL), nil, srv.Client())

	pages := p.FetchLinks(context.Background(), []string{"Apple"}, "en", forward)
	require.Len(t, pages, 1)

	assert.Equal(t, "Apple", pages[0].Title)
	assert.Equal(t, []string{"Fruit", "Orchard"}, pages[0].Links)
	assert.Equal(t, []LangLink{{Lang: "ru", Title: "Яблоко"}}, pages[0].LangLinks)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchLinksUpstreamFailure(t *testing.T) {
	// Failures degrade to an empty batch. The engine treats that as "nothing
	// found here", never as a retryable error.
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := NewWikiProvider(wikiConfig(srv.URL), nil, srv.Client())

	pages := p.FetchLinks(context.Background(), []string{"Apple"}, "en", backward)
	assert.Empty(t, pages)
}

func TestFetchLinksUnknownLanguage(t *testing.T) {
	t.Parallel()

	p := NewWikiProvider(wikiConfig("http://unused.invalid"), nil, http.DefaultClient)
	assert.Nil(t, p.FetchLinks(context.Background(), []string{"Apple"}, "xx", forward))
}

func TestFetchLinksCached(t *testing.T) {
	// A cached page is served without touching the upstream.
	t.Parallel()

	srv, hits := fakeWiki(t, `{
		"query": {
			"pages": {
				"1": {"title": "Apple", "links": [{"title": "Fruit"}]}
			}
		}
	}`)

	cache := &LayeredCache{wrapped: []cacher{newMemory()}}
	p := NewWikiProvider(wikiConfig(srv.URL), cache, srv.Client())

	ctx := context.Background()

	first := p.FetchLinks(ctx, []string{"Apple"}, "en", forward)
	require.Len(t, first, 1)
	require.Equal(t, int64(1), hits.Load())

	second := p.FetchLinks(ctx, []string{"Apple"}, "en", forward)
	require.Len(t, second, 1)
	assert.Equal(t, first[0], second[0])
	assert.Equal(t, int64(1), hits.Load())
}

func TestResolveLangLinks(t *testing.T) {
	t.Parallel()

	srv, _ := fakeWiki(t, `{
		"query": {
			"pages": {
				"1": {
					"title": "Apple",
					"langlinks": [
						{"lang": "ru", "*": "Яблоко"},
						{"lang": "xx", "*": "unsupported"}
					]
				}
			}
		}
	}`)

	p := NewWikiProvider(wikiConfig(srv.URL), nil, srv.Client())

	out := p.ResolveLangLinks(context.Background(), "Apple", "en")
	assert.Equal(t, map[string]string{"ru": "Яблоко"}, out)
}

func TestResolveLangLinksFailure(t *testing.T) {
	t.Parallel()

	cfg := wikiConfig("http://unreachable.invalid")
	cfg.RequestTimeout = 100 * time.Millisecond
	p := NewWikiProvider(cfg, nil, &http.Client{})

	assert.Empty(t, p.ResolveLangLinks(context.Background(), "Apple", "en"))
}
