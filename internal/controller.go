package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// _resultTTL is how long a found path is served from cache. Link graphs
	// drift slowly, so a day is plenty.
	_resultTTL = 24 * time.Hour

	// _missing is a sentinel value we cache for not-found searches.
	_missing = []byte{0}

	// _missingTTL is how long we'll wait before re-running a failed search.
	_missingTTL = 1 * time.Hour
)

// Controller sits between the HTTP handler and the search engine. Identical
// concurrent searches are coalesced into one run via singleflight, and
// completed results (including not-found outcomes) are cached.
type Controller struct {
	searcher *Searcher
	cache    *LayeredCache
	group    singleflight.Group // Coalesce searches for the same key.

	searches atomic.Int64
	hits     atomic.Int64
}

// NewController creates a new controller.
func NewController(searcher *Searcher, cache *LayeredCache) (*Controller, error) {
	c := &Controller{
		searcher: searcher,
		cache:    cache,
	}

	// Log controller stats every minute.
	go func() {
		ctx := context.Background()
		for {
			time.Sleep(1 * time.Minute)
			searches, hits := c.searches.Load(), c.hits.Load()
			Log(ctx).Debug("controller stats",
				"searches", searches,
				"cacheHits", hits,
			)
		}
	}()

	return c, nil
}

// Search returns the serialized search resource connecting from to to, or
// errNotFound if no chain exists.
func (c *Controller) Search(ctx context.Context, from, to, lang string) ([]byte, error) {
	key := SearchKey(from, to, lang)
	out, err, _ := c.group.Do(key, func() (any, error) {
		return c.search(ctx, key, from, to, lang)
	})
	if out == nil {
		return nil, err
	}
	return out.([]byte), err
}

func (c *Controller) search(ctx context.Context, key, from, to, lang string) ([]byte, error) {
	c.searches.Add(1)

	if ctx.Value(middleware.RequestIDKey) == nil {
		ctx = context.WithValue(ctx, middleware.RequestIDKey, "search-"+uuid.NewString()[:8])
	}

	cached, ttl, ok := c.cache.GetWithTTL(ctx, key)
	if ok && ttl > 0 {
		c.hits.Add(1)
		if slices.Equal(cached, _missing) {
			return nil, errNotFound
		}
		return cached, nil
	}

	started := time.Now()
	res, err := c.searcher.Search(ctx, from, to, lang)
	metricSearchDuration.Observe(time.Since(started).Seconds())

	if errors.Is(err, errNotFound) {
		metricSearches.WithLabelValues("not_found").Inc()
		c.cache.Set(ctx, key, _missing, _missingTTL)
		return nil, err
	}
	if err != nil {
		metricSearches.WithLabelValues("error").Inc()
		Log(ctx).Warn("problem searching", "err", err, "from", from, "to", to, "lang", lang)
		return nil, err
	}

	metricSearches.WithLabelValues("found").Inc()
	metricPathLength.Observe(float64(len(res.Path)))

	byt, err := json.Marshal(newSearchResource(from, to, lang, res))
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, key, byt, fuzz(_resultTTL, 1.5))

	return byt, nil
}

// searchResource is the JSON shape served to clients.
type searchResource struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Lang       string         `json:"lang"`
	PathLength int            `json:"path_length"`
	Path       []stepResource `json:"path"`
	Stats      searchStats    `json:"stats"`
}

type stepResource struct {
	Step     int    `json:"step"`
	Title    string `json:"title"`
	Lang     string `json:"lang"`
	URL      string `json:"url"`
	FullName string `json:"full_name"`
}

type searchStats struct {
	Duration   string  `json:"duration"`
	DurationMS float64 `json:"duration_ms"`
	Requests   int64   `json:"request_count"`
}

func newSearchResource(from, to, lang string, res *Result) searchResource {
	steps := make([]stepResource, len(res.Path))
	for i, n := range res.Path {
		steps[i] = stepResource{
			Step:     i + 1,
			Title:    n.Title,
			Lang:     n.Lang,
			URL:      articleURL(n),
			FullName: n.String(),
		}
	}

	return searchResource{
		From:       from,
		To:         to,
		Lang:       lang,
		PathLength: len(res.Path),
		Path:       steps,
		Stats: searchStats{
			Duration:   res.Elapsed.String(),
			DurationMS: float64(res.Elapsed.Microseconds()) / 1000,
			Requests:   res.Requests,
		},
	}
}

func articleURL(n Node) string {
	return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s",
		n.Lang, strings.ReplaceAll(url.PathEscape(n.Title), "%2F", "/"))
}
