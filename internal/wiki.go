package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var _linksTTL = 24 * time.Hour

// PageLinks is one page's outbound links and cross-language equivalents.
type PageLinks struct {
	Title     string     `json:"title"`
	Links     []string   `json:"links"`
	LangLinks []LangLink `json:"langlinks"`
}

// LangLink names the same topic in another language edition.
type LangLink struct {
	Lang  string `json:"lang"`
	Title string `json:"title"`
}

// WikiProvider fetches links from MediaWiki query APIs, one endpoint per
// language edition. It never returns errors: transient failures degrade to
// empty results, which the engine treats as "this batch yielded nothing".
// Fetched pages are cached so repeated searches skip the network.
type WikiProvider struct {
	cfg   SearchConfig
	http  *http.Client
	cache *LayeredCache
}

var _ provider = (*WikiProvider)(nil)

// NewWikiProvider creates a provider on top of an upstream client. The cache
// is optional.
func NewWikiProvider(cfg SearchConfig, cache *LayeredCache, client *http.Client) *WikiProvider {
	return &WikiProvider{cfg: cfg, http: client, cache: cache}
}

// wikiLangLink decodes a langlinks entry, whose title hides under "*".
type wikiLangLink struct {
	Lang  string
	Title string
}

func (l *wikiLangLink) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if lang, ok := raw["lang"].(string); ok {
		l.Lang = lang
	}
	if title, ok := raw["*"].(string); ok {
		l.Title = title
	}
	return nil
}

type wikiResponse struct {
	Query struct {
		Pages map[string]struct {
			Title string `json:"title"`
			Links []struct {
				Title string `json:"title"`
			} `json:"links"`
			LangLinks []wikiLangLink `json:"langlinks"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchLinks implements provider. Cached pages are served without touching
// the upstream; only the remainder of the batch is requested.
func (p *WikiProvider) FetchLinks(ctx context.Context, titles []string, lang string, dir direction) []PageLinks {
	endpoint, ok := p.cfg.Languages[lang]
	if !ok || len(titles) == 0 {
		return nil
	}
	if len(titles) > p.cfg.BatchSize {
		titles = titles[:p.cfg.BatchSize]
	}

	var out []PageLinks

	missing := titles[:0:0]
	for _, title := range titles {
		if page, ok := p.cachedPage(ctx, lang, title); ok {
			out = append(out, page)
			continue
		}
		missing = append(missing, title)
	}
	if len(missing) == 0 {
		return out
	}

	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"prop":        {"links|langlinks"},
		"titles":      {strings.Join(missing, "|")},
		"pllimit":     {"max"},
		"lllimit":     {"max"},
		"plnamespace": {"0"},
		"redirects":   {"1"},
	}

	var data wikiResponse
	if err := p.get(ctx, endpoint, lang, params, &data); err != nil {
		Log(ctx).Warn("batch fetch failed", "lang", lang, "direction", dir.String(), "titles", len(missing), "err", err)
		return out
	}

	for _, page := range data.Query.Pages {
		if page.Title == "" {
			continue
		}

		links := PageLinks{Title: page.Title}
		for _, l := range page.Links {
			links.Links = append(links.Links, l.Title)
		}
		for _, ll := range page.LangLinks {
			if _, ok := p.cfg.Languages[ll.Lang]; !ok || ll.Title == "" {
				continue
			}
			links.LangLinks = append(links.LangLinks, LangLink{Lang: ll.Lang, Title: ll.Title})
		}

		p.cachePage(ctx, lang, links)
		out = append(out, links)
	}

	return out
}

// ResolveLangLinks implements provider.
func (p *WikiProvider) ResolveLangLinks(ctx context.Context, title, lang string) map[string]string {
	endpoint, ok := p.cfg.Languages[lang]
	if !ok {
		return nil
	}

	params := url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"prop":      {"langlinks"},
		"titles":    {title},
		"lllimit":   {"max"},
		"redirects": {"1"},
	}

	var data wikiResponse
	if err := p.get(ctx, endpoint, lang, params, &data); err != nil {
		Log(ctx).Warn("language resolution failed", "lang", lang, "title", title, "err", err)
		return nil
	}

	out := map[string]string{}
	for _, page := range data.Query.Pages {
		for _, ll := range page.LangLinks {
			if _, ok := p.cfg.Languages[ll.Lang]; !ok || ll.Title == "" {
				continue
			}
			out[ll.Lang] = ll.Title
		}
	}

	return out
}

// Warmup opens a connection to every language endpoint so the first search
// doesn't pay for TCP and TLS handshakes.
func (p *WikiProvider) Warmup(ctx context.Context) {
	params := url.Values{
		"action": {"query"},
		"format": {"json"},
		"meta":   {"siteinfo"},
	}

	var g errgroup.Group
	for lang, endpoint := range p.cfg.Languages {
		g.Go(func() error {
			var data struct{}
			if err := p.get(ctx, endpoint, lang, params, &data); err != nil {
				Log(ctx).Debug("warmup failed", "lang", lang, "err", err)
				return nil
			}
			Log(ctx).Debug("warmed up", "lang", lang)
			return nil
		})
	}
	_ = g.Wait()
}

// get issues one bounded query against an endpoint and decodes the response.
func (p *WikiProvider) get(ctx context.Context, endpoint, lang string, params url.Values, into any) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	metricUpstreamRequests.WithLabelValues(lang).Inc()

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusErr(resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(into)
}

func (p *WikiProvider) cachedPage(ctx context.Context, lang, title string) (PageLinks, bool) {
	if p.cache == nil {
		return PageLinks{}, false
	}
	byt, ok := p.cache.Get(ctx, LinksKey(lang, title))
	if !ok {
		return PageLinks{}, false
	}
	var page PageLinks
	if err := json.Unmarshal(byt, &page); err != nil {
		_ = p.cache.Expire(ctx, LinksKey(lang, title))
		return PageLinks{}, false
	}
	return page, true
}

func (p *WikiProvider) cachePage(ctx context.Context, lang string, page PageLinks) {
	if p.cache == nil {
		return
	}
	byt, err := json.Marshal(page)
	if err != nil {
		return
	}
	p.cache.Set(ctx, LinksKey(lang, page.Title), byt, fuzz(_linksTTL, 1.5))
}
