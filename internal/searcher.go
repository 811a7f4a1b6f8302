package internal

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// provider fetches outbound links and cross-language equivalents from an
// upstream. Implementations must absorb transient failures -- timeouts,
// malformed responses, rate limiting -- and return empty or partial results
// instead of errors.
type provider interface {
	// FetchLinks returns each page's outbound links and language equivalents
	// for a batch of same-language titles. The direction tag is informational.
	FetchLinks(ctx context.Context, titles []string, lang string, dir direction) []PageLinks

	// ResolveLangLinks maps an article onto its equivalents in other language
	// editions.
	ResolveLangLinks(ctx context.Context, title, lang string) map[string]string
}

// Searcher races two breadth-first frontiers toward each other, one growing
// out from the start article and one from the end, until they touch.
// Concurrency comes from overlapping upstream fetches; all state mutation
// stays on the coordinator goroutine inside Search.
type Searcher struct {
	provider provider
	cfg      SearchConfig
}

// NewSearcher creates a Searcher on top of a link provider. A Searcher is
// stateless and safe for concurrent use; each Search call owns its state.
func NewSearcher(p provider, cfg SearchConfig) *Searcher {
	return &Searcher{provider: p, cfg: cfg}
}

// Result is a found chain plus observability counters.
type Result struct {
	Path     []Node
	Requests int64
	Elapsed  time.Duration
}

// Steps renders the path as "lang:title" strings.
func (r *Result) Steps() []string {
	steps := make([]string, len(r.Path))
	for i, n := range r.Path {
		steps[i] = n.String()
	}
	return steps
}

// batchResult is what a fetch task hands back to the coordinator. Tasks never
// touch searchState beyond the found flag and the request counter.
type batchResult struct {
	dir   direction
	lang  string
	depth int
	pages []PageLinks
}

// Search finds a chain of links and language hops connecting start to end,
// both given in lang. It returns errNotFound once both frontiers are
// exhausted with no meeting.
func (s *Searcher) Search(ctx context.Context, start, end, lang string) (*Result, error) {
	if _, ok := s.cfg.Languages[lang]; !ok {
		return nil, errBadLanguage
	}

	started := time.Now()
	st := newSearchState()

	// Materialize per-language roots for both endpoints concurrently.
	var startRoots, endRoots map[string]Node
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		startRoots = s.resolveRoots(gctx, start, lang)
		return nil
	})
	g.Go(func() error {
		endRoots = s.resolveRoots(gctx, end, lang)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st.seed(forward, startRoots)
	st.seed(backward, endRoots)

	Log(ctx).Info("searching",
		"start", start, "end", end, "lang", lang,
		"startRoots", len(startRoots), "endRoots", len(endRoots),
	)

	// The endpoints may already share a node: identical articles, or a common
	// language equivalent. No fetch round is issued in that case.
	if meeting, ok := st.intersection(); ok {
		st.commit(meeting)
		return s.result(ctx, st, started), nil
	}

	// Cancelling this context abandons every outstanding fetch once a path is
	// found. In-flight upstream requests may still complete uselessly; their
	// results are discarded on arrival.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	completions := make(chan batchResult)

	var sem chan struct{}
	if s.cfg.MaxInFlight > 0 {
		sem = make(chan struct{}, s.cfg.MaxInFlight)
	}

	outstanding := 0
	for {
		launched := s.launch(ctx, st, sem, completions)
		outstanding += launched

		if launched > 0 {
			fwd, bwd := st.sizes()
			Log(ctx).Debug("round",
				"launched", launched, "outstanding", outstanding,
				"forward", fwd, "backward", bwd,
				"requests", st.requests.Load(),
			)
		}

		// Nothing pending and nothing in flight: the graph is exhausted.
		if outstanding == 0 {
			return nil, errNotFound
		}

		// Wait for at least one completion -- not all. A fast batch can
		// trigger meeting detection while slower ones are still in flight.
		// The wait is bounded so newly pending work and the found flag are
		// re-checked promptly.
		timer := time.NewTimer(s.cfg.Poll)
		select {
		case res := <-completions:
			outstanding--
			st.apply(res.dir, res.lang, res.depth, res.pages, s.cfg.Languages)
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		timer.Stop()

		// Fold in whatever else already finished without blocking.
		for drained := false; !drained; {
			select {
			case res := <-completions:
				outstanding--
				st.apply(res.dir, res.lang, res.depth, res.pages, s.cfg.Languages)
			default:
				drained = true
			}
		}

		if st.found.Load() {
			cancel()
			return s.result(ctx, st, started), nil
		}

		// Safety net for meetings the inline check can't see.
		if meeting, ok := st.intersection(); ok {
			st.commit(meeting)
			cancel()
			return s.result(ctx, st, started), nil
		}
	}
}

// launch drains both pending queues and starts one fetch task per batch,
// grouped by direction and language and bounded by the configured batch
// size. Returns how many tasks were started.
func (s *Searcher) launch(ctx context.Context, st *searchState, sem chan struct{}, completions chan<- batchResult) int {
	launched := 0

	for d, queue := range st.drain() {
		dir := direction(d)

		byLang := map[string][]pendingNode{}
		for _, p := range queue {
			if s.cfg.MaxDepth > 0 && p.depth >= s.cfg.MaxDepth {
				continue
			}
			byLang[p.node.Lang] = append(byLang[p.node.Lang], p)
		}

		for lang, items := range byLang {
			for i := 0; i < len(items); i += s.cfg.BatchSize {
				batch := items[i:min(i+s.cfg.BatchSize, len(items))]

				titles := make([]string, len(batch))
				for j, p := range batch {
					titles[j] = p.node.Title
				}

				go s.fetch(ctx, st, titles, lang, dir, batch[0].depth, sem, completions)
				launched++
			}
		}
	}

	return launched
}

// fetch is the body of one batch task. It always reports a completion unless
// the search was cancelled, even when it short-circuited or the upstream
// yielded nothing, so the coordinator's outstanding count stays accurate.
func (s *Searcher) fetch(ctx context.Context, st *searchState, titles []string, lang string, dir direction, depth int, sem chan struct{}, completions chan<- batchResult) {
	res := batchResult{dir: dir, lang: lang, depth: depth}

	defer func() {
		select {
		case completions <- res:
		case <-ctx.Done():
		}
	}()

	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return
		}
	}

	// A task that starts after the flag is set must not issue network work.
	if st.found.Load() || ctx.Err() != nil {
		return
	}

	metricBatchesInFlight.Inc()
	defer metricBatchesInFlight.Dec()

	st.requests.Add(1)
	res.pages = s.provider.FetchLinks(ctx, titles, lang, dir)
}

// resolveRoots maps an endpoint article onto one root per language edition,
// always including the article itself. On upstream failure this degrades to
// the single-entry form rather than failing the search.
func (s *Searcher) resolveRoots(ctx context.Context, title, lang string) map[string]Node {
	roots := map[string]Node{lang: {Title: title, Lang: lang}}

	for l, t := range s.provider.ResolveLangLinks(ctx, title, lang) {
		if _, ok := s.cfg.Languages[l]; !ok {
			continue
		}
		if _, ok := roots[l]; ok {
			continue
		}
		roots[l] = Node{Title: t, Lang: l}
	}

	return roots
}

func (s *Searcher) result(ctx context.Context, st *searchState, started time.Time) *Result {
	path := st.path(st.meeting)
	Log(ctx).Info("path found",
		"meeting", st.meeting.String(),
		"steps", len(path),
		"requests", st.requests.Load(),
	)
	return &Result{
		Path:     path,
		Requests: st.requests.Load(),
		Elapsed:  time.Since(started),
	}
}
