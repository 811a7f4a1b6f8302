package internal

import (
	"slices"
	"sync/atomic"
)

// pendingNode is a discovered node waiting to be fetched, together with how
// many link hops separate it from its root. Language hops don't add depth.
type pendingNode struct {
	node  Node
	depth int
}

// frontier tracks every node discovered from one endpoint along with the
// parent chain back to a root. A node's parent entry is written once, by its
// first discoverer, and never overwritten.
type frontier struct {
	nodes   map[string]Node  // Key -> node as first seen.
	parents map[string]*Node // Key -> parent; nil marks a root.
}

func newFrontier() *frontier {
	return &frontier{
		nodes:   map[string]Node{},
		parents: map[string]*Node{},
	}
}

func (f *frontier) has(n Node) bool {
	_, ok := f.nodes[n.Key()]
	return ok
}

// insert records n with the given parent. Returns false if n was already
// known, in which case the existing parent entry stands.
func (f *frontier) insert(n Node, parent *Node) bool {
	key := n.Key()
	if _, ok := f.nodes[key]; ok {
		return false
	}
	f.nodes[key] = n
	f.parents[key] = parent
	return true
}

// parent returns n's recorded parent. ok is false for roots and for nodes the
// frontier never discovered.
func (f *frontier) parent(n Node) (Node, bool) {
	p := f.parents[n.Key()]
	if p == nil {
		return Node{}, false
	}
	return *p, true
}

// searchState is the one structure shared by a search's goroutines. Fetch
// tasks only read the found flag and bump the request counter; everything
// else is owned by the coordinator loop in Searcher.Search, which is the sole
// mutator. That single-writer discipline is what serializes state updates --
// no batch ever observes another batch's half-applied mutations.
type searchState struct {
	frontiers [2]*frontier
	pending   [2][]pendingNode
	meeting   Node

	found    atomic.Bool
	requests atomic.Int64
}

func newSearchState() *searchState {
	return &searchState{
		frontiers: [2]*frontier{newFrontier(), newFrontier()},
	}
}

// seed installs per-language roots for one endpoint and queues them at depth
// zero.
func (s *searchState) seed(dir direction, roots map[string]Node) {
	for _, n := range roots {
		if s.frontiers[dir].insert(n, nil) {
			s.pending[dir] = append(s.pending[dir], pendingNode{node: n})
		}
	}
}

// drain empties both pending queues and returns the snapshot.
func (s *searchState) drain() [2][]pendingNode {
	var out [2][]pendingNode
	out[forward], s.pending[forward] = s.pending[forward], nil
	out[backward], s.pending[backward] = s.pending[backward], nil
	return out
}

// commit records the meeting node and flips the found flag. Only the first
// commit sticks; later candidates are discarded.
func (s *searchState) commit(meeting Node) bool {
	if s.found.Load() {
		return false
	}
	s.meeting = meeting
	s.found.Store(true)
	return true
}

// apply folds one completed batch into the state. Outbound links cost one
// hop; cross-language equivalents are recorded as real path edges but keep
// the parent's depth. Returns true once a meeting has been committed, at
// which point the remainder of this batch (and every later one) is ignored.
func (s *searchState) apply(dir direction, lang string, depth int, pages []PageLinks, langs map[string]string) bool {
	if s.found.Load() {
		return true
	}

	for _, page := range pages {
		parent := Node{Title: page.Title, Lang: lang}

		for _, title := range page.Links {
			if s.addChild(dir, Node{Title: title, Lang: lang}, parent, depth+1) {
				return true
			}
		}

		for _, ll := range page.LangLinks {
			if _, ok := langs[ll.Lang]; !ok || ll.Title == "" {
				continue
			}
			if s.addChild(dir, Node{Title: ll.Title, Lang: ll.Lang}, parent, depth) {
				return true
			}
		}
	}

	return false
}

// addChild runs the per-child processing order: meeting check against the
// opposite frontier first, then insert-if-new, otherwise no-op.
func (s *searchState) addChild(dir direction, child, parent Node, depth int) bool {
	own, other := s.frontiers[dir], s.frontiers[dir.other()]

	if other.has(child) {
		// Both parent chains through child are now defined.
		own.insert(child, &parent)
		return s.commit(child)
	}

	if own.insert(child, &parent) {
		s.pending[dir] = append(s.pending[dir], pendingNode{node: child, depth: depth})
	}

	return false
}

// intersection returns any node present in both frontiers. The inline check
// in addChild can miss identical endpoints and two cross-language chains
// converging on the same node, so this sweep runs after seeding and after
// each round.
func (s *searchState) intersection() (Node, bool) {
	a, b := s.frontiers[forward], s.frontiers[backward]
	if len(b.nodes) < len(a.nodes) {
		a, b = b, a
	}
	for key, n := range a.nodes {
		if _, ok := b.nodes[key]; ok {
			return n, true
		}
	}
	return Node{}, false
}

// path reconstructs the connecting chain through the meeting node: the
// forward walk reversed, then the backward chain as-is. Every consecutive
// pair corresponds to a discovered link or language equivalence.
func (s *searchState) path(meeting Node) []Node {
	steps := []Node{meeting}
	for curr, ok := s.frontiers[forward].parent(meeting); ok; curr, ok = s.frontiers[forward].parent(curr) {
		steps = append(steps, curr)
	}
	slices.Reverse(steps)

	for curr, ok := s.frontiers[backward].parent(meeting); ok; curr, ok = s.frontiers[backward].parent(curr) {
		steps = append(steps, curr)
	}

	return steps
}

// sizes reports frontier cardinality for progress logging.
func (s *searchState) sizes() (fwd, bwd int) {
	return len(s.frontiers[forward].nodes), len(s.frontiers[backward].nodes)
}
