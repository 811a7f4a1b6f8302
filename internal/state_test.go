package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier(t *testing.T) {
	t.Parallel()

	f := newFrontier()

	a := Node{Title: "Apple", Lang: "en"}
	b := Node{Title: "Banana", Lang: "en"}
	c := Node{Title: "Cherry", Lang: "en"}

	t.Run("first discoverer wins", func(t *testing.T) {
		assert.True(t, f.insert(a, nil))
		assert.True(t, f.insert(c, &a))

		// A later discovery of c through b must not reparent it.
		assert.False(t, f.insert(c, &b))

		parent, ok := f.parent(c)
		require.True(t, ok)
		assert.Equal(t, a, parent)
	})

	t.Run("roots have no parent", func(t *testing.T) {
		_, ok := f.parent(a)
		assert.False(t, ok)
	})

	t.Run("titles are case-insensitive", func(t *testing.T) {
		assert.True(t, f.has(Node{Title: "apple", Lang: "en"}))
		assert.False(t, f.has(Node{Title: "Apple", Lang: "de"}))
	})
}

func TestCommitOnce(t *testing.T) {
	t.Parallel()

	st := newSearchState()
	first := Node{Title: "First", Lang: "en"}
	second := Node{Title: "Second", Lang: "en"}

	assert.True(t, st.commit(first))
	assert.False(t, st.commit(second))
	assert.Equal(t, first, st.meeting)
	assert.True(t, st.found.Load())
}

func TestApplyDepths(t *testing.T) {
	// Outbound links cost a hop; language equivalents keep the parent's depth.
	t.Parallel()

	st := newSearchState()
	st.seed(forward, map[string]Node{"en": {Title: "Start", Lang: "en"}})
	st.seed(backward, map[string]Node{"en": {Title: "End", Lang: "en"}})
	st.drain()

	langs := map[string]string{"en": "", "ru": ""}
	pages := []PageLinks{{
		Title:     "Start",
		Links:     []string{"Middle"},
		LangLinks: []LangLink{{Lang: "ru", Title: "Старт"}, {Lang: "xx", Title: "ignored"}},
	}}

	found := st.apply(forward, "en", 3, pages, langs)
	assert.False(t, found)

	byKey := map[string]int{}
	for _, p := range st.pending[forward] {
		byKey[p.node.Key()] = p.depth
	}
	assert.Equal(t, 4, byKey["en:middle"])
	assert.Equal(t, 3, byKey["ru:старт"])
	assert.NotContains(t, byKey, "xx:ignored")
}

func TestApplyMeeting(t *testing.T) {
	t.Parallel()

	st := newSearchState()
	st.seed(forward, map[string]Node{"en": {Title: "Start", Lang: "en"}})
	st.seed(backward, map[string]Node{"en": {Title: "End", Lang: "en"}})
	st.drain()

	pages := []PageLinks{{Title: "Start", Links: []string{"End"}}}
	found := st.apply(forward, "en", 0, pages, map[string]string{"en": ""})

	require.True(t, found)
	assert.Equal(t, "en:End", st.meeting.String())

	// Later batches are discarded wholesale once a meeting is committed.
	assert.True(t, st.apply(backward, "en", 0, []PageLinks{{Title: "End", Links: []string{"Other"}}}, map[string]string{"en": ""}))
	assert.Empty(t, st.pending[backward])
}

func TestIntersection(t *testing.T) {
	t.Parallel()

	t.Run("identical endpoints", func(t *testing.T) {
		st := newSearchState()
		st.seed(forward, map[string]Node{"en": {Title: "Same", Lang: "en"}})
		st.seed(backward, map[string]Node{"en": {Title: "same", Lang: "en"}})

		meeting, ok := st.intersection()
		require.True(t, ok)
		assert.Equal(t, "en:same", meeting.Key())
	})

	t.Run("disjoint frontiers", func(t *testing.T) {
		st := newSearchState()
		st.seed(forward, map[string]Node{"en": {Title: "A", Lang: "en"}})
		st.seed(backward, map[string]Node{"en": {Title: "B", Lang: "en"}})

		_, ok := st.intersection()
		assert.False(t, ok)
	})
}

func TestPath(t *testing.T) {
	// Forward chain Start -> Mid -> Meet, backward chain End -> Meet. The
	// rendered path walks forward through the meeting node and out the other
	// side.
	t.Parallel()

	start := Node{Title: "Start", Lang: "en"}
	mid := Node{Title: "Mid", Lang: "en"}
	meet := Node{Title: "Meet", Lang: "en"}
	end := Node{Title: "End", Lang: "en"}

	st := newSearchState()
	require.True(t, st.frontiers[forward].insert(start, nil))
	require.True(t, st.frontiers[forward].insert(mid, &start))
	require.True(t, st.frontiers[forward].insert(meet, &mid))
	require.True(t, st.frontiers[backward].insert(end, nil))
	require.True(t, st.frontiers[backward].insert(meet, &end))

	assert.Equal(t, []Node{start, mid, meet, end}, st.path(meet))
}
