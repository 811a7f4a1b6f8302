package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SearchConfig tunes the bidirectional search engine.
type SearchConfig struct {
	// Languages maps supported language codes to their API endpoints. Only
	// links into these editions are followed.
	Languages map[string]string

	// BatchSize bounds how many titles go into one upstream request. The API
	// rejects larger batches; this is not a correctness knob.
	BatchSize int

	// Poll bounds how long a round waits for a batch to complete before
	// re-checking the found flag and newly pending work.
	Poll time.Duration

	// RequestTimeout bounds each upstream request.
	RequestTimeout time.Duration

	// MaxInFlight caps concurrently outstanding batch fetches across both
	// directions. Zero means unbounded, matching the original behavior.
	MaxInFlight int

	// MaxDepth stops expanding nodes discovered more than this many link hops
	// from a root. Zero means unlimited. Language hops don't count.
	MaxDepth int

	UserAgent string
}

// DefaultLanguages are the editions we search out of the box.
var DefaultLanguages = map[string]string{
	"en": "https://en.wikipedia.org/w/api.php",
	"ru": "https://ru.wikipedia.org/w/api.php",
	"de": "https://de.wikipedia.org/w/api.php",
	"fr": "https://fr.wikipedia.org/w/api.php",
	"es": "https://es.wikipedia.org/w/api.php",
	"it": "https://it.wikipedia.org/w/api.php",
	"pt": "https://pt.wikipedia.org/w/api.php",
	"ja": "https://ja.wikipedia.org/w/api.php",
	"zh": "https://zh.wikipedia.org/w/api.php",
	"pl": "https://pl.wikipedia.org/w/api.php",
	"nl": "https://nl.wikipedia.org/w/api.php",
	"uk": "https://uk.wikipedia.org/w/api.php",
}

// DefaultSearchConfig returns the engine defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Languages:      DefaultLanguages,
		BatchSize:      50,
		Poll:           100 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
		MaxInFlight:    64,
		MaxDepth:       0,
		UserAgent:      "wikihop/1.0 (+https://github.com/wikihop/wikihop)",
	}
}

// LoadLanguages replaces the language table with one read from a YAML file
// mapping language codes to API endpoints.
func (c *SearchConfig) LoadLanguages(path string) error {
	byt, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading languages: %w", err)
	}

	langs := map[string]string{}
	if err := yaml.Unmarshal(byt, &langs); err != nil {
		return fmt.Errorf("parsing languages: %w", err)
	}
	if len(langs) == 0 {
		return fmt.Errorf("languages file %q is empty", path)
	}

	c.Languages = langs
	return nil
}
