// Package tokens approximates token counts for providers that do not
// report usage. Counts from this package are estimates, never exact.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// charsPerToken is the fallback heuristic when no encoding is available.
const charsPerToken = 4

// Estimator counts tokens with a tiktoken encoding when one can be
// loaded, falling back to a character heuristic otherwise.
type Estimator struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewEstimator creates an Estimator. The encoding is loaded lazily on
// first use so constructing one is always cheap and error-free.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate returns an approximate token count for text.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	e.once.Do(func() {
		// Loading can fail (the BPE data may be unavailable offline);
		// the heuristic covers that case.
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			e.encoding = enc
		}
	})

	if e.encoding != nil {
		return len(e.encoding.Encode(text, nil, nil))
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}
