// Package bloom remembers which domain names a batch has already seen.
package bloom

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a probabilistic set of domain names. Names are compared
// case-insensitively and without a trailing dot. A name may be reported as
// seen when it was not (false positive), never the reverse.
type Filter struct {
	f     *bloom.BloomFilter
	added uint
}

// NewFilter creates a Filter sized for n names at the given false positive
// rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Seen reports whether domain was probably seen before, and records it.
func (f *Filter) Seen(domain string) bool {
	if f.f.TestAndAddString(key(domain)) {
		return true
	}
	f.added++
	return false
}

// Len returns the number of names recorded as new.
func (f *Filter) Len() uint {
	return f.added
}

func key(domain string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
}
