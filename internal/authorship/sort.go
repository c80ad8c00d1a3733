// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"cmp"
	"slices"

	"github.com/bartekus/gitauthors/internal/config"
)

// SortPolicy orders author lists. One policy is shared by every list of a
// Repository so that page and project lists agree.
type SortPolicy struct {
	Key     config.SortKey
	Reverse bool
}

// NewSortPolicy derives the policy from configuration. Showing line counts
// or contributions implies sorting by contribution, largest first;
// sort_reverse flips whichever direction applies.
func NewSortPolicy(cfg *config.Config) (SortPolicy, error) {
	key, err := config.ParseSortKey(cfg.SortAuthorsBy)
	if err != nil {
		return SortPolicy{}, err
	}
	shows := cfg.ShowLineCount || cfg.ShowContribution
	if shows {
		key = config.SortByContribution
	}
	return SortPolicy{Key: key, Reverse: shows != cfg.SortReverse}, nil
}

// Compare orders a before b. Contribution is the project-wide share and
// Reverse applies to it alone; ties fall back to name and then email in
// ascending order. A name sort treats name and email as one key, so Reverse
// exactly reverses it.
func (p SortPolicy) Compare(a, b *Author) int {
	if p.Key == config.SortByContribution {
		// Every author shares the same denominator, so lines order the same
		// way as contributions without float comparisons.
		c := cmp.Compare(a.Lines(nil), b.Lines(nil))
		if p.Reverse {
			c = -c
		}
		if c != 0 {
			return c
		}
		return byName(a, b)
	}
	if p.Reverse {
		return -byName(a, b)
	}
	return byName(a, b)
}

func byName(a, b *Author) int {
	if c := cmp.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	return cmp.Compare(a.Email(), b.Email())
}

// SortAuthors sorts authors in place.
func SortAuthors(authors []*Author, p SortPolicy) {
	slices.SortFunc(authors, p.Compare)
}
