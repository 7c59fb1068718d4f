// Package search ranks a catalog snapshot against a query string. Both
// policies are pure functions: they never mutate the store and an empty
// catalog yields an empty result, never an error.
package search

import (
	"sort"
	"strings"

	"github.com/kchlu/stocktake/internal/store"
	"github.com/pmezard/go-difflib/difflib"
)

// Policy selects a ranking strategy.
type Policy string

const (
	// PolicyTiered orders matches by exact, prefix, then substring tier.
	PolicyTiered Policy = "tiered"
	// PolicyFuzzy orders matches by descending similarity ratio.
	PolicyFuzzy Policy = "fuzzy"
)

// Valid reports whether the policy is one of the known strategies.
func (p Policy) Valid() bool {
	return p == PolicyTiered || p == PolicyFuzzy
}

// Tiers is the four-way partition produced by the tiered policy. Rest
// holds records whose name does not contain the query at all.
type Tiers struct {
	Exact     []store.Product
	Prefix    []store.Product
	Substring []store.Product
	Rest      []store.Product
}

// PartitionTiered splits the snapshot into the four match tiers with a
// stable partition: within each tier the snapshot order is preserved.
// The query comparison is case-insensitive.
func PartitionTiered(products []store.Product, query string) Tiers {
	var t Tiers
	q := strings.ToLower(query)
	for _, p := range products {
		name := strings.ToLower(p.Name)
		switch {
		case name == q:
			t.Exact = append(t.Exact, p)
		case strings.HasPrefix(name, q):
			t.Prefix = append(t.Prefix, p)
		case strings.Contains(name, q):
			t.Substring = append(t.Substring, p)
		default:
			t.Rest = append(t.Rest, p)
		}
	}
	return t
}

// RankTiered returns the snapshot ordered by match tier: exact, then
// prefix, then substring. Records that do not match at all are dropped.
// An empty query returns the snapshot order unchanged, no tiering applied.
func RankTiered(products []store.Product, query string) []store.Product {
	if query == "" {
		out := make([]store.Product, len(products))
		copy(out, products)
		return out
	}
	t := PartitionTiered(products, query)
	out := make([]store.Product, 0, len(t.Exact)+len(t.Prefix)+len(t.Substring))
	out = append(out, t.Exact...)
	out = append(out, t.Prefix...)
	out = append(out, t.Substring...)
	return out
}

// EmptyQueryMode decides what the fuzzy policy does with an empty
// query. The engine has no default; callers wire the choice from
// configuration.
type EmptyQueryMode string

const (
	// EmptyQueryNone returns no results for an empty query.
	EmptyQueryNone EmptyQueryMode = "none"
	// EmptyQueryAll returns the unranked snapshot for an empty query.
	EmptyQueryAll EmptyQueryMode = "all"
)

// FuzzyOptions configures the fuzzy policy.
type FuzzyOptions struct {
	EmptyQuery EmptyQueryMode
}

// RankFuzzy orders the snapshot by descending similarity between the
// lower-cased query and each lower-cased name. Records with a ratio of
// exactly 0 are excluded; ties keep the snapshot order.
func RankFuzzy(products []store.Product, query string, opts FuzzyOptions) []store.Product {
	if query == "" {
		if opts.EmptyQuery == EmptyQueryAll {
			out := make([]store.Product, len(products))
			copy(out, products)
			return out
		}
		return []store.Product{}
	}

	q := strings.ToLower(query)
	type scored struct {
		product store.Product
		ratio   float64
	}
	matches := make([]scored, 0, len(products))
	for _, p := range products {
		r := Ratio(q, strings.ToLower(p.Name))
		if r > 0 {
			matches = append(matches, scored{product: p, ratio: r})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ratio > matches[j].ratio
	})

	out := make([]store.Product, len(matches))
	for i, m := range matches {
		out[i] = m.product
	}
	return out
}

// Ratio computes the sequence-matcher similarity of two strings over
// their rune sequences: twice the matched run length divided by the
// total length. Identical strings score 1.0, fully disjoint strings 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
