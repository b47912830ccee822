package ecs

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kelindar/bitmap"
)

// queryPattern is the normalized form of a query: the component types an archetype must own and
// the ones it must not. Two queries with the same pattern match the same archetypes, so the
// pattern key doubles as the query cache key.
type queryPattern struct {
	required []componentID
	excluded []componentID
	with     bitmap.Bitmap
	without  bitmap.Bitmap
	key      string
}

// patternBuilder accumulates requirements from fetch fields and filters.
type patternBuilder struct {
	required []componentID
	excluded []componentID
}

func (b *patternBuilder) require(id componentID) {
	b.required = append(b.required, id)
}

func (b *patternBuilder) exclude(id componentID) {
	b.excluded = append(b.excluded, id)
}

func (b *patternBuilder) build() queryPattern {
	p := queryPattern{
		required: normalizeIDs(b.required),
		excluded: normalizeIDs(b.excluded),
	}
	for _, id := range p.required {
		p.with.Set(id)
	}
	for _, id := range p.excluded {
		p.without.Set(id)
	}

	var sb strings.Builder
	for _, id := range p.required {
		sb.WriteByte('+')
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	for _, id := range p.excluded {
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	p.key = sb.String()
	return p
}

// unsatisfiable reports whether some type is both required and excluded.
func (p *queryPattern) unsatisfiable() bool {
	for _, id := range p.required {
		if _, ok := slices.BinarySearch(p.excluded, id); ok {
			return true
		}
	}
	return false
}

func (p *queryPattern) matches(a *archetype) bool {
	return a.superset(p.with) && a.disjoint(p.without)
}

func normalizeIDs(ids []componentID) []componentID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// signatureKey is the cache key for the archetype owning exactly ids (sorted, unique).
func signatureKey(ids []componentID) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}
