package ecs

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// SearchParam describes an untyped search over entities, for tooling that only knows component
// names. Where is an expr-lang boolean expression evaluated against each entity, where every
// component is bound under its name and the entity id under "_id". See
// https://expr-lang.org/docs/language-definition.
type SearchParam struct {
	Find   []string    // Component names to match. Must be empty when Match is MatchAll.
	Match  SearchMatch // How Find is compared with an entity's components.
	Where  string      // Optional filter expression.
	Limit  uint32      // Maximum number of results, 0 means unlimited.
	Offset uint32      // Number of matching results to skip.
}

// SearchMatch is the way SearchParam.Find is matched.
type SearchMatch string

const (
	// MatchExact matches entities that have exactly the listed components.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that have at least the listed components.
	MatchContains SearchMatch = "contains"
	// MatchAll matches every entity.
	MatchAll SearchMatch = "all"
)

// Search returns one map per matching entity, holding its components by name and its id under
// "_id". Results follow query iteration order.
func (w *World) Search(params SearchParam) ([]map[string]any, error) {
	filter, err := params.compile()
	if err != nil {
		return nil, eris.Wrap(err, "invalid search params")
	}
	archetypeIDs, err := w.searchArchetypes(params.Find, params.Match)
	if err != nil {
		return nil, err
	}

	w.beginRead()
	defer w.endRead()

	results := make([]map[string]any, 0)
	var skipped uint32
	for _, aid := range archetypeIDs {
		arch := w.registry.archetypes[aid]
		for row, eid := range arch.entities() {
			result := make(map[string]any, len(arch.columns)+1)
			result["_id"] = uint32(eid)
			for _, col := range arch.columns {
				result[col.componentName()] = col.getAbstract(row)
			}

			if filter != nil {
				ok, err := matchesFilter(filter, result)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			if skipped < params.Offset {
				skipped++
				continue
			}
			results = append(results, result)
			if params.Limit > 0 && uint32(len(results)) >= params.Limit { //nolint:gosec // bounded by Limit
				return results, nil
			}
		}
	}
	return results, nil
}

func (s *SearchParam) compile() (*vm.Program, error) {
	switch s.Match {
	case MatchAll:
		if len(s.Find) > 0 {
			return nil, eris.New("find must be empty when match is 'all'")
		}
	case MatchExact, MatchContains:
		if len(s.Find) == 0 {
			return nil, eris.New("find must not be empty when match is not 'all'")
		}
	default:
		return nil, eris.Errorf("invalid match %q: must be %q, %q or %q", s.Match, MatchExact, MatchContains, MatchAll)
	}

	if s.Where == "" {
		return nil, nil //nolint:nilnil // no filter
	}
	program, err := expr.Compile(s.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse where clause")
	}
	return program, nil
}

func (w *World) searchArchetypes(names []string, match SearchMatch) ([]archetypeID, error) {
	if match == MatchAll {
		ids := make([]archetypeID, len(w.registry.archetypes))
		for i := range ids {
			ids[i] = i
		}
		return ids, nil
	}

	var b patternBuilder
	for _, name := range names {
		id, ok := w.components.lookup(name)
		if !ok {
			return nil, eris.Wrapf(ErrComponentNotRegistered, "component %q", name)
		}
		b.require(id)
	}
	pattern := b.build()

	if match == MatchExact {
		if arch, ok := w.registry.lookup(pattern.required); ok {
			return []archetypeID{arch.id}, nil
		}
		return nil, nil
	}
	return w.registry.query(&pattern), nil
}

func matchesFilter(filter *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(filter, env)
	if err != nil {
		return false, eris.Wrap(err, "failed to run where clause")
	}
	// The environment is only known per entity, so the compiler cannot always prove the result is
	// a bool.
	matched, ok := output.(bool)
	if !ok {
		return false, eris.Errorf("where clause returned %T, not bool", output)
	}
	return matched, nil
}
