package eez

import (
	"sort"
	"sync"
)

// Selection tracks which control values are currently selected and keeps the
// group/member mirroring invariant: toggling a group toggles every member,
// while toggling a member never propagates back to its group. Mirroring is
// applied in full under the lock, so any later ResolvedIDs call observes a
// settled selection.
type Selection struct {
	mu       sync.Mutex
	catalog  *Catalog
	selected map[string]bool
}

func NewSelection(c *Catalog) *Selection {
	return &Selection{catalog: c, selected: map[string]bool{}}
}

// SetSelected flips one option's selected flag. Unknown values are ignored.
func (s *Selection) SetSelected(value string, sel bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opt, ok := s.catalog.Lookup(value)
	if !ok {
		return
	}
	s.selected[value] = sel
	if opt.Type != Group {
		return
	}
	// Mirror the group's own flag onto every member. Members are individual
	// options keyed by raw id, so this cannot recurse into another group.
	for _, id := range opt.MemberIDs {
		if _, ok := s.catalog.Lookup(id); ok {
			s.selected[id] = sel
		}
	}
}

// IsSelected reports one option's current flag.
func (s *Selection) IsSelected(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[value]
}

// ResolvedIDs is the deduplicated union over all selected options: the
// option's own id for individuals, MemberIDs for groups. Sorted for
// deterministic output; the set is order-irrelevant.
func (s *Selection) ResolvedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := map[string]struct{}{}
	for value, sel := range s.selected {
		if !sel {
			continue
		}
		opt, ok := s.catalog.Lookup(value)
		if !ok {
			continue
		}
		switch opt.Type {
		case Individual:
			set[opt.Value] = struct{}{}
		case Group:
			for _, id := range opt.MemberIDs {
				set[id] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]bool{}
}
