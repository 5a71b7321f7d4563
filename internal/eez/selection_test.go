package eez

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSelection(t *testing.T) *Selection {
	t.Helper()
	c := NewCatalog()
	c.Build(testEntries())
	return NewSelection(c)
}

func TestGroupSelect_MirrorsOntoMembers(t *testing.T) {
	s := newTestSelection(t)

	s.SetSelected(GroupPrefix+"8316", true)
	for _, id := range []string{"8316", "8341", "8342"} {
		if !s.IsSelected(id) {
			t.Fatalf("member %s not selected after group select", id)
		}
	}

	s.SetSelected(GroupPrefix+"8316", false)
	for _, id := range []string{"8316", "8341", "8342"} {
		if s.IsSelected(id) {
			t.Fatalf("member %s still selected after group deselect", id)
		}
	}
}

func TestMemberDeselect_LeavesGroupUntouched(t *testing.T) {
	s := newTestSelection(t)

	s.SetSelected(GroupPrefix+"8316", true)
	s.SetSelected("8341", false)

	if !s.IsSelected(GroupPrefix + "8316") {
		t.Fatal("deselecting one member changed the group's own flag")
	}
	if s.IsSelected("8341") {
		t.Fatal("member re-selected by mirroring after manual deselect")
	}
	if !s.IsSelected("8342") {
		t.Fatal("unrelated member lost selection")
	}
}

func TestResolvedIDs_OrderIndependentAndDeduplicated(t *testing.T) {
	a := newTestSelection(t)
	a.SetSelected("8492", true)
	a.SetSelected(GroupPrefix+"8316", true)
	a.SetSelected("8341", true) // already covered by the group

	b := newTestSelection(t)
	b.SetSelected("8341", true)
	b.SetSelected(GroupPrefix+"8316", true)
	b.SetSelected("8492", true)

	want := []string{"8316", "8341", "8342", "8492"}
	if diff := cmp.Diff(want, a.ResolvedIDs()); diff != "" {
		t.Fatalf("resolved ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a.ResolvedIDs(), b.ResolvedIDs()); diff != "" {
		t.Fatalf("selection order changed the resolved set (-a +b):\n%s", diff)
	}
}

func TestResolvedIDs_EmptySelection(t *testing.T) {
	s := newTestSelection(t)
	if got := s.ResolvedIDs(); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestSetSelected_UnknownValueIgnored(t *testing.T) {
	s := newTestSelection(t)
	s.SetSelected("no-such-id", true)
	if got := s.ResolvedIDs(); len(got) != 0 {
		t.Fatalf("unknown value leaked into resolution: %v", got)
	}
}
