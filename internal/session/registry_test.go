package session

import "testing"

func TestRegistry_AddGetRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	h := &Handler{}

	if !r.Add("sess-1", h) {
		t.Fatal("Add() of new ID should succeed")
	}
	if r.Add("sess-1", &Handler{}) {
		t.Error("Add() of duplicate ID should fail")
	}
	if got := r.Get("sess-1"); got != h {
		t.Error("Get() returned wrong handler")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Remove("sess-1")
	if r.Get("sess-1") != nil {
		t.Error("Get() after Remove should return nil")
	}
	r.Remove("sess-1") // no-op
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
