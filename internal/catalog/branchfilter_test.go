package catalog

import "testing"

func strPtr(s string) *string { return &s }

func TestBranchFilterFromParam(t *testing.T) {
	if f := BranchFilterFromParam(nil); f.Kind != BranchAll {
		t.Fatalf("nil param: got %v, want BranchAll", f.Kind)
	}
	if f := BranchFilterFromParam(strPtr("")); f.Kind != BranchAll {
		t.Fatalf("empty param: got %v, want BranchAll", f.Kind)
	}
	if f := BranchFilterFromParam(strPtr("~")); f.Kind != BranchNone {
		t.Fatalf("tilde param: got %v, want BranchNone", f.Kind)
	}
	if f := BranchFilterFromParam(strPtr("main")); f.Kind != BranchNamed || f.Name != "main" {
		t.Fatalf("named param: got %+v, want BranchNamed/main", f)
	}
	if f := BranchFilterFromParam(strPtr("feature/x")); f.Kind != BranchNamed || f.Name != "feature/x" {
		t.Fatalf("named-with-slash param: got %+v", f)
	}
}
