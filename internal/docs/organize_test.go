package docs

import (
	"testing"
)

func TestOrganize_KeepsKnownDropsUnknown(t *testing.T) {
	structure := map[string][]Endpoint{
		"repositories": {
			{ID: "repos-get", Title: "Get a repository"},
			{ID: "repos-list", Title: "List repositories"},
		},
		"unknown_cat": {
			{ID: "mystery", Title: "Mystery"},
		},
	}

	got := Organize(structure)

	if len(got) != len(Categories()) {
		t.Fatalf("expected %d keys, got %d: %v", len(Categories()), len(got), got)
	}
	for _, c := range Categories() {
		if _, ok := got[c]; !ok {
			t.Errorf("missing category %q", c)
		}
	}
	if _, ok := got["unknown_cat"]; ok {
		t.Errorf("unknown category must be dropped")
	}
	repos := got["repositories"]
	if len(repos) != 2 || repos[0].ID != "repos-get" || repos[1].ID != "repos-list" {
		t.Errorf("repositories bucket = %+v", repos)
	}
	if got["issues"] == nil || len(got["issues"]) != 0 {
		t.Errorf("empty categories should be empty, non-nil slices, got %#v", got["issues"])
	}
}

func TestOrganizeFlat(t *testing.T) {
	list := []Endpoint{
		{ID: "1", Category: "repositories"},
		{ID: "2", Category: "unknown_cat"},
		{ID: "3", Category: "users"},
		{ID: "4", Category: "repositories"},
		{ID: "5"},
	}

	got := OrganizeFlat(list)

	if len(got) != 6 {
		t.Fatalf("expected 6 keys, got %d", len(got))
	}
	repos := got["repositories"]
	if len(repos) != 2 || repos[0].ID != "1" || repos[1].ID != "4" {
		t.Errorf("repositories bucket = %+v", repos)
	}
	if len(got["users"]) != 1 {
		t.Errorf("users bucket = %+v", got["users"])
	}
	if _, ok := got["unknown_cat"]; ok {
		t.Errorf("unknown category must be dropped")
	}
	if _, ok := got[""]; ok {
		t.Errorf("uncategorized endpoint must be dropped")
	}
}

func TestOrganize_NilInput(t *testing.T) {
	if got := Organize(nil); len(got) != 6 {
		t.Fatalf("Organize(nil) has %d keys, want 6", len(got))
	}
	if got := OrganizeFlat(nil); len(got) != 6 {
		t.Fatalf("OrganizeFlat(nil) has %d keys, want 6", len(got))
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c := Categories()
	c[0] = "mutated"
	if Categories()[0] != CategoryRepositories {
		t.Fatalf("Categories exposed internal slice")
	}
	if !IsKnownCategory("actions") || IsKnownCategory("mutated") {
		t.Fatalf("IsKnownCategory mismatch")
	}
}
