package profile

import (
	"fmt"
	"sort"
	"testing"

	"datalens/models"
)

func TestTopCategoriesCityScenario(t *testing.T) {
	headers := []string{"age", "city"}
	rows := [][]string{
		{"34", "Oslo"},
		{"", "Oslo"},
		{"29", "Bergen"},
	}

	got := TopCategories(headers, rows, "city", 0)
	expected := []models.CategoryTally{
		{Category: "Oslo", Count: 2},
		{Category: "Bergen", Count: 1},
	}
	if len(got) != len(expected) {
		t.Fatalf("got %d tallies, want %d", len(got), len(expected))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("tally[%d] = %+v, want %+v", i, got[i], expected[i])
		}
	}
}

func TestTopCategoriesUnknownColumn(t *testing.T) {
	headers := []string{"city"}
	rows := [][]string{{"Oslo"}}

	got := TopCategories(headers, rows, "country", 0)
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected empty result for unknown column, got %v", got)
	}
}

func TestTopCategoriesEmptySentinel(t *testing.T) {
	headers := []string{"plan"}
	rows := [][]string{
		{"pro"},
		{""},
		{"   "},
		{"\t"},
		{"pro"},
		{}, // absent cell folds into the sentinel too
	}

	got := TopCategories(headers, rows, "plan", 0)
	if len(got) != 2 {
		t.Fatalf("got %d tallies, want 2: %v", len(got), got)
	}
	if got[0] != (models.CategoryTally{Category: EmptyCategory, Count: 4}) {
		t.Errorf("tally[0] = %+v, want {(empty) 4}", got[0])
	}
	if got[1] != (models.CategoryTally{Category: "pro", Count: 2}) {
		t.Errorf("tally[1] = %+v, want {pro 2}", got[1])
	}
}

func TestTopCategoriesTruncationAndOrder(t *testing.T) {
	headers := []string{"code"}
	var rows [][]string
	// 30 categories; category i appears i+1 times.
	for i := 0; i < 30; i++ {
		for n := 0; n <= i; n++ {
			rows = append(rows, []string{fmt.Sprintf("c%02d", i)})
		}
	}

	got := TopCategories(headers, rows, "code", DefaultTopCategories)
	if len(got) != DefaultTopCategories {
		t.Fatalf("got %d tallies, want %d", len(got), DefaultTopCategories)
	}

	if !sort.SliceIsSorted(got, func(a, b int) bool { return got[a].Count > got[b].Count }) {
		t.Errorf("tallies not sorted non-increasing: %v", got)
	}
	if got[0].Category != "c29" || got[0].Count != 30 {
		t.Errorf("top tally = %+v, want {c29 30}", got[0])
	}
}

// Ties keep first-encounter row order.
func TestTopCategoriesTieBreak(t *testing.T) {
	headers := []string{"x"}
	rows := [][]string{{"b"}, {"a"}, {"b"}, {"a"}, {"c"}}

	got := TopCategories(headers, rows, "x", 0)
	want := []string{"b", "a", "c"}
	for i, category := range want {
		if got[i].Category != category {
			t.Errorf("tally[%d].Category = %s, want %s (stable tie order)", i, got[i].Category, category)
		}
	}
}

func TestTopCategoriesValuesAreTrimmed(t *testing.T) {
	headers := []string{"city"}
	rows := [][]string{{" Oslo "}, {"Oslo"}}

	got := TopCategories(headers, rows, "city", 0)
	if len(got) != 1 || got[0].Count != 2 {
		t.Errorf("expected trimmed values to share a bucket, got %v", got)
	}
}
