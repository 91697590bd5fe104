package prep

import (
	"testing"

	"daynav/internal/model"
)

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func TestSuggestedItemsByKeyword(t *testing.T) {
	items := SuggestedItems("DMV license renewal")
	for _, want := range []string{"Driver's license/ID", "Proof of address", "Payment method", "Phone", "Wallet"} {
		if !contains(items, want) {
			t.Fatalf("missing %q in %v", want, items)
		}
	}

	bank := SuggestedItems("bank deposit")
	if !contains(bank, "ID") || !contains(bank, "Documents to sign") {
		t.Fatalf("bank suggestions wrong: %v", bank)
	}
}

func TestSuggestedItemsDefaultsOnly(t *testing.T) {
	items := SuggestedItems("walk in the park")
	if len(items) != 2 || !contains(items, "Phone") || !contains(items, "Wallet") {
		t.Fatalf("expected only the default essentials, got %v", items)
	}
}

func TestForErrandMergesNotes(t *testing.T) {
	items := ForErrand(model.ErrandOut{
		Title: "Post office run",
		Notes: "Big brown box\n\n  Customs form  ",
	})
	for _, want := range []string{"Big brown box", "Customs form", "Tracking number", "Phone"} {
		if !contains(items, want) {
			t.Fatalf("missing %q in %v", want, items)
		}
	}
	// sorted and deduplicated
	for i := 1; i < len(items); i++ {
		if items[i-1] >= items[i] {
			t.Fatalf("not sorted/deduped: %v", items)
		}
	}
}

func TestConsolidatedDeduplicatesAcrossErrands(t *testing.T) {
	errands := []model.ErrandOut{
		{ID: "a", Title: "pharmacy pickup"},
		{ID: "b", Title: "dentist appointment"},
	}
	all := Consolidated(errands)
	count := 0
	for _, it := range all {
		if it == "Insurance card" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("shared item should appear once, got %v", all)
	}

	byStop := ByStop(errands)
	if len(byStop) != 2 || byStop[0].ErrandID != "a" || len(byStop[1].Items) == 0 {
		t.Fatalf("per-stop checklists wrong: %+v", byStop)
	}
}
