// Package prep builds items-to-carry checklists for errands by matching
// keywords in the errand title and notes against a rule table.
package prep

import (
	"sort"
	"strings"

	"daynav/internal/model"
)

// rules maps a lowercase keyword to the items that keyword calls for.
// The "_default" entry is always included.
var rules = map[string][]string{
	// DMV/License related
	"dmv":          {"Driver's license/ID", "Proof of address", "Payment method", "Appointment confirmation"},
	"license":      {"Driver's license/ID", "Proof of address", "Payment method", "Appointment confirmation"},
	"registration": {"Driver's license/ID", "Vehicle registration", "Insurance card", "Payment method"},

	// Banking/Financial
	"bank":   {"ID", "Documents to sign", "Payment method", "Account information"},
	"notary": {"ID", "Documents to sign", "Payment method"},
	"tax":    {"ID", "Tax documents", "W-2/1099 forms", "Payment method"},

	// Vehicle
	"car service":    {"Car keys", "Insurance card", "Service appointment details"},
	"service center": {"Car keys", "Insurance card", "Service appointment details"},
	"mechanic":       {"Car keys", "Insurance card", "Service appointment details"},
	"oil change":     {"Car keys", "Service coupon"},
	"inspection":     {"Car keys", "Insurance card", "Vehicle registration"},

	// Medical
	"doctor":   {"ID", "Insurance card", "List of medications", "Appointment confirmation"},
	"hospital": {"ID", "Insurance card", "List of medications", "Emergency contact info"},
	"pharmacy": {"ID", "Insurance card", "Prescription"},
	"dentist":  {"ID", "Insurance card", "Appointment confirmation"},

	// School/Education
	"school":     {"Forms", "ID", "Payment method"},
	"university": {"Student ID", "Forms", "Laptop"},

	// Government
	"passport":    {"Current passport", "ID", "Passport photos", "Payment method", "Supporting documents"},
	"court":       {"ID", "Court summons", "Documents"},
	"post office": {"ID", "Package/mail", "Tracking number"},

	// Shopping
	"grocery": {"Reusable bags", "Shopping list"},
	"returns": {"Receipt", "Item to return", "ID"},

	"_default": {"Phone", "Wallet"},
}

// SuggestedItems returns the sorted, deduplicated item suggestions for a
// free-form purpose string such as "DMV license renewal".
func SuggestedItems(purpose string) []string {
	set := map[string]struct{}{}
	lower := strings.ToLower(purpose)
	for keyword, items := range rules {
		if keyword == "_default" {
			continue
		}
		if strings.Contains(lower, keyword) {
			for _, it := range items {
				set[it] = struct{}{}
			}
		}
	}
	for _, it := range rules["_default"] {
		set[it] = struct{}{}
	}
	return sortedKeys(set)
}

// ForErrand combines the errand's own notes lines with keyword suggestions
// from its title and notes.
func ForErrand(e model.ErrandOut) []string {
	set := map[string]struct{}{}
	for _, line := range strings.Split(e.Notes, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}
	for _, it := range SuggestedItems(e.Title + " " + e.Notes) {
		set[it] = struct{}{}
	}
	return sortedKeys(set)
}

// StopChecklist pairs one errand with its checklist.
type StopChecklist struct {
	ErrandID string   `json:"errandId"`
	Title    string   `json:"title"`
	Items    []string `json:"items"`
}

// ByStop returns per-errand checklists in errand order.
func ByStop(errands []model.ErrandOut) []StopChecklist {
	out := make([]StopChecklist, 0, len(errands))
	for _, e := range errands {
		out = append(out, StopChecklist{ErrandID: e.ID, Title: e.Title, Items: ForErrand(e)})
	}
	return out
}

// Consolidated merges every errand's checklist into one deduplicated list.
func Consolidated(errands []model.ErrandOut) []string {
	set := map[string]struct{}{}
	for _, e := range errands {
		for _, it := range ForErrand(e) {
			set[it] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
