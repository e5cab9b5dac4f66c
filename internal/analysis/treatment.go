package analysis

import (
	"regexp"
	"strings"
)

// TreatmentCategory is one CATEGORY: block of the treatment bucket.
type TreatmentCategory struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

var categoryMarker = regexp.MustCompile(`(?i)category\s*:`)

// ExtractCategories splits treatment text on CATEGORY: markers. It returns
// nil when there is no marker; callers then show the text as prose.
func ExtractCategories(text string) []TreatmentCategory {
	locs := categoryMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := []TreatmentCategory{}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		fragment := text[loc[1]:end]

		title, body, _ := strings.Cut(fragment, "\n")
		title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), "*_#"))
		body = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(body), "*#"))
		if title == "" || body == "" {
			continue
		}
		out = append(out, TreatmentCategory{Title: title, Body: body})
	}
	return out
}
