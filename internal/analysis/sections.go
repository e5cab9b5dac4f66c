package analysis

import (
	"regexp"
	"sort"
	"strings"
)

type Bucket string

const (
	BucketDifferentials Bucket = "differentials"
	BucketDiagnostics   Bucket = "diagnostics"
	BucketRedFlags      Bucket = "redFlags"
	BucketTreatment     Bucket = "treatment"
)

// Buckets holds the four named slices of a reply. Other is only set when no
// heading was recognized at all.
type Buckets struct {
	Differentials string `json:"differentials"`
	Diagnostics   string `json:"diagnostics"`
	RedFlags      string `json:"redFlags"`
	Treatment     string `json:"treatment"`
	Other         string `json:"other"`
}

func (b Buckets) Get(key Bucket) string {
	switch key {
	case BucketDifferentials:
		return b.Differentials
	case BucketDiagnostics:
		return b.Diagnostics
	case BucketRedFlags:
		return b.RedFlags
	case BucketTreatment:
		return b.Treatment
	default:
		return ""
	}
}

func (b *Buckets) set(key Bucket, text string) {
	switch key {
	case BucketDifferentials:
		b.Differentials = text
	case BucketDiagnostics:
		b.Diagnostics = text
	case BucketRedFlags:
		b.RedFlags = text
	case BucketTreatment:
		b.Treatment = text
	}
}

// Empty reports whether nothing at all was captured.
func (b Buckets) Empty() bool {
	return b.Differentials == "" && b.Diagnostics == "" && b.RedFlags == "" && b.Treatment == "" && b.Other == ""
}

// Section lists the accepted heading spellings for one bucket.
type Section struct {
	Key     Bucket
	Markers []string
}

// DefaultSections covers hash headings, bold headings, the numbered lead-ins
// of the prompt's format list and plain "Title:" labels.
var DefaultSections = []Section{
	{Key: BucketDifferentials, Markers: []string{
		"# ranked differential",
		"# differential",
		"**ranked differential",
		"**differential diagnos",
		"1. ranked differential",
		"ranked differential diagnoses:",
		"differential diagnoses:",
	}},
	{Key: BucketDiagnostics, Markers: []string{
		"# suggested diagnostic",
		"# recommended diagnostic",
		"# diagnostic",
		"**suggested diagnostic",
		"**recommended diagnostic",
		"**diagnostic steps",
		"**diagnostic plan",
		"2. suggested diagnostic",
		"diagnostic steps:",
		"diagnostic plan:",
	}},
	{Key: BucketRedFlags, Markers: []string{
		"# red flag",
		"# warning sign",
		"**red flag",
		"**warning sign",
		"3. red flag",
		"red flags:",
	}},
	{Key: BucketTreatment, Markers: []string{
		"# treatment",
		"# therapeutic plan",
		"**treatment recommendation",
		"**treatment plan",
		"**treatment:",
		"4. treatment recommendation",
		"treatment recommendations:",
		"treatment plan:",
	}},
}

type marker struct {
	key   Bucket
	text  string
	re    *regexp.Regexp
	colon bool
}

// Splitter classifies free text into buckets by heading markers.
type Splitter struct {
	markers []marker
}

func NewSplitter(sections []Section) *Splitter {
	s := &Splitter{}
	for _, sec := range sections {
		for _, m := range sec.Markers {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}
			s.markers = append(s.markers, marker{
				key:   sec.Key,
				text:  m,
				re:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(m)),
				colon: strings.HasSuffix(m, ":"),
			})
		}
	}
	return s
}

var defaultSplitter = NewSplitter(DefaultSections)

// Split classifies raw with DefaultSections.
func Split(raw string) Buckets {
	return defaultSplitter.Split(raw)
}

type hit struct {
	key   Bucket
	start int // heading start, including any #/* wrapping before the marker
	end   int // end of the marker itself
	colon bool
	hash  bool
}

// Split never fails: with no recognized heading the trimmed input lands in
// Other and the named buckets stay empty.
func (s *Splitter) Split(raw string) Buckets {
	hits := make([]hit, 0, len(s.markers))
	for _, m := range s.markers {
		loc := m.re.FindStringIndex(raw)
		if loc == nil {
			continue
		}
		start := headingStart(raw, loc[0])
		hits = append(hits, hit{
			key:   m.key,
			start: start,
			end:   loc[1],
			colon: m.colon,
			hash:  strings.HasPrefix(strings.TrimLeft(raw[start:loc[1]], " \t*_"), "#"),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})

	kept := make([]hit, 0, 4)
	seen := map[Bucket]bool{}
	lastEnd := -1
	for _, h := range hits {
		if seen[h.key] || h.start < lastEnd {
			continue
		}
		seen[h.key] = true
		kept = append(kept, h)
		lastEnd = h.end
	}

	var out Buckets
	if len(kept) == 0 {
		out.Other = strings.TrimSpace(raw)
		return out
	}
	for i, h := range kept {
		spanEnd := len(raw)
		if i+1 < len(kept) {
			spanEnd = kept[i+1].start
		}
		out.set(h.key, strings.TrimSpace(stripHeading(raw[h.end:spanEnd], h)))
	}
	return out
}

// headingStart walks back over markdown wrapping on the same line so that
// "## " or "**" in front of a marker belongs to the heading.
func headingStart(raw string, idx int) int {
	for idx > 0 {
		switch raw[idx-1] {
		case '#', '*', '_', ' ', '\t':
			idx--
		default:
			return idx
		}
	}
	return idx
}

// stripHeading drops what is left of the heading after the marker.
func stripHeading(body string, h hit) string {
	switch {
	case h.hash:
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			return body[i:]
		}
		return ""
	case !h.colon:
		if i := strings.IndexAny(body, ":*\n"); i >= 0 {
			body = body[i:]
		} else {
			return ""
		}
	}
	return strings.TrimLeft(body, ":*_# \t")
}
