// Package analysis turns a model's free-text reply into structured buckets,
// ranked differentials and treatment categories. Parsing is best effort and
// never fails; unrecognized text stays available through Buckets.Other and
// the raw reply.
package analysis

// Result is the structured view of one reply. It is derived on demand and
// never stored.
type Result struct {
	Buckets               Buckets              `json:"buckets"`
	Differentials         []DifferentialRecord `json:"differentials"`
	TreatmentCategories   []TreatmentCategory  `json:"treatmentCategories"`
	TreatmentUnstructured bool                 `json:"treatmentUnstructured"`
}

// Normalizer bundles a Splitter with percentage tuning.
type Normalizer struct {
	splitter *Splitter
	tuning   Tuning
}

func NewNormalizer(t Tuning) *Normalizer {
	return &Normalizer{splitter: defaultSplitter, tuning: t.withDefaults()}
}

// WithSections swaps the heading table.
func (n *Normalizer) WithSections(sections []Section) *Normalizer {
	return &Normalizer{splitter: NewSplitter(sections), tuning: n.tuning}
}

func (n *Normalizer) Tuning() Tuning {
	return n.tuning
}

func (n *Normalizer) Analyze(raw string) Result {
	buckets := n.splitter.Split(raw)
	categories := ExtractCategories(buckets.Treatment)
	if categories == nil {
		categories = []TreatmentCategory{}
	}
	return Result{
		Buckets:               buckets,
		Differentials:         extractDifferentials(buckets.Differentials, n.tuning),
		TreatmentCategories:   categories,
		TreatmentUnstructured: buckets.Treatment != "" && len(categories) == 0,
	}
}

// Analyze runs the default heading table and tuning.
func Analyze(raw string) Result {
	return NewNormalizer(DefaultTuning()).Analyze(raw)
}
