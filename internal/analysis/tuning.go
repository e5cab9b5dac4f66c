package analysis

// Tuning holds the percentage guardrails applied to extracted differentials.
// The values are heuristics carried over as-is.
type Tuning struct {
	// CompressedBelow: a maximum in [1, CompressedBelow) triggers rescaling.
	CompressedBelow int     `json:"compressedBelow"`
	TargetCeiling   float64 `json:"targetCeiling"`
	DecayPerRank    float64 `json:"decayPerRank"`
	Floor           int     `json:"floor"`
	Ceiling         int     `json:"ceiling"`

	// Rank-based fallback when every percentage is zero.
	RankStart int `json:"rankStart"`
	RankStep  int `json:"rankStep"`
	RankFloor int `json:"rankFloor"`
}

func DefaultTuning() Tuning {
	return Tuning{
		CompressedBelow: 30,
		TargetCeiling:   75,
		DecayPerRank:    0.05,
		Floor:           5,
		Ceiling:         95,
		RankStart:       80,
		RankStep:        15,
		RankFloor:       10,
	}
}

// withDefaults fills zero fields so a partially configured Tuning stays usable.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.CompressedBelow <= 0 {
		t.CompressedBelow = d.CompressedBelow
	}
	if t.TargetCeiling <= 0 {
		t.TargetCeiling = d.TargetCeiling
	}
	if t.DecayPerRank < 0 {
		t.DecayPerRank = d.DecayPerRank
	}
	if t.Floor <= 0 {
		t.Floor = d.Floor
	}
	if t.Ceiling <= 0 || t.Ceiling < t.Floor {
		t.Ceiling = d.Ceiling
	}
	if t.RankStart <= 0 {
		t.RankStart = d.RankStart
	}
	if t.RankStep <= 0 {
		t.RankStep = d.RankStep
	}
	if t.RankFloor <= 0 {
		t.RankFloor = d.RankFloor
	}
	return t
}
