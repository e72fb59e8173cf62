package scoring

// UnknownLabel is reported for totals outside every declared band.
const UnknownLabel = "未知"

// Classification is the severity band a total falls into.
type Classification struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Matched     bool   `json:"-"`
}

// Classify returns the first result range containing total. Totals outside
// every range get UnknownLabel and no description.
func Classify(cfg *ScoreConfig, total int) Classification {
	for _, r := range cfg.ResultRanges {
		if r.Contains(total) {
			return Classification{Label: r.Label, Description: r.Description, Matched: true}
		}
	}
	return Classification{Label: UnknownLabel}
}
