package allocation

// Tier describes one procedure code in the fixed priority order,
// highest-value first. Keywords and weights are configuration, not control
// flow; new tiers slot in here without touching the matcher.
type Tier struct {
	Code     string
	Name     string
	Weight   float64
	Keywords []string
}

// tiers is the allocation priority table. Activity text is matched
// top-down; the first tier with a keyword hit takes the activity.
var tiers = []Tier{
	{
		Code:   "97533",
		Name:   "Sensory Integrative Techniques",
		Weight: 0.40,
		Keywords: []string{
			"sensory", "swing", "weighted", "vestibular", "proprioceptive",
			"brushing", "tactile", "deep pressure", "body sock",
		},
	},
	{
		Code:   "97535",
		Name:   "Self-Care/Home Management Training",
		Weight: 0.30,
		Keywords: []string{
			"dressing", "feeding", "self-care", "adl", "functional",
			"grooming", "toileting", "pegboard", "handwriting", "fine motor",
			"buttoning", "utensil",
		},
	},
	{
		Code:   "97112",
		Name:   "Neuromuscular Re-education",
		Weight: 0.20,
		Keywords: []string{
			"balance", "coordination", "posture", "postural", "beam",
			"core stability", "motor planning", "bilateral",
		},
	},
	{
		Code:   "97110",
		Name:   "Therapeutic Exercise",
		Weight: 0.10,
		Keywords: []string{
			"exercise", "strength", "stretch", "curls", "range of motion",
			"endurance", "resistance",
		},
	},
}

// defaultTierIndex is the tier that absorbs the whole budget when no
// activity matches anything (the second tier, functional training).
const defaultTierIndex = 1

// lowestTierIndex receives activities that match no keywords when other
// activities did match.
var lowestTierIndex = len(tiers) - 1

// Tiers returns a copy of the priority table for display purposes.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
