package allocation

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Allocation is one procedure code's share of the billed unit budget.
type Allocation struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Units              int      `json:"units"`
	Rationale          string   `json:"rationale"`
	Reimbursement      float64  `json:"reimbursement"`
	ActivitiesAssigned []string `json:"activities_assigned"`
}

// RuleBased is the deterministic allocator. It is pure over its inputs and
// is the fail-open default behind any delegated strategy.
type RuleBased struct{}

func NewRuleBased() *RuleBased { return &RuleBased{} }

// matchTier returns the index of the highest-priority tier whose keyword
// set matches the activity text, or -1.
func matchTier(activity string) int {
	text := strings.ToLower(activity)
	for i, tier := range tiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(text, kw) {
				return i
			}
		}
	}
	return -1
}

// rationale names up to three representative activities for audit review.
func rationale(tierName string, activities []string) string {
	show := activities
	if len(show) > 3 {
		show = show[:3]
	}
	return fmt.Sprintf("%s selected based on documented activities: %s", tierName, strings.Join(show, "; "))
}

// Allocate assigns the unit budget across the tiers matched by the
// activity list. The unit sum is always exactly totalUnits and no code
// appears twice.
func (a *RuleBased) Allocate(_ context.Context, activities []string, totalUnits int, unitRate float64) ([]Allocation, error) {
	if totalUnits < 1 {
		return nil, fmt.Errorf("total units must be at least 1, got %d", totalUnits)
	}

	// Assign each activity to its tier.
	assigned := make(map[int][]string)
	anyMatched := false
	var unmatched []string
	for _, act := range activities {
		if act == "" {
			continue
		}
		idx := matchTier(act)
		if idx < 0 {
			unmatched = append(unmatched, act)
			continue
		}
		anyMatched = true
		assigned[idx] = append(assigned[idx], act)
	}

	// Nothing matched: the whole budget goes to the default tier with a
	// generic rationale.
	if !anyMatched {
		tier := tiers[defaultTierIndex]
		return []Allocation{{
			Code:               tier.Code,
			Name:               tier.Name,
			Units:              totalUnits,
			Rationale:          tier.Name + " selected as default for general skilled intervention",
			Reimbursement:      round2(float64(totalUnits) * unitRate),
			ActivitiesAssigned: activities,
		}}, nil
	}

	// Unmatched activities fall to the lowest tier once something matched.
	if len(unmatched) > 0 {
		assigned[lowestTierIndex] = append(assigned[lowestTierIndex], unmatched...)
	}

	// Active tiers in priority order.
	var active []int
	for i := range tiers {
		if len(assigned[i]) > 0 {
			active = append(active, i)
		}
	}

	// Too few units for the tiers in use: keep only the top totalUnits
	// tiers and collapse the rest into the last one kept.
	if totalUnits < len(active) {
		kept := active[:totalUnits]
		last := kept[len(kept)-1]
		for _, idx := range active[totalUnits:] {
			assigned[last] = append(assigned[last], assigned[idx]...)
			delete(assigned, idx)
		}
		active = kept
	}

	units := distributeUnits(active, totalUnits)

	result := make([]Allocation, 0, len(active))
	for _, idx := range active {
		tier := tiers[idx]
		result = append(result, Allocation{
			Code:               tier.Code,
			Name:               tier.Name,
			Units:              units[idx],
			Rationale:          rationale(tier.Name, assigned[idx]),
			Reimbursement:      round2(float64(units[idx]) * unitRate),
			ActivitiesAssigned: assigned[idx],
		})
	}
	return result, nil
}

// distributeUnits gives every active tier one base unit, then splits the
// remainder proportionally to tier weights (floored), with any rounding
// leftover going to the highest-priority active tier. The result always
// sums to totalUnits.
func distributeUnits(active []int, totalUnits int) map[int]int {
	units := make(map[int]int, len(active))
	for _, idx := range active {
		units[idx] = 1
	}
	remainder := totalUnits - len(active)
	if remainder <= 0 {
		return units
	}

	weightSum := 0.0
	for _, idx := range active {
		weightSum += tiers[idx].Weight
	}

	given := 0
	for _, idx := range active {
		share := int(math.Floor(float64(remainder) * tiers[idx].Weight / weightSum))
		units[idx] += share
		given += share
	}
	// Rounding leftover lands on the top tier in use.
	units[active[0]] += remainder - given

	return units
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
