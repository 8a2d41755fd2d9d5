package prediction

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
)

// codeFamilies groups procedure codes whose history is close enough to
// borrow from when the exact code has no observations.
var codeFamilies = [][]string{
	// OT evaluation codes
	{"97165", "97166", "97167", "97168"},
	// Timed therapy codes
	{"97110", "97112", "97530", "97533", "97535"},
}

// fallbackRates is the static lookup used when no historical candidate
// survives filtering, keyed by "insurer|code" (insurer lower-cased).
var fallbackRates = map[string]float64{
	"aetna|97166":  82,
	"aetna|97165":  88,
	"cigna|97166":  78,
	"united|97166": 75,
	"aetna|97110":  68,
	"cigna|97110":  64,
}

const defaultFallbackRate = 70

const (
	recencyHorizonDays = 900
	recentWindowDays   = 180
	trendWindowDays    = 90
)

// FamilyCodes returns the exact code plus its declared family members.
func FamilyCodes(code string) []string {
	for _, family := range codeFamilies {
		for _, c := range family {
			if c == code {
				return family
			}
		}
	}
	return []string{code}
}

func sameFamily(a, b string) bool {
	if a == b {
		return true
	}
	for _, family := range codeFamilies {
		inA, inB := false, false
		for _, c := range family {
			if c == a {
				inA = true
			}
			if c == b {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}

// nameTokens splits an insurer name into lower-cased tokens, breaking on
// non-letters and internal capitalization boundaries ("BlueCross" yields
// "blue", "cross").
func nameTokens(name string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	prevLower := false
	for _, r := range name {
		if !unicode.IsLetter(r) {
			flush()
			prevLower = false
			continue
		}
		if unicode.IsUpper(r) && prevLower {
			flush()
		}
		cur.WriteRune(r)
		prevLower = unicode.IsLower(r)
	}
	flush()
	return tokens
}

// similarInsurer reports whether two insurer names plausibly refer to the
// same payer: any token of one is a substring of a token of the other.
func similarInsurer(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ta, tb := nameTokens(a), nameTokens(b)
	for _, x := range ta {
		for _, y := range tb {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}

// relevance scores one record against the query. Higher is more relevant.
func relevance(r *Record, q Query, now time.Time) float64 {
	score := 0.0
	if strings.EqualFold(r.InsurerName, q.Insurer) {
		score += 50
	}
	if r.ProcedureCode == q.ProcedureCode {
		score += 50
	}

	days := now.Sub(r.ServiceDate).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days < recencyHorizonDays {
		score += math.Max(0, 30-days/30)
	}

	if q.PlanType != nil && r.PlanType != nil && strings.EqualFold(*q.PlanType, *r.PlanType) {
		score += 20
	}
	if q.DeductibleMet != nil && r.DeductibleMet != nil && *q.DeductibleMet == *r.DeductibleMet {
		score += 10
	}
	if q.Region != nil && r.Region != nil && strings.EqualFold(*q.Region, *r.Region) {
		score += 15
	}
	return score
}

type scoredRecord struct {
	record *Record
	score  float64
}

// filterCandidates keeps records whose insurer matches exactly or is
// similar, and whose code matches exactly or shares a declared family.
func filterCandidates(records []*Record, q Query) []*Record {
	var out []*Record
	for _, r := range records {
		if !similarInsurer(r.InsurerName, q.Insurer) {
			continue
		}
		if !sameFamily(r.ProcedureCode, q.ProcedureCode) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// fallback returns the static-table estimate for queries with no usable
// history.
func fallback(q Query) Prediction {
	rate, ok := fallbackRates[strings.ToLower(q.Insurer)+"|"+q.ProcedureCode]
	if !ok {
		rate = defaultFallbackRate
	}
	return Prediction{
		ProcedureCode:          q.ProcedureCode,
		PredictedReimbursement: rate,
		Confidence:             0.3,
		DataPoints:             0,
		Recommendations: []string{
			"No historical data for this insurer and code; estimate uses standard rates",
		},
	}
}

// Predict produces a best-effort reimbursement estimate from the supplied
// history. Pure and total: bad or empty input resolves to the fallback
// branch, never an error.
func Predict(records []*Record, q Query, now time.Time) Prediction {
	candidates := filterCandidates(records, q)
	if len(candidates) == 0 {
		return fallback(q)
	}

	scored := make([]scoredRecord, 0, len(candidates))
	for _, r := range candidates {
		scored = append(scored, scoredRecord{record: r, score: relevance(r, q, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	paid := make([]float64, len(scored))
	weightedSum, scoreSum := 0.0, 0.0
	for i, s := range scored {
		paid[i] = s.record.PaidAmount
		weightedSum += s.record.PaidAmount * s.score
		scoreSum += s.score
	}

	var amount float64
	if scoreSum > 0 {
		amount = weightedSum / scoreSum
	} else {
		// All scores zero (stale family-code records from a merely
		// similar insurer): fall back to the unweighted mean.
		amount = mean(paid)
	}
	amount = round2(amount)

	v := variance(paid)
	dataConsistency := 0.0
	if amount > 0 {
		dataConsistency = math.Max(0, 1-v/amount)
	}
	sampleConfidence := math.Min(1, float64(len(scored))/20)
	confidence := round2(0.7*dataConsistency + 0.3*sampleConfidence)

	return Prediction{
		ProcedureCode:          q.ProcedureCode,
		PredictedReimbursement: amount,
		Confidence:             confidence,
		DataPoints:             len(scored),
		RecentTrendPct:         recentTrendPct(candidates, now),
		SeasonalVariation:      seasonalVariation(candidates),
		Recommendations:        recommendations(candidates, paid, now),
	}
}

// recentTrendPct compares the last-180-days average against the older
// baseline. Zero when no older baseline exists.
func recentTrendPct(records []*Record, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -recentWindowDays)
	var recent, older []float64
	for _, r := range records {
		if r.ServiceDate.After(cutoff) {
			recent = append(recent, r.PaidAmount)
		} else {
			older = append(older, r.PaidAmount)
		}
	}
	if len(recent) == 0 || len(older) == 0 {
		return 0
	}
	olderAvg := mean(older)
	if olderAvg == 0 {
		return 0
	}
	return round2((mean(recent) - olderAvg) / olderAvg * 100)
}

// seasonalVariation is the variance of per-calendar-month mean paid amounts
// divided by the overall mean of those monthly means.
func seasonalVariation(records []*Record) float64 {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, r := range records {
		m := r.ServiceDate.Month()
		sums[m] += r.PaidAmount
		counts[m]++
	}
	if len(sums) == 0 {
		return 0
	}

	var monthlyMeans []float64
	for m, sum := range sums {
		monthlyMeans = append(monthlyMeans, sum/float64(counts[m]))
	}
	overall := mean(monthlyMeans)
	if overall == 0 {
		return 0
	}
	return round2(variance(monthlyMeans) / overall)
}

// recommendations flags weak spots in the estimate.
func recommendations(records []*Record, paid []float64, now time.Time) []string {
	var recs []string
	if len(records) < 5 {
		recs = append(recs, "Limited historical data; estimate may be unreliable")
	}

	avg := mean(paid)
	if avg > 0 && variance(paid)/avg > 0.3 {
		recs = append(recs, "High variability in historical payments; verify plan details before relying on the estimate")
	}

	if shortTermSlope(records, now) < -0.1 {
		recs = append(recs, "Reimbursements for this code are trending down over the last 90 days")
	}
	return recs
}

// shortTermSlope half-splits the last-90-days records by date and returns
// the relative change between the two halves. Zero when the window is too
// thin to split.
func shortTermSlope(records []*Record, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -trendWindowDays)
	var window []*Record
	for _, r := range records {
		if r.ServiceDate.After(cutoff) {
			window = append(window, r)
		}
	}
	if len(window) < 2 {
		return 0
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].ServiceDate.Before(window[j].ServiceDate)
	})

	mid := len(window) / 2
	var olderHalf, recentHalf []float64
	for i, r := range window {
		if i < mid {
			olderHalf = append(olderHalf, r.PaidAmount)
		} else {
			recentHalf = append(recentHalf, r.PaidAmount)
		}
	}
	olderAvg := mean(olderHalf)
	if olderAvg == 0 {
		return 0
	}
	return (mean(recentHalf) - olderAvg) / olderAvg
}

// PredictBatch runs the single-query predictor independently per code. No
// pooling across codes.
func PredictBatch(records []*Record, insurer string, chargedAmount float64, codes []string, now time.Time) []Prediction {
	out := make([]Prediction, 0, len(codes))
	for _, code := range codes {
		q := Query{Insurer: insurer, ProcedureCode: code, ChargedAmount: chargedAmount}
		out = append(out, Predict(records, q, now))
	}
	return out
}
