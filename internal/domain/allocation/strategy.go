package allocation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Strategy produces a unit allocation for a billed session. The rule-based
// variant is deterministic; the model-backed variant delegates to an
// external text-generation service and repairs its output against the same
// invariants.
type Strategy interface {
	Allocate(ctx context.Context, activities []string, totalUnits int, unitRate float64) ([]Allocation, error)
}

// TextGenerator is the narrow call-and-wait contract to an external
// language-model service. No retries here; callers own backoff policy.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelBacked delegates allocation to a language model and validates the
// structured output. Any failure falls open to the deterministic allocator.
type ModelBacked struct {
	generator TextGenerator
	fallback  *RuleBased
	logger    zerolog.Logger
}

func NewModelBacked(gen TextGenerator, logger zerolog.Logger) *ModelBacked {
	return &ModelBacked{generator: gen, fallback: NewRuleBased(), logger: logger}
}

type modelAllocation struct {
	Code               string   `json:"code"`
	Units              int      `json:"units"`
	Rationale          string   `json:"rationale"`
	ActivitiesAssigned []string `json:"activities_assigned"`
}

type modelResponse struct {
	Allocations []modelAllocation `json:"allocations"`
	SOAPNote    string            `json:"soap_note"`
}

func allocationPrompt(activities []string, totalUnits int) string {
	var b strings.Builder
	b.WriteString("You are a billing assistant for a pediatric therapy practice. ")
	b.WriteString("Assign the session's billable units to CPT codes.\n\n")
	b.WriteString("Allowed codes, highest value first:\n")
	for _, t := range tiers {
		b.WriteString(fmt.Sprintf("- %s (%s)\n", t.Code, t.Name))
	}
	b.WriteString(fmt.Sprintf("\nTotal units to assign: %d\n", totalUnits))
	b.WriteString("Documented activities:\n")
	for _, a := range activities {
		b.WriteString("- " + a + "\n")
	}
	b.WriteString("\nRespond with JSON only: {\"allocations\":[{\"code\",\"units\",\"rationale\",\"activities_assigned\"}],\"soap_note\":\"...\"}. ")
	b.WriteString("Units must sum exactly to the total. Every code must come from the allowed list.")
	return b.String()
}

// Allocate asks the model for an allocation, then validates and repairs it.
// Unknown codes are dropped and the unit sum is forced back to totalUnits;
// unrepairable output falls open to the rule-based allocator.
func (m *ModelBacked) Allocate(ctx context.Context, activities []string, totalUnits int, unitRate float64) ([]Allocation, error) {
	if totalUnits < 1 {
		return nil, fmt.Errorf("total units must be at least 1, got %d", totalUnits)
	}

	raw, err := m.generator.Generate(ctx, allocationPrompt(activities, totalUnits))
	if err != nil {
		m.logger.Warn().Err(err).Msg("model allocation failed, using rule-based allocator")
		return m.fallback.Allocate(ctx, activities, totalUnits, unitRate)
	}

	allocs, err := m.parseAndRepair(raw, totalUnits, unitRate)
	if err != nil {
		m.logger.Warn().Err(err).Msg("model output unusable, using rule-based allocator")
		return m.fallback.Allocate(ctx, activities, totalUnits, unitRate)
	}
	return allocs, nil
}

func tierByCode(code string) (Tier, bool) {
	for _, t := range tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// parseAndRepair decodes the model response and enforces the allocation
// invariants: known codes only, no duplicate codes, positive units, exact
// unit-sum conservation.
func (m *ModelBacked) parseAndRepair(raw string, totalUnits int, unitRate float64) ([]Allocation, error) {
	// Models sometimes wrap JSON in a code fence.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var resp modelResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	seen := make(map[string]bool)
	var allocs []Allocation
	for _, ma := range resp.Allocations {
		tier, ok := tierByCode(ma.Code)
		if !ok || seen[ma.Code] || ma.Units < 1 {
			continue
		}
		seen[ma.Code] = true
		allocs = append(allocs, Allocation{
			Code:               tier.Code,
			Name:               tier.Name,
			Units:              ma.Units,
			Rationale:          ma.Rationale,
			ActivitiesAssigned: ma.ActivitiesAssigned,
		})
	}
	if len(allocs) == 0 {
		return nil, fmt.Errorf("model output contained no usable allocations")
	}

	// Repair the unit sum by adjusting the first entry.
	sum := 0
	for _, a := range allocs {
		sum += a.Units
	}
	if diff := totalUnits - sum; diff != 0 {
		if allocs[0].Units+diff < 1 {
			return nil, fmt.Errorf("model unit sum %d is unrepairable against budget %d", sum, totalUnits)
		}
		allocs[0].Units += diff
	}

	for i := range allocs {
		allocs[i].Reimbursement = round2(float64(allocs[i].Units) * unitRate)
	}
	return allocs, nil
}

// HTTPTextGenerator calls a JSON text-generation endpoint.
type HTTPTextGenerator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPTextGenerator(url, apiKey, model string) *HTTPTextGenerator {
	return &HTTPTextGenerator{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *HTTPTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model service returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode model service response: %w", err)
	}
	return out.Text, nil
}
