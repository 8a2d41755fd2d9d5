package allocation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubGenerator struct {
	output string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func TestModelBacked_ValidOutput(t *testing.T) {
	gen := &stubGenerator{output: `{
		"allocations": [
			{"code": "97533", "units": 2, "rationale": "sensory work", "activities_assigned": ["swing"]},
			{"code": "97110", "units": 1, "rationale": "strengthening", "activities_assigned": ["curls"]}
		],
		"soap_note": "Patient tolerated session well."
	}`}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"swing", "curls"}, 3, 35)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(allocs) != 2 || unitSum(allocs) != 3 {
		t.Fatalf("expected 2 allocations summing to 3, got %+v", allocs)
	}
	if allocs[0].Name != "Sensory Integrative Techniques" {
		t.Errorf("expected tier name filled from the table, got %q", allocs[0].Name)
	}
	if allocs[0].Reimbursement != 70 {
		t.Errorf("expected reimbursement 70 for 2 units at 35, got %v", allocs[0].Reimbursement)
	}
	if !strings.Contains(gen.prompt, "97533") || !strings.Contains(gen.prompt, "swing") {
		t.Error("expected prompt to carry codes and activities")
	}
}

func TestModelBacked_RepairsUnitSum(t *testing.T) {
	gen := &stubGenerator{output: `{"allocations": [
		{"code": "97533", "units": 3, "rationale": "r", "activities_assigned": []},
		{"code": "97110", "units": 3, "rationale": "r", "activities_assigned": []}
	]}`}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"swing"}, 4, 35)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if unitSum(allocs) != 4 {
		t.Errorf("expected repaired sum 4, got %d", unitSum(allocs))
	}
}

func TestModelBacked_DropsUnknownCodesAndDuplicates(t *testing.T) {
	gen := &stubGenerator{output: `{"allocations": [
		{"code": "99999", "units": 2, "rationale": "bogus", "activities_assigned": []},
		{"code": "97533", "units": 2, "rationale": "r", "activities_assigned": []},
		{"code": "97533", "units": 1, "rationale": "dup", "activities_assigned": []}
	]}`}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"swing"}, 2, 35)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(allocs) != 1 || allocs[0].Code != "97533" || allocs[0].Units != 2 {
		t.Errorf("expected single repaired 97533 allocation, got %+v", allocs)
	}
}

func TestModelBacked_StripsCodeFence(t *testing.T) {
	gen := &stubGenerator{output: "```json\n" + `{"allocations": [
		{"code": "97535", "units": 2, "rationale": "r", "activities_assigned": []}
	]}` + "\n```"}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"pegboard"}, 2, 35)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(allocs) != 1 || allocs[0].Code != "97535" {
		t.Errorf("expected fenced JSON to parse, got %+v", allocs)
	}
}

func TestModelBacked_FallsOpenOnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("service unavailable")}
	m := NewModelBacked(gen, zerolog.Nop())

	activities := []string{"weighted swing play", "wrist curls"}
	allocs, err := m.Allocate(context.Background(), activities, 4, 35)
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}

	want, _ := NewRuleBased().Allocate(context.Background(), activities, 4, 35)
	if len(allocs) != len(want) || unitSum(allocs) != 4 {
		t.Errorf("expected rule-based result, got %+v", allocs)
	}
}

func TestModelBacked_FallsOpenOnGarbageOutput(t *testing.T) {
	gen := &stubGenerator{output: "I cannot help with that."}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"weighted swing play"}, 2, 35)
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if len(allocs) != 1 || allocs[0].Code != "97533" || allocs[0].Units != 2 {
		t.Errorf("expected rule-based allocation, got %+v", allocs)
	}
}

func TestModelBacked_FallsOpenOnUnrepairableSum(t *testing.T) {
	// One unit total but the model spent nine on a single code it can't
	// give back without going below one.
	gen := &stubGenerator{output: `{"allocations": [
		{"code": "97533", "units": 9, "rationale": "r", "activities_assigned": []},
		{"code": "97110", "units": 9, "rationale": "r", "activities_assigned": []}
	]}`}
	m := NewModelBacked(gen, zerolog.Nop())

	allocs, err := m.Allocate(context.Background(), []string{"weighted swing play"}, 1, 35)
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if unitSum(allocs) != 1 {
		t.Errorf("expected rule-based sum 1, got %d", unitSum(allocs))
	}
}

func TestModelBacked_InvalidTotalUnits(t *testing.T) {
	m := NewModelBacked(&stubGenerator{}, zerolog.Nop())
	if _, err := m.Allocate(context.Background(), []string{"swing"}, 0, 35); err == nil {
		t.Error("expected error for zero units")
	}
}
