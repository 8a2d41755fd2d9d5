package denials

import "testing"

func TestClassify_KnownCategories(t *testing.T) {
	cases := []struct {
		reason string
		want   string
	}{
		{"Services deemed not medically necessary", "medical_necessity"},
		{"This service is not covered under the member's plan", "not_covered"},
		{"Denied: no prior authorization on file", "auth_missing"},
		{"Service denied - prior auth not obtained", "auth_missing"},
		{"Incorrect coding of services", "coding_error"},
		{"Invalid modifier for procedure", "coding_error"},
		{"Duplicate claim submission", "duplicate"},
		{"Claim received past timely filing limit", "timely_filing"},
		{"Member not eligible on date of service", "eligibility"},
		{"Coverage terminated prior to service date", "eligibility"},
		{"Service bundled into primary procedure", "bundled"},
	}
	for _, tc := range cases {
		got := Classify(tc.reason)
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.reason, got.Category, tc.want)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify("MEDICAL NECESSITY not established")
	if got.Category != "medical_necessity" {
		t.Errorf("expected medical_necessity, got %s", got.Category)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Contains both "medical necessity" and "authorization"; the earlier
	// pattern in declaration order takes it.
	got := Classify("medical necessity not established and authorization missing")
	if got.Category != "medical_necessity" {
		t.Errorf("expected medical_necessity, got %s", got.Category)
	}
}

func TestClassify_FallbackToOther(t *testing.T) {
	for _, reason := range []string{"", "completely unrelated text", "xyzzy"} {
		got := Classify(reason)
		if got.Category != "other" {
			t.Errorf("Classify(%q) = %s, want other", reason, got.Category)
		}
	}
}

func TestClassify_AuthMissingHasFixedSuccessRate(t *testing.T) {
	first := Classify("prior auth not obtained")
	second := Classify("authorization required but absent")
	if first.Category != "auth_missing" || second.Category != "auth_missing" {
		t.Fatalf("expected auth_missing for both, got %s and %s", first.Category, second.Category)
	}
	if first.SuccessRate != second.SuccessRate {
		t.Errorf("success rate must be fixed per pattern, got %d and %d", first.SuccessRate, second.SuccessRate)
	}
}

func TestClassify_PatternsHaveGuidance(t *testing.T) {
	for _, p := range patterns {
		if len(p.KeyArguments) == 0 {
			t.Errorf("pattern %s has no key arguments", p.Category)
		}
		if len(p.SuggestedActions) == 0 {
			t.Errorf("pattern %s has no suggested actions", p.Category)
		}
		if p.SuccessRate <= 0 || p.SuccessRate > 100 {
			t.Errorf("pattern %s has out-of-range success rate %d", p.Category, p.SuccessRate)
		}
	}
}

func TestFollowUpTips(t *testing.T) {
	if tips := FollowUpTips("auth_missing"); len(tips) == 0 {
		t.Error("expected tips for auth_missing")
	}
	if tips := FollowUpTips("nonexistent"); len(tips) == 0 {
		t.Error("expected fallback tips for unknown category")
	}
}
