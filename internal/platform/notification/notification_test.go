package notification

import (
	"context"
	"strings"
	"testing"
)

func newTestService() (*Service, *MockEmailSender, *MockSMSSender) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	return NewService(email, sms, NewTemplateEngine()), email, sms
}

func TestSend_Email(t *testing.T) {
	svc, email, _ := newTestService()

	n := &Notification{
		Type:      TypeEmail,
		Recipient: "biller@clinic.example",
		Subject:   "test",
		Body:      "hello",
	}
	if err := svc.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n.ID == "" {
		t.Error("expected notification ID to be assigned")
	}
	if n.Status != "sent" {
		t.Errorf("expected status sent, got %s", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected SentAt to be set")
	}
	if len(email.Calls()) != 1 {
		t.Fatalf("expected 1 email call, got %d", len(email.Calls()))
	}
}

func TestSend_FailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	svc := NewService(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "x@y.z", Body: "hi"}
	err := svc.Send(context.Background(), n)
	if err == nil {
		t.Fatal("expected error")
	}

	if n.Status != "failed" {
		t.Errorf("expected status failed, got %s", n.Status)
	}
	if n.Error != "smtp down" {
		t.Errorf("expected error message recorded, got %q", n.Error)
	}

	stored, err := svc.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("expected failed notification to be stored: %v", err)
	}
	if stored.Status != "failed" {
		t.Errorf("expected stored status failed, got %s", stored.Status)
	}
}

func TestSendFromTemplate_ClaimDenied(t *testing.T) {
	svc, email, _ := newTestService()

	n, err := svc.SendFromTemplate(context.Background(), "claim-denied", map[string]string{
		"claim_id":        "CLM-100",
		"patient_name":    "Jordan Lee",
		"insurer":         "Aetna",
		"denial_reason":   "not medically necessary",
		"denial_category": "medical_necessity",
	}, "biller@clinic.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(n.Subject, "CLM-100") {
		t.Errorf("expected claim id in subject, got %q", n.Subject)
	}
	if !strings.Contains(n.Body, "not medically necessary") {
		t.Errorf("expected denial reason in body, got %q", n.Body)
	}

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email call, got %d", len(calls))
	}
}

func TestSendFromTemplate_UnknownTemplate(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SendFromTemplate(context.Background(), "no-such-template", nil, "x@y.z")
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestSendFromTemplate_SMSTemplate(t *testing.T) {
	svc, _, sms := newTestService()

	_, err := svc.SendFromTemplate(context.Background(), "appeal-reminder", map[string]string{
		"appeal_id":    "AP-1",
		"claim_id":     "CLM-1",
		"insurer":      "Cigna",
		"days_waiting": "30",
	}, "+15550100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sms.Calls()) != 1 {
		t.Fatalf("expected 1 sms call, got %d", len(sms.Calls()))
	}
}

func TestRetry_OnlyFailed(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	svc := NewService(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "x@y.z", Body: "hi"}
	_ = svc.Send(context.Background(), n)

	email.ShouldFail = false
	if err := svc.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected retry error: %v", err)
	}

	stored, _ := svc.Get(context.Background(), n.ID)
	if stored.Status != "sent" {
		t.Errorf("expected status sent after retry, got %s", stored.Status)
	}
	if stored.Error != "" {
		t.Errorf("expected error cleared after retry, got %q", stored.Error)
	}

	// Retrying a sent notification is rejected
	if err := svc.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestStats(t *testing.T) {
	svc, email, _ := newTestService()

	_ = svc.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "1"})
	email.ShouldFail = true
	email.FailError = "down"
	_ = svc.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@b.c", Body: "2"})

	stats := svc.Stats(context.Background())
	if stats["sent"] != 1 || stats["failed"] != 1 {
		t.Errorf("expected 1 sent and 1 failed, got %v", stats)
	}
}

func TestTemplateEngine_LeavesUnknownPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	subject, _, err := e.Render("claim-submitted", map[string]string{"claim_id": "CLM-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "CLM-7") {
		t.Errorf("expected claim id substituted, got %q", subject)
	}
	if !strings.Contains(subject, "{{insurer}}") {
		t.Errorf("expected missing key left as placeholder, got %q", subject)
	}
}
