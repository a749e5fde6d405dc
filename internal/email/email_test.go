package email

import (
	"strings"
	"testing"
)

func TestRenderCoordinatorApplicationEscapesInput(t *testing.T) {
	html, err := renderCoordinatorApplication(CoordinatorApplication{
		TrialID:        "NCT05234567",
		TrialTitle:     "Novel Immunotherapy",
		ApplicantName:  "<script>alert(1)</script>",
		ApplicantEmail: "jane@example.com",
		SessionRef:     "abc",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "NCT05234567") || !strings.Contains(html, "jane@example.com") {
		t.Fatalf("missing content: %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("applicant name was not escaped")
	}
}

func TestRenderCoordinatorApplicationWithoutContact(t *testing.T) {
	html, err := renderCoordinatorApplication(CoordinatorApplication{TrialID: "NCT05234568", TrialTitle: "Trial"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "did not leave contact details") {
		t.Fatal("expected no-contact notice")
	}
}

func TestRenderIntakeSummary(t *testing.T) {
	html, err := renderIntakeSummary(IntakeSummary{
		SessionRef: "ref-1",
		Categories: []IntakeCategory{{
			Label:   "Demographics",
			Answers: []IntakeAnswer{{Field: "age", Value: "52"}},
		}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"ref-1", "Demographics", "age", "52"} {
		if !strings.Contains(html, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "noreply@trialbridge.test", "TrialBridge")
	if _, err := s.buildMessage("not an address", "subject", "<p>x</p>"); err == nil {
		t.Fatal("expected invalid recipient error")
	}
	if _, err := s.buildMessage("coordinator@example.org", "subject", "<p>x</p>"); err != nil {
		t.Fatalf("valid recipient rejected: %v", err)
	}
}
