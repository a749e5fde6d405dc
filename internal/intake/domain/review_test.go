package domain

import "testing"

func TestReviewFlagsButNeverBlocks(t *testing.T) {
	c := mustDefaultCatalog(t)
	s := NewState()
	s, _ = s.SetAnswer(c, CategoryDemographics, "age", "forty")
	s, _ = s.SetAnswer(c, CategoryDemographics, "sexAtBirth", "Unknown")
	s, _ = s.SetAnswer(c, CategoryReproductive, "pregnancyTestDate", "03/04/2024")
	s, _ = s.SetAnswer(c, CategoryLaboratory, "hemoglobin", "12.5")

	issues := Review(c, s.Answers)

	byField := make(map[string]IssueKind, len(issues))
	for _, issue := range issues {
		byField[string(issue.Category)+"."+issue.Field] = issue.Kind
	}

	cases := map[string]IssueKind{
		"demographics.age":               IssueNotNumber,
		"demographics.sexAtBirth":        IssueNotOption,
		"demographics.pregnant":          IssueMissing,
		"reproductive.pregnancyTestDate": IssueInvalidDate,
		"administrative.informedConsent": IssueMissing,
	}
	for key, want := range cases {
		if got := byField[key]; got != want {
			t.Errorf("%s: expected %s, got %q", key, want, got)
		}
	}
	if _, flagged := byField["laboratory.hemoglobin"]; flagged {
		t.Error("valid number should not be flagged")
	}
	if _, flagged := byField["diagnosis.diseaseSubtype"]; flagged {
		t.Error("optional unanswered field should not be flagged")
	}

	advanced := s.Advance(c)
	if advanced.Current != 1 {
		t.Fatal("review findings must not block advancing")
	}
}
