package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	trials, err := DefaultTrials()
	if err != nil {
		t.Fatalf("default trials: %v", err)
	}
	c, err := NewCatalog(trials)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestClassifyTierThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{100, TierHigh},
		{90, TierHigh},
		{89, TierMedium},
		{75, TierMedium},
		{74, TierLow},
		{0, TierLow},
	}
	for _, tc := range cases {
		if got := ClassifyTier(tc.score); got != tc.want {
			t.Errorf("ClassifyTier(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestDefaultCatalogTiersInDisplayOrder(t *testing.T) {
	c := mustCatalog(t)
	want := []struct {
		id    string
		score int
		tier  Tier
	}{
		{"NCT05234567", 95, TierHigh},
		{"NCT05234568", 88, TierMedium},
		{"NCT05234569", 72, TierLow},
	}

	trials := c.Trials()
	if len(trials) != len(want) {
		t.Fatalf("expected %d trials, got %d", len(want), len(trials))
	}
	for i, w := range want {
		if trials[i].ID != w.id || trials[i].MatchScore != w.score || trials[i].Tier() != w.tier {
			t.Errorf("trial %d: got %s/%d/%s, want %s/%d/%s", i, trials[i].ID, trials[i].MatchScore, trials[i].Tier(), w.id, w.score, w.tier)
		}
	}
}

func TestCatalogKeepsInsertionOrder(t *testing.T) {
	c, err := NewCatalog([]Trial{
		{ID: "NCT00000001", MatchScore: 40},
		{ID: "NCT00000002", MatchScore: 99},
		{ID: "NCT00000003", MatchScore: 70},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	first, _ := c.At(0)
	if first.ID != "NCT00000001" {
		t.Fatalf("catalog reordered trials: first is %s", first.ID)
	}
}

func TestNewCatalogRejectsBadRecords(t *testing.T) {
	cases := map[string][]Trial{
		"empty":     nil,
		"bad id":    {{ID: "12345"}},
		"duplicate": {{ID: "NCT00000001"}, {ID: "NCT00000001"}},
		"score":     {{ID: "NCT00000001", MatchScore: 101}},
	}
	for name, trials := range cases {
		if _, err := NewCatalog(trials); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSelectTrialResetsTab(t *testing.T) {
	c := mustCatalog(t)
	for i := 0; i < c.Len(); i++ {
		s, _ := NewBrowserState().SelectTab(TabDetails)
		s, err := s.SelectTrial(c, i)
		if err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if s.CurrentIndex != i || s.Tab != TabOverview {
			t.Fatalf("select %d: got index %d tab %s", i, s.CurrentIndex, s.Tab)
		}
	}

	s := NewBrowserState()
	if _, err := s.SelectTrial(c, c.Len()); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestToggleSaveTwiceRestoresMembership(t *testing.T) {
	c := mustCatalog(t)
	s := NewBrowserState()

	once, err := s.ToggleSave(c, "NCT05234568")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !once.Saved.Has("NCT05234568") {
		t.Fatal("expected trial saved")
	}
	twice, _ := once.ToggleSave(c, "NCT05234568")
	if twice.Saved.Has("NCT05234568") {
		t.Fatal("second toggle should unsave")
	}
	if !once.Saved.Has("NCT05234568") {
		t.Fatal("toggle mutated the previous state")
	}

	if _, err := s.ToggleSave(c, "NCT99999999"); !errors.Is(err, ErrUnknownTrial) {
		t.Fatalf("expected ErrUnknownTrial, got %v", err)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := mustCatalog(t)
	s := NewBrowserState()

	once, first, err := s.Apply(c, "NCT05234567")
	if err != nil || !first {
		t.Fatalf("first apply: first=%v err=%v", first, err)
	}
	if once.CanApply("NCT05234567") {
		t.Fatal("apply should be disabled after the first success")
	}

	twice, first, err := once.Apply(c, "NCT05234567")
	if err != nil || first {
		t.Fatalf("second apply: first=%v err=%v", first, err)
	}
	if len(twice.Applied) != len(once.Applied) || !twice.Applied.Has("NCT05234567") {
		t.Fatal("second apply changed the applied set")
	}
}

func TestNextPreviousStayInBounds(t *testing.T) {
	c := mustCatalog(t)
	s := NewBrowserState()

	for i := 0; i < 10; i++ {
		s = s.Next(c)
		if s.CurrentIndex < 0 || s.CurrentIndex > c.Len()-1 {
			t.Fatalf("next left bounds: %d", s.CurrentIndex)
		}
	}
	if s.CurrentIndex != c.Len()-1 {
		t.Fatalf("expected last index, got %d", s.CurrentIndex)
	}

	for i := 0; i < 10; i++ {
		s = s.Previous(c)
		if s.CurrentIndex < 0 || s.CurrentIndex > c.Len()-1 {
			t.Fatalf("previous left bounds: %d", s.CurrentIndex)
		}
	}
	if s.CurrentIndex != 0 {
		t.Fatalf("expected first index, got %d", s.CurrentIndex)
	}
}

func TestNextResetsTabOnlyWhenMoving(t *testing.T) {
	c := mustCatalog(t)
	s, _ := NewBrowserState().SelectTab(TabEligibility)

	moved := s.Next(c)
	if moved.CurrentIndex != 1 || moved.Tab != TabOverview {
		t.Fatalf("expected index 1 on overview, got %d %s", moved.CurrentIndex, moved.Tab)
	}

	atStart, _ := NewBrowserState().SelectTab(TabDetails)
	stayed := atStart.Previous(c)
	if stayed.CurrentIndex != 0 || stayed.Tab != TabDetails {
		t.Fatalf("previous at first trial should change nothing, got %d %s", stayed.CurrentIndex, stayed.Tab)
	}
}

func TestSelectTabOnlyChangesTab(t *testing.T) {
	c := mustCatalog(t)
	s, _ := NewBrowserState().SelectTrial(c, 2)
	s, _ = s.ToggleSave(c, "NCT05234569")

	got, err := s.SelectTab(TabEligibility)
	if err != nil {
		t.Fatalf("select tab: %v", err)
	}
	if got.Tab != TabEligibility || got.CurrentIndex != 2 || !got.Saved.Has("NCT05234569") {
		t.Fatalf("unexpected state: %+v", got)
	}

	if _, err := s.SelectTab("reviews"); !errors.Is(err, ErrUnknownTab) {
		t.Fatalf("expected ErrUnknownTab, got %v", err)
	}
}

func TestBrowserStateJSON(t *testing.T) {
	c := mustCatalog(t)
	s, _ := NewBrowserState().ToggleSave(c, "NCT05234569")
	s, _, _ = s.Apply(c, "NCT05234567")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded BrowserState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Saved.Has("NCT05234569") || !decoded.Applied.Has("NCT05234567") || decoded.Tab != TabOverview {
		t.Fatalf("unexpected decoded state: %+v", decoded)
	}
}
