package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	intakedomain "trialbridge/internal/intake/domain"
	"trialbridge/internal/session"
	"trialbridge/internal/trials"
	"trialbridge/internal/trials/domain"
	"trialbridge/internal/trials/service"
	"trialbridge/internal/trials/transport"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/logger"
	"trialbridge/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedApplications struct {
	mu     sync.Mutex
	events []events.TrialApplied
}

func (r *recordedApplications) Handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := event.(events.TrialApplied); ok {
		r.events = append(r.events, e)
	}
	return nil
}

func (r *recordedApplications) all() []events.TrialApplied {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.TrialApplied(nil), r.events...)
}

type fixture struct {
	engine    *gin.Engine
	bus       *events.InMemoryBus
	applied   *recordedApplications
	store     session.Store
	sessionID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records, err := domain.DefaultTrials()
	require.NoError(t, err)
	catalog, err := domain.NewCatalog(records)
	require.NoError(t, err)

	bus := events.NewInMemoryBus(logger.Discard())
	applied := &recordedApplications{}
	bus.Subscribe(events.TrialApplied{}.EventName(), applied)

	sessionID := uuid.New()
	engine := gin.New()
	v1 := engine.Group("/api/v1")
	sessionGroup := v1.Group("")
	sessionGroup.Use(func(c *gin.Context) {
		httpkit.SetSessionID(c, sessionID)
		c.Next()
	})

	store := session.NewMemoryStore(16, time.Hour)
	module := trials.NewModule(catalog, store, bus, nil, validator.New(), logger.Discard())
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: v1, Session: sessionGroup})

	return &fixture{engine: engine, bus: bus, applied: applied, store: store, sessionID: sessionID}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListKeepsCatalogOrderWithTiers(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/trials", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[transport.ListResponse](t, rec)
	require.Len(t, list.Trials, 3)
	assert.Equal(t, "3 trials match your profile", list.Summary)
	assert.Equal(t, []string{"high", "medium", "low"}, []string{list.Trials[0].Tier, list.Trials[1].Tier, list.Trials[2].Tier})
	assert.Equal(t, "NCT05234567", list.Trials[0].ID)
	assert.Equal(t, 0, list.SavedCount)
	assert.Equal(t, 0, list.ApplicationsCount)
}

func TestGetTrial(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/trials/NCT05234568", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trial := decode[transport.TrialResponse](t, rec)
	assert.Equal(t, 88, trial.MatchScore)
	assert.Equal(t, "medium", trial.Tier)

	rec = f.do(t, http.MethodGet, "/api/v1/trials/NCT00000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrowserNavigationClampsAndResetsTab(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/trials/browser", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	browser := decode[transport.BrowserResponse](t, rec)
	assert.Equal(t, 0, browser.CurrentIndex)
	assert.Equal(t, "overview", browser.SelectedTab)
	assert.False(t, browser.CanPrevious)
	assert.True(t, browser.CanNext)
	assert.Equal(t, "1 of 3", browser.Position)

	rec = f.do(t, http.MethodPut, "/api/v1/trials/browser/tab", transport.SelectTabRequest{Tab: "details"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "details", decode[transport.BrowserResponse](t, rec).SelectedTab)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/browser/previous", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	browser = decode[transport.BrowserResponse](t, rec)
	assert.Equal(t, 0, browser.CurrentIndex)
	assert.Equal(t, "details", browser.SelectedTab)

	for i := 0; i < 5; i++ {
		rec = f.do(t, http.MethodPost, "/api/v1/trials/browser/next", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	browser = decode[transport.BrowserResponse](t, rec)
	assert.Equal(t, 2, browser.CurrentIndex)
	assert.Equal(t, "overview", browser.SelectedTab)
	assert.False(t, browser.CanNext)
	assert.Equal(t, "NCT05234569", browser.CurrentTrial.ID)
}

func TestSelectTrialValidation(t *testing.T) {
	f := newFixture(t)

	index := 1
	rec := f.do(t, http.MethodPut, "/api/v1/trials/browser/selection", transport.SelectTrialRequest{Index: &index})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NCT05234568", decode[transport.BrowserResponse](t, rec).CurrentTrial.ID)

	outOfRange := 3
	rec = f.do(t, http.MethodPut, "/api/v1/trials/browser/selection", transport.SelectTrialRequest{Index: &outOfRange})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/trials/browser/selection", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/trials/browser/tab", transport.SelectTabRequest{Tab: "reviews"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleSaveAndSavedList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/trials/NCT05234569/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[transport.SaveResponse](t, rec).Saved)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/NCT05234567/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	saved := decode[transport.TrialListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials/saved", nil))
	require.Equal(t, 2, saved.Count)
	assert.Equal(t, "NCT05234567", saved.Trials[0].ID)
	assert.Equal(t, "NCT05234569", saved.Trials[1].ID)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/NCT05234569/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[transport.SaveResponse](t, rec).Saved)

	list := decode[transport.ListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials", nil))
	assert.Equal(t, 1, list.SavedCount)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/NCT99999999/save", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyIsIdempotentAndPublishesOnce(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/trials/NCT05234567/apply", transport.ApplyRequest{
		Name:  "  Jane <b>Doe</b> ",
		Email: "Jane@Example.com",
		Phone: "(617) 726-2000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[transport.ApplyResponse](t, rec)
	assert.Equal(t, service.ApplyMessage, first.Message)
	assert.False(t, first.AlreadyApplied)
	assert.False(t, first.Browser.CanApply)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/NCT05234567/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[transport.ApplyResponse](t, rec).AlreadyApplied)

	f.bus.Wait()
	published := f.applied.all()
	require.Len(t, published, 1)
	assert.Equal(t, "NCT05234567", published[0].TrialID)
	assert.Equal(t, "Jane Doe", published[0].Applicant.Name)
	assert.Equal(t, "jane@example.com", published[0].Applicant.Email)
	assert.Equal(t, "+16177262000", published[0].Applicant.Phone)

	apps := decode[transport.TrialListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials/applications", nil))
	assert.Equal(t, 1, apps.Count)
}

func TestApplyRejectsBadContact(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/trials/NCT05234568/apply", transport.ApplyRequest{Phone: "not a phone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/trials/NCT05234568/apply", transport.ApplyRequest{Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	apps := decode[transport.TrialListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials/applications", nil))
	assert.Equal(t, 0, apps.Count)

	f.bus.Wait()
	assert.Empty(t, f.applied.all())
}

func (f *fixture) answer(t *testing.T, answers intakedomain.Answers) {
	t.Helper()
	_, err := session.Mutate(context.Background(), f.store, f.sessionID, session.KindIntake, intakedomain.NewState,
		func(state intakedomain.State) (intakedomain.State, error) {
			state.Answers = answers
			return state, nil
		})
	require.NoError(t, err)
}

func TestEligibilityReadsIntakeAnswers(t *testing.T) {
	f := newFixture(t)
	f.answer(t, intakedomain.Answers{
		"demographics": {"age": "58", "pregnant": "No"},
		"diagnosis":    {"diagnosis": "Metastatic melanoma"},
		"functional":   {"ecogScore": "1 - Light work only"},
		"treatments":   {"previousTherapies": "Surgery"},
	})

	rec := f.do(t, http.MethodGet, "/api/v1/trials/NCT05234569/eligibility", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[transport.EligibilityResponse](t, rec)
	assert.Equal(t, "NCT05234569", result.TrialID)
	assert.True(t, result.Eligible, "%+v", result.Details)
	assert.True(t, result.InclusionMet)
	assert.True(t, result.ExclusionMet)
	assert.Equal(t, []string{"melanoma"}, result.Criteria.Inclusion.Diagnoses)
	assert.False(t, result.CheckedAt.IsZero())

	rec = f.do(t, http.MethodGet, "/api/v1/trials/NCT05234567/eligibility", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lung := decode[transport.EligibilityResponse](t, rec)
	assert.False(t, lung.Eligible)
	assert.False(t, lung.InclusionMet)
}

func TestEligibilityWithoutAnswersFailsInclusion(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/trials/NCT05234568/eligibility", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[transport.EligibilityResponse](t, rec)
	assert.False(t, result.Eligible)
	for _, detail := range result.Details {
		if detail.Type == "inclusion" {
			assert.Equal(t, "failed", detail.Status, detail.Message)
		}
	}
}

func TestEligibilityLeavesOrderAndScoresAlone(t *testing.T) {
	f := newFixture(t)
	before := decode[transport.ListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials", nil))

	for _, id := range []string{"NCT05234567", "NCT05234568", "NCT05234569"} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/trials/"+id+"/eligibility", nil).Code)
	}

	after := decode[transport.ListResponse](t, f.do(t, http.MethodGet, "/api/v1/trials", nil))
	require.Len(t, after.Trials, len(before.Trials))
	for i := range before.Trials {
		assert.Equal(t, before.Trials[i].ID, after.Trials[i].ID)
		assert.Equal(t, before.Trials[i].MatchScore, after.Trials[i].MatchScore)
	}
}

func TestEligibilityUnknownTrial(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/trials/NCT00000000/eligibility", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
