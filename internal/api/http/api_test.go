package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyscout/replyscout/internal/adapter"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/scheduler"
	"github.com/replyscout/replyscout/internal/store/memstore"
)

type fakeRunner struct {
	inserted  []*model.Opportunity
	err       error
	panics    bool
	jobs      map[string]scheduler.JobHandle
	running   bool
	reloadErr error
	reloads   int
}

func (f *fakeRunner) TriggerNow(_ context.Context, accountID string, t model.DiscoveryType) ([]*model.Opportunity, error) {
	if f.panics {
		panic("runner exploded")
	}
	return f.inserted, f.err
}

func (f *fakeRunner) Reload(context.Context) error {
	f.reloads++
	return f.reloadErr
}

func (f *fakeRunner) RegisteredJobs() map[string]scheduler.JobHandle { return f.jobs }
func (f *fakeRunner) IsRunning() bool                                { return f.running }

type failingPinger struct{ err error }

func (p *failingPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, st *memstore.Store, runner *fakeRunner) *httptest.Server {
	t.Helper()
	if runner == nil {
		runner = &fakeRunner{}
	}
	router := NewRouter(
		zerolog.Nop(),
		NewAccountHandler(st.Accounts()),
		NewOpportunityHandler(st.Opportunities()),
		NewDiscoveryHandler(runner),
		NewHealthHandler(st),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func seedOpportunity(t *testing.T, st *memstore.Store, id string, total float64, expiresAt time.Time) {
	t.Helper()
	_, err := st.Opportunities().InsertBatch(context.Background(), []*model.Opportunity{{
		OpportunityID:  id,
		AccountID:      "acct-a",
		PlatformPostID: "post-" + id,
		Score:          model.Score{Total: total},
		Status:         model.OpportunityPending,
		DiscoveredAt:   time.Now().UTC(),
		ExpiresAt:      expiresAt,
	}})
	require.NoError(t, err)
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestListAccounts(t *testing.T) {
	st := memstore.New()
	st.AddAccount(&model.Account{AccountID: "acct-a", Status: model.AccountActive})
	st.AddAccount(&model.Account{AccountID: "acct-b", Status: model.AccountInactive})

	srv := newTestServer(t, st, nil)
	resp, body := doJSON(t, "GET", srv.URL+"/api/accounts", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetAccount(t *testing.T) {
	st := memstore.New()
	st.AddAccount(&model.Account{AccountID: "acct-a", Handle: "@scout", Status: model.AccountActive})

	srv := newTestServer(t, st, nil)

	resp, body := doJSON(t, "GET", srv.URL+"/api/accounts/acct-a", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "@scout", body["handle"])

	resp, _ = doJSON(t, "GET", srv.URL+"/api/accounts/acct-missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListQueueOrdersByScoreAndFiltersExpired(t *testing.T) {
	st := memstore.New()
	later := time.Now().UTC().Add(time.Hour)
	seedOpportunity(t, st, "low", 40.0, later)
	seedOpportunity(t, st, "high", 91.5, later)
	seedOpportunity(t, st, "overdue", 99.0, time.Now().UTC().Add(-time.Minute))

	srv := newTestServer(t, st, nil)
	resp, body := doJSON(t, "GET", srv.URL+"/api/accounts/acct-a/opportunities?status=pending", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2), body["count"])
	opps := body["opportunities"].([]interface{})
	first := opps[0].(map[string]interface{})
	assert.Equal(t, "high", first["opportunityId"])
}

func TestListQueueRejectsUnknownStatus(t *testing.T) {
	srv := newTestServer(t, memstore.New(), nil)
	resp, _ := doJSON(t, "GET", srv.URL+"/api/accounts/acct-a/opportunities?status=snoozed", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateStatus(t *testing.T) {
	st := memstore.New()
	seedOpportunity(t, st, "opp-1", 50.0, time.Now().UTC().Add(time.Hour))
	srv := newTestServer(t, st, nil)
	url := srv.URL + "/api/accounts/acct-a/opportunities/opp-1"

	resp, body := doJSON(t, "PATCH", url, `{"status":"responded"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "responded", body["status"])

	// responded is terminal
	resp, _ = doJSON(t, "PATCH", url, `{"status":"dismissed"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, "PATCH", srv.URL+"/api/accounts/acct-a/opportunities/opp-missing", `{"status":"responded"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, "PATCH", url, `{"status":"expired"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, "PATCH", url, `{"status":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrigger(t *testing.T) {
	runner := &fakeRunner{inserted: []*model.Opportunity{{OpportunityID: "opp-1"}}}
	srv := newTestServer(t, memstore.New(), runner)
	url := srv.URL + "/api/accounts/acct-a/discovery/replies/trigger"

	resp, body := doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["inserted"])

	runner.inserted = nil
	runner.err = model.ErrNotFound
	resp, _ = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	runner.err = model.ErrValidation
	resp, _ = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	runner.err = adapter.RateLimited(time.Minute, errors.New("429"))
	resp, body = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["message"], "rate_limited")

	runner.err = errors.New("boom")
	resp, _ = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListJobs(t *testing.T) {
	runner := &fakeRunner{
		running: true,
		jobs: map[string]scheduler.JobHandle{
			"acct-b:search":  {Key: "acct-b:search", AccountID: "acct-b", Type: model.DiscoverySearch, CronExpr: "0 * * * *"},
			"acct-a:replies": {Key: "acct-a:replies", AccountID: "acct-a", Type: model.DiscoveryReplies, CronExpr: "*/5 * * * *"},
		},
	}
	srv := newTestServer(t, memstore.New(), runner)

	resp, body := doJSON(t, "GET", srv.URL+"/api/scheduler/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["running"])
	jobs := body["jobs"].([]interface{})
	require.Len(t, jobs, 2)
	assert.Equal(t, "acct-a:replies", jobs[0].(map[string]interface{})["key"])
}

func TestReloadJobs(t *testing.T) {
	runner := &fakeRunner{running: true, jobs: map[string]scheduler.JobHandle{
		"acct-a:replies": {Key: "acct-a:replies"},
	}}
	srv := newTestServer(t, memstore.New(), runner)
	url := srv.URL + "/api/scheduler/reload"

	resp, body := doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["running"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 1, runner.reloads)

	// per-registration failures still reload, reported as warnings
	runner.reloadErr = fmt.Errorf("%w: job acct-b:replies has invalid cron expression", model.ErrValidation)
	resp, body = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["warnings"], "invalid cron expression")

	runner.reloadErr = errors.New("load active accounts: db down")
	resp, _ = doJSON(t, "POST", url, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, memstore.New(), nil)
	resp, body := doJSON(t, "GET", srv.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthUnhealthyStore(t *testing.T) {
	handler := NewHealthHandler(&failingPinger{err: errors.New("connection refused")})
	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest("GET", "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestPanicRecoveryReturns500(t *testing.T) {
	srv := newTestServer(t, memstore.New(), &fakeRunner{panics: true})
	resp, body := doJSON(t, "POST", srv.URL+"/api/accounts/acct-a/discovery/replies/trigger", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, float64(500), body["code"])
}
