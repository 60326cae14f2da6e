package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pluralign/prism/internal/cache"
	"github.com/pluralign/prism/internal/perspective"
	"github.com/pluralign/prism/internal/pipeline"
	"github.com/pluralign/prism/internal/selection"
	"github.com/pluralign/prism/internal/storage"
)

const testToken = "test-token-12345"

type stubCompleter struct{}

func (stubCompleter) Complete(_ context.Context, _ string, _ int) (string, error) {
	return "stub perspective", nil
}

var testProfiles = []selection.UserProfile{
	{
		UserID:               "U001",
		PrimaryCommunityType: "religious",
		PrimaryCommunity:     "Hindu_progressive",
		SecondaryCommunity:   "vegetarian",
	},
}

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	c := cache.New(store, cache.DefaultTTL)
	gen := perspective.NewGenerator(stubCompleter{}, c)
	svc := pipeline.NewService(nil, gen, store, selection.DefaultMaxAdditional)

	handler := NewAppHandler(AppDeps{
		Pipeline: svc,
		Cache:    c,
		Store:    store,
		Profiles: testProfiles,
		Token:    token,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAsk_RequiresAuth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAsk_KnownUser(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp pipeline.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.SurfacedPerspectives {
		t.Error("expected perspectives for a food ethics question")
	}
	if resp.Baseline != "Hindu_progressive" {
		t.Errorf("Baseline = %q", resp.Baseline)
	}
	if resp.InteractionID == "" {
		t.Fatal("response missing interaction_id")
	}

	if _, err := store.GetInteraction(resp.InteractionID); err != nil {
		t.Errorf("interaction not persisted: %v", err)
	}
}

func TestAsk_InlineProfile(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"profile":{"primary_community":"Catholic","primary_community_type":"religious"},"question":"Should abortion be legal?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp pipeline.Response
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Baseline != "Catholic" {
		t.Errorf("Baseline = %q", resp.Baseline)
	}
}

func TestAsk_UnknownUser(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"user_id":"nobody","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAsk_MissingQuestion(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", `{"user_id":"U001"}`, testToken))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInteractions_ListAndGet(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))
	var resp pipeline.Response
	json.NewDecoder(rr.Body).Decode(&resp)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/interactions?user_id=U001", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list []storage.Interaction
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("got %d interactions, want 1", len(list))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/interactions/"+resp.InteractionID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/interactions/missing", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing interaction status = %d, want 404", rr.Code)
	}
}

func TestFeedback(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))
	var resp pipeline.Response
	json.NewDecoder(rr.Body).Decode(&resp)

	fb := `{"user_community":"Hindu_progressive","usefulness":5,"prefer_multiple_perspectives":"Yes"}`
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/interactions/"+resp.InteractionID+"/feedback", fb, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("feedback status = %d; body = %s", rr.Code, rr.Body.String())
	}

	fbs, err := store.ListFeedback(resp.InteractionID)
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(fbs) != 1 || fbs[0].Usefulness != 5 {
		t.Errorf("feedback = %+v", fbs)
	}
}

func TestFeedback_UnknownInteraction(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	fb := `{"usefulness":3}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/interactions/missing/feedback", fb, testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestCacheStatsAndSweep(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	// Populate the cache by answering a question.
	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, testToken))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/cache/stats", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rr.Code)
	}
	var stats storage.CacheStats
	json.NewDecoder(rr.Body).Decode(&stats)
	if stats.TotalEntries == 0 {
		t.Error("expected cache entries after answering")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/cache/sweep", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("sweep status = %d", rr.Code)
	}
	var swept map[string]int
	json.NewDecoder(rr.Body).Decode(&swept)
	if swept["removed"] != 0 {
		t.Errorf("removed = %d, want 0 for fresh entries", swept["removed"])
	}
}

func TestNoTokenDisablesAuth(t *testing.T) {
	h, _ := setupAppHandler(t, "")

	body := `{"user_id":"U001","question":"Is it ethical to eat meat?"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/ask", body, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d without auth configured", rr.Code, http.StatusOK)
	}
}
