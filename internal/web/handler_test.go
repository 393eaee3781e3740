package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/cexll/reddit-tracker/internal/jobs"
	"github.com/cexll/reddit-tracker/internal/processor"
)

type fakeRunner struct {
	block   chan struct{} // when set, ProcessOne waits until closed
	results map[string]processor.Result
}

func (r *fakeRunner) ProcessOne(ctx context.Context, url string) (processor.Result, error) {
	if r.block != nil {
		<-r.block
	}
	if res, ok := r.results[url]; ok {
		return res, nil
	}
	return processor.Result{URL: url, Status: "No Change", PresentRank: "Out of Top 5", PreviousRank: "N/A"}, nil
}

func newTestServer(t *testing.T, runner BatchRunner) *httptest.Server {
	t.Helper()
	h := NewHandler(jobs.NewRegistry(time.Hour), runner, "test-secret")
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// clientWithJar returns a client that carries the session cookie across
// requests, like a browser would.
func clientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, out interface{}) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestTrackLifecycle(t *testing.T) {
	runner := &fakeRunner{
		results: map[string]processor.Result{
			"https://reddit.com/r/a/comments/p/t/c1/": {
				URL: "https://reddit.com/r/a/comments/p/t/c1/", Status: "Ranking Changed", PresentRank: "1", PreviousRank: "3",
			},
		},
	}
	srv := newTestServer(t, runner)
	client := clientWithJar(t)

	var trackResp struct {
		Success bool `json:"success"`
		Total   int  `json:"total"`
	}
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/track",
		`{"urls":["https://reddit.com/r/a/comments/p/t/c1/"]}`, &trackResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("track status = %d, want 200", resp.StatusCode)
	}
	if !trackResp.Success || trackResp.Total != 1 {
		t.Fatalf("track response = %+v", trackResp)
	}

	// The batch runs in the background; poll until it completes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var st struct {
			IsRunning    bool   `json:"is_running"`
			ResultsCount int    `json:"results_count"`
			Error        string `json:"error"`
		}
		doJSON(t, client, http.MethodGet, srv.URL+"/api/status", "", &st)
		if !st.IsRunning && st.ResultsCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete: %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}

	var resultsResp struct {
		Results []processor.Result `json:"results"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/results", "", &resultsResp)
	if len(resultsResp.Results) != 1 || resultsResp.Results[0].Status != "Ranking Changed" {
		t.Fatalf("results = %+v", resultsResp.Results)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/export", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	exportResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	defer func() { _ = exportResp.Body.Close() }()
	if exportResp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", exportResp.StatusCode)
	}
	if ct := exportResp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("export content type = %q, want text/csv", ct)
	}
	if cd := exportResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "reddit_tracker_output_") {
		t.Fatalf("export disposition = %q, want generated filename", cd)
	}
}

func TestTrackConflictWhileRunning(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	srv := newTestServer(t, runner)
	client := clientWithJar(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/track",
		`{"urls":["https://reddit.com/r/a/comments/p/t/c1/"]}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first track status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/track",
		`{"urls":["https://reddit.com/r/a/comments/p/t/c2/"]}`, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second track status = %d, want 409", resp.StatusCode)
	}

	close(runner.block)
}

func TestTrackRejectsEmptyRequest(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	client := clientWithJar(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/track", `{}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("track status = %d, want 400", resp.StatusCode)
	}
}

func TestStatusWithoutJob(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	client := clientWithJar(t)

	var st struct {
		IsRunning bool `json:"is_running"`
		Total     int  `json:"total"`
	}
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/status", "", &st)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if st.IsRunning || st.Total != 0 {
		t.Fatalf("status without job = %+v, want zero values", st)
	}
}

func TestExportWithoutResults(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	client := clientWithJar(t)

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/export", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("export status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	h := NewHandler(jobs.NewRegistry(time.Hour), &fakeRunner{}, "test-secret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	first := h.sessionID(rec, req)
	if first == "" {
		t.Fatal("sessionID should mint a session")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("cookies = %+v, want one session cookie", cookies)
	}

	// Presenting the signed cookie again yields the same session id.
	req2 := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req2.AddCookie(cookies[0])
	second := h.sessionID(httptest.NewRecorder(), req2)
	if second != first {
		t.Fatalf("session id changed across requests: %q then %q", first, second)
	}

	// A tampered cookie is rejected and replaced.
	req3 := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req3.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookies[0].Value + "x"})
	third := h.sessionID(httptest.NewRecorder(), req3)
	if third == first {
		t.Fatal("tampered cookie must not restore the session")
	}
}
