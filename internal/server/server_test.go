package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/metrics"
	"github.com/KaramelBytes/surveyboard/internal/metrics/prom"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

const airasiaCSV = "Age Group,Gender,Monthly Income,Seen Airline Ads Billboards,Brand\n" +
	"18-24,Male,RM2000,Yes,AirAsia\n" +
	"25-34,Female,RM4000,No,MAS\n" +
	"25-34,Female,,Yes,AirAsia\n"

func newTestServer(t *testing.T, metricsHandler http.Handler) (*Server, *httptest.Server) {
	t.Helper()
	cat, err := dataset.Builtin()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s, err := New(Options{
		Catalog:      cat,
		Read:         table.ReadOptions{NullTokens: table.DefaultNullTokens},
		DisplayTopK:  20,
		PieTopK:      15,
		CacheEntries: 64,
		SessionLimit: 4,
		Metrics:      metricsHandler,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/sessions", nil, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var out map[string]string
	decode(t, resp, &out)
	if out["id"] == "" {
		t.Fatal("empty session id")
	}
	return out["id"]
}

func TestDatasetReport(t *testing.T) {
	s, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)

	resp := do(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/datasets/airasia?name=survey.csv", strings.NewReader(airasiaCSV), "text/csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put: status %d", resp.StatusCode)
	}
	var up datasetUploaded
	decode(t, resp, &up)
	if up.Rows != 3 || up.Columns != 5 || up.Name != "survey.csv" {
		t.Fatalf("upload = %+v", up)
	}

	var rep dataset.Report
	resp = do(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/datasets/AirAsia", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	decode(t, resp, &rep)
	if rep.Dataset != "airasia" || rep.Rows != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if got := rep.Representative.Result.Distribution.Count("AirAsia"); got != 2 {
		t.Errorf("representative AirAsia = %d", got)
	}

	sess, _ := s.sessions.Lookup(id)
	before := sess.Cache.Len()
	do(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/datasets/airasia", nil, "")
	if sess.Cache.Len() != before {
		t.Errorf("repeat request grew the cache: %d -> %d", before, sess.Cache.Len())
	}
}

func TestDatasetErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope/datasets/airasia", "", http.StatusNotFound},
		{"unknown dataset", http.MethodPut, "/api/sessions/" + id + "/datasets/nope", "a\n1\n", http.StatusNotFound},
		{"not uploaded", http.MethodGet, "/api/sessions/" + id + "/datasets/kfc", "", http.StatusNotFound},
		{"parse failure", http.MethodPut, "/api/sessions/" + id + "/datasets/kfc", "a,b\n1,2,3\n", http.StatusUnprocessableEntity},
		{"no billboards", http.MethodGet, "/api/sessions/" + id + "/billboards", "", http.StatusNotFound},
		{"nothing to compare", http.MethodGet, "/api/sessions/" + id + "/overall", "", http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var body io.Reader
			if c.body != "" {
				body = strings.NewReader(c.body)
			}
			resp := do(t, c.method, ts.URL+c.path, body, "")
			if resp.StatusCode != c.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, c.want)
			}
			var e errorBody
			decode(t, resp, &e)
			if e.Error == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestOverall(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)
	do(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/datasets/airasia", strings.NewReader(airasiaCSV), "")

	resp := do(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/overall?include=airasia,kfc", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var rep dataset.OverallReport
	decode(t, resp, &rep)
	if len(rep.Datasets) != 1 || rep.Datasets[0] != "AirAsia" {
		t.Fatalf("datasets = %v", rep.Datasets)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "KFC") {
		t.Errorf("warnings = %v", rep.Warnings)
	}
	g, ok := rep.Combined.Column("gender")
	if !ok || g.Distribution.Count("Female") != 2 {
		t.Errorf("gender = %+v", g)
	}

	do(t, http.MethodPut, ts.URL+"/api/sessions/"+id+"/datasets/kfc", strings.NewReader("Gender,Age\nMale,30\n"), "")
	resp = do(t, http.MethodGet, ts.URL+"/api/sessions/"+id+"/overall", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("default selection status %d", resp.StatusCode)
	}
	var all dataset.OverallReport
	decode(t, resp, &all)
	if len(all.Datasets) != 2 || all.Datasets[0] != "AirAsia" || all.Datasets[1] != "KFC" || len(all.Warnings) != 0 {
		t.Errorf("default selection = %v, warnings %v", all.Datasets, all.Warnings)
	}
}

func uploadBillboards(t *testing.T, url string, files map[string]string, order []string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte(files[name]))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return do(t, http.MethodPost, url, &buf, mw.FormDataContentType())
}

func TestBillboards(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/sessions/" + id + "/billboards"

	files := map[string]string{
		"file1.csv": "Latitude,Longitude,Potential Views,Reach,Location\n1.0,2.0,1000,500,KL\n",
		"file2.csv": "latitude,longitude,potential_views,reach,location\n3.0,4.0,0,100,Penang\n",
		"bad.csv":   "a,b\n1,2,3\n",
	}
	resp := uploadBillboards(t, base, files, []string{"file1.csv", "file2.csv", "bad.csv"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var view struct {
		Processed []string `json:"processed"`
		Failures  []string `json:"failures"`
		HasGeo    bool     `json:"has_geo"`
		Summary   struct {
			Total       int      `json:"total"`
			AvgReachPct *float64 `json:"avg_reach_pct"`
		} `json:"summary"`
		Categories []string `json:"categories"`
	}
	decode(t, resp, &view)
	if len(view.Processed) != 2 || len(view.Failures) != 1 || !strings.HasPrefix(view.Failures[0], "bad.csv") {
		t.Fatalf("view = %+v", view)
	}
	if view.Summary.Total != 2 || view.Summary.AvgReachPct == nil || *view.Summary.AvgReachPct != 50 {
		t.Errorf("summary = %+v", view.Summary)
	}

	var mv struct {
		Available bool `json:"available"`
		Markers   []struct {
			Point  [2]float64 `json:"point"`
			Bucket string     `json:"bucket"`
		} `json:"markers"`
	}
	decode(t, do(t, http.MethodGet, base+"/map", nil, ""), &mv)
	if !mv.Available || len(mv.Markers) != 2 {
		t.Fatalf("map = %+v", mv)
	}
	if mv.Markers[0].Point != [2]float64{2, 1} || mv.Markers[0].Bucket != "orange" || mv.Markers[1].Bucket != "gray" {
		t.Errorf("markers = %+v", mv.Markers)
	}

	var bar categoryChart
	decode(t, do(t, http.MethodGet, base+"/charts/bar?column=location", nil, ""), &bar)
	if bar.Column != "location" || bar.Distribution.Count("KL") != 1 || bar.Distribution.Count("Penang") != 1 {
		t.Errorf("bar = %+v", bar)
	}
	if resp := do(t, http.MethodGet, base+"/charts/radar", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown chart status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, base+"/export", nil, "")
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "merged_billboard_data.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	b, _ := io.ReadAll(resp.Body)
	want := "latitude,longitude,potential_views,reach,location,source_file,reach_pct\n" +
		"1.0,2.0,1000,500,KL,file1_csv,50\n" +
		"3.0,4.0,0,100,Penang,file2_csv,\n"
	if string(b) != want {
		t.Errorf("export = %q\nwant %q", b, want)
	}

	resp = do(t, http.MethodGet, base+"/export?format=sqlite", nil, "")
	b, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(b, []byte("SQLite format 3")) {
		t.Errorf("sqlite export: status %d, %d bytes", resp.StatusCode, len(b))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	_, ts := newTestServer(t, nil)
	a := createSession(t, ts.URL)
	b := createSession(t, ts.URL)
	do(t, http.MethodPut, ts.URL+"/api/sessions/"+a+"/datasets/airasia", strings.NewReader(airasiaCSV), "")

	if resp := do(t, http.MethodGet, ts.URL+"/api/sessions/"+b+"/datasets/airasia", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("session b sees session a's upload: status %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	b, err := prom.NewBackend()
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	metrics.SetBackend(b)
	_, ts := newTestServer(t, b.Handler())
	createSession(t, ts.URL)

	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil, "")
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), metrics.SessionsTotal+" 1") {
		t.Errorf("metrics body missing session count:\n%s", body)
	}
}
