package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/handler"
	"github.com/insighttxn/txn-analytics-go/internal/infra/cache"
	"github.com/insighttxn/txn-analytics-go/internal/infra/observability"
	"github.com/insighttxn/txn-analytics-go/internal/infra/resilience"
	"github.com/insighttxn/txn-analytics-go/internal/infra/store"
	"github.com/insighttxn/txn-analytics-go/internal/ingest"
	"github.com/insighttxn/txn-analytics-go/internal/service"

	"go.uber.org/zap"
)

const sampleCSV = `Total,Transaction_Type,Type,Source,Country,Day,Transaction_Notes,Success
100.50,card,completed,web,US,2024-01-10,,1
300,pix,completed,mobile,BR,2024-01-20,monthly,1
200,card,refunded,web,US,2024-02-05,,1
999,card,completed,web,US,2024-01-11,,0
`

type fixture struct {
	router   http.Handler
	fetcher  *stubFetcher
	sessions *service.Sessions
}

type stubFetcher struct {
	body []byte
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return s.body, s.err
}

func newFixture(t *testing.T, withSessions bool) *fixture {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	registry := store.NewMemory()
	fetcher := &stubFetcher{}

	datasets := service.NewDatasets(
		registry,
		cache.New[*ingest.Result](time.Minute),
		fetcher,
		resilience.NewBulkhead(2),
		metrics,
		logger,
		1<<20,
	)
	analytics := service.NewAnalytics(registry, metrics, logger)

	var sessions *service.Sessions
	if withSessions {
		sessions = service.NewSessions([]byte("test-secret"), time.Hour, logger)
	}

	return &fixture{
		router:   handler.NewRouter(datasets, analytics, sessions, metrics, logger, 1<<20),
		fetcher:  fetcher,
		sessions: sessions,
	}
}

func multipartUpload(t *testing.T, filename, body string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func uploadDataset(t *testing.T, f *fixture) domain.Dataset {
	t.Helper()

	buf, contentType := multipartUpload(t, "jan.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var ds domain.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	return ds
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestUploadDataset(t *testing.T) {
	f := newFixture(t, false)

	ds := uploadDataset(t, f)

	if ds.ID == "" {
		t.Error("expected dataset ID in response")
	}
	if ds.Report.RowsKept != 3 || ds.Report.RowsDroppedUnsuccessful != 1 {
		t.Errorf("unexpected report: %+v", ds.Report)
	}
}

func TestUploadDataset_MissingFile(t *testing.T) {
	f := newFixture(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUploadDataset_RawBody(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", bytes.NewBufferString(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
}

func TestUploadDataset_Garbage(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", bytes.NewBufferString("not,a\nvalid,csv"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing columns, got %d", rec.Code)
	}
}

func TestImportDataset(t *testing.T) {
	f := newFixture(t, false)
	f.fetcher.body = []byte(sampleCSV)

	body, _ := json.Marshal(map[string]string{"url": "https://example.com/data/export.csv"})
	req := httptest.NewRequest(http.MethodPost, "/v1/datasets/import", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var ds domain.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ds.Name != "export.csv" {
		t.Errorf("expected name from URL, got %q", ds.Name)
	}
}

func TestImportDataset_FetchFailure(t *testing.T) {
	f := newFixture(t, false)
	f.fetcher.err = &domain.ErrExternalService{Service: "dataset_host", Err: context.DeadlineExceeded}

	body, _ := json.Marshal(map[string]string{"url": "https://example.com/data/export.csv"})
	req := httptest.NewRequest(http.MethodPost, "/v1/datasets/import", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestGetDataset_NotFound(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets/nope", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID+"/summary?status=completed", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var sum domain.Summary
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Count != 2 {
		t.Errorf("expected 2 completed records, got %d", sum.Count)
	}
}

func TestSummaryEndpoint_InvalidDateRange(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/datasets/"+ds.ID+"/summary?start=2024-03-01&end=2024-01-01", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryEndpoint_BadDateParam(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID+"/summary?start=January", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID+"/dashboard", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var dash domain.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&dash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dash.Summary == nil || dash.Summary.Count != 3 {
		t.Errorf("unexpected dashboard summary: %+v", dash.Summary)
	}
	if len(dash.TimeSeries) != 2 {
		t.Errorf("expected 2 periods, got %d", len(dash.TimeSeries))
	}
}

func TestTransactionsEndpoint_Paginated(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/datasets/"+ds.ID+"/transactions?page=1&page_size=2", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var page domain.TransactionPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalCount != 3 || len(page.Transactions) != 2 {
		t.Errorf("unexpected page: total=%d len=%d", page.TotalCount, len(page.Transactions))
	}
}

func TestFacetsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID+"/facets", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var facets domain.Facets
	if err := json.NewDecoder(rec.Body).Decode(&facets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facets.Methods) != 2 {
		t.Errorf("expected 2 methods, got %v", facets.Methods)
	}
}

func TestDeleteDataset(t *testing.T) {
	f := newFixture(t, false)
	ds := uploadDataset(t, f)

	req := httptest.NewRequest(http.MethodDelete, "/v1/datasets/"+ds.ID, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID, nil)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestSessionAuth(t *testing.T) {
	f := newFixture(t, true)

	// No token: rejected.
	req := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Issue a session.
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 issuing session, got %d: %s", rec.Code, rec.Body)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	// With token: accepted.
	req = httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d: %s", rec.Code, rec.Body)
	}
}

func TestSessionScoping(t *testing.T) {
	f := newFixture(t, true)

	issue := func() string {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		var session struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		return session.Token
	}

	tokenA := issue()
	tokenB := issue()

	buf, contentType := multipartUpload(t, "a.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", rec.Code)
	}
	var ds domain.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}

	// Session B must not see session A's dataset.
	req = httptest.NewRequest(http.MethodGet, "/v1/datasets/"+ds.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenB)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 across sessions, got %d", rec.Code)
	}
}
