package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/parkconsole/internal/models"
	"github.com/langchou/parkconsole/internal/service"
	"github.com/langchou/parkconsole/pkg/ws"
)

type fakeSource struct {
	snap     *models.Snapshot
	failures []models.CycleFailure
	status   service.Status
}

func (f *fakeSource) Current() *models.Snapshot       { return f.snap }
func (f *fakeSource) Failures() []models.CycleFailure { return f.failures }
func (f *fakeSource) Status() service.Status          { return f.status }

type fakeHistory struct {
	recent   []*models.CycleFailure // 按时间倒序
	total    int64
	err      error
	gotLimit int
}

func (f *fakeHistory) ListRecent(ctx context.Context, limit int) ([]*models.CycleFailure, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeHistory) Count(ctx context.Context) (int64, error) {
	return f.total, f.err
}

func plate(s string) *string { return &s }

func newTestRouter(t *testing.T, src *fakeSource) *gin.Engine {
	t.Helper()
	return newTestRouterWithHistory(t, src, nil)
}

func newTestRouterWithHistory(t *testing.T, src *fakeSource, history FailureHistory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := ws.NewHub(zap.NewNop())
	h := NewHandler(zap.NewNop(), src, hub)
	if history != nil {
		h.SetFailureHistory(history)
	}
	return NewRouter(true, h)
}

type diagnosticsResponse struct {
	Data   []models.CycleFailure `json:"data"`
	Total  int                   `json:"total"`
	Source string                `json:"source"`
}

func getDiagnostics(t *testing.T, router *gin.Engine, query string) diagnosticsResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics"+query, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/diagnostics%s: got status %d", query, w.Code)
	}
	var resp diagnosticsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func scenarioSource() *fakeSource {
	return &fakeSource{
		snap: &models.Snapshot{
			Timestamp: "2026-10-19T08:30:00.000Z",
			Vehicles:  []models.Vehicle{{ID: 1, LicensePlate: "ABC123"}},
			ParkingAreas: []models.ParkingArea{
				{ID: 5, ParkingType: "STALL"},
				{ID: 6, ParkingType: "STALL", LicensePlate: plate("XYZ789")},
				{ID: 7, ParkingType: "ROAD"},
			},
			Logs: []models.LogEntry{{ID: 9, Log: "car entered", Timestamp: "T0", Type: "INFO"}},
		},
		status: service.Status{
			State:               "running",
			StateSince:          time.Date(2026, 10, 19, 8, 29, 0, 0, time.UTC),
			Generation:          3,
			PublishedGeneration: 3,
		},
	}
}

func TestConsolePageRendersPanels(t *testing.T) {
	router := newTestRouter(t, scenarioSource())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /: got status %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Parking Monitoring System",
		"License Plate: ABC123",
		"Type: STALL",
		`class="text-green-500"`,
		`class="text-red-500">License Plate: XYZ789`,
		"Message: car entered",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("GET /: body missing %q", want)
		}
	}
	if strings.Contains(body, "Type: ROAD") {
		t.Error("GET /: administrative zone rendered")
	}
}

func TestConsolePageEmptySentinels(t *testing.T) {
	router := newTestRouter(t, &fakeSource{snap: models.EmptySnapshot()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	for _, want := range []string{"No cars found.", "No parking areas found.", "No logs available at this time."} {
		if !strings.Contains(body, want) {
			t.Errorf("GET /: body missing %q", want)
		}
	}
}

func TestGetView(t *testing.T) {
	router := newTestRouter(t, scenarioSource())

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/view: got status %d", w.Code)
	}

	var resp struct {
		Data Console `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	v := resp.Data.View
	if len(v.VehicleRows) != 1 || v.VehicleRows[0].LicensePlate != "ABC123" {
		t.Errorf("vehicle rows = %+v", v.VehicleRows)
	}
	if len(v.ParkingRows) != 2 {
		t.Fatalf("parking rows = %+v, want 2", v.ParkingRows)
	}
	if v.ParkingRows[0].Occupancy != "free" || v.ParkingRows[1].Occupancy != "occupied" {
		t.Errorf("occupancy = %q/%q", v.ParkingRows[0].Occupancy, v.ParkingRows[1].Occupancy)
	}
	if len(v.LogRows) != 1 || v.LogRows[0].Message != "car entered" {
		t.Errorf("log rows = %+v", v.LogRows)
	}
	if resp.Data.Status.Generation != 3 {
		t.Errorf("status = %+v", resp.Data.Status)
	}
}

func TestGetSnapshot(t *testing.T) {
	router := newTestRouter(t, scenarioSource())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Data models.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.ParkingAreas) != 3 {
		t.Errorf("snapshot areas = %d, want 3 (unfiltered)", len(resp.Data.ParkingAreas))
	}
	if resp.Data.ParkingAreas[0].LicensePlate != nil {
		t.Error("null plate should stay null")
	}
}

func TestListDiagnostics(t *testing.T) {
	src := scenarioSource()
	now := time.Now()
	src.failures = []models.CycleFailure{
		{ID: "a", Generation: 1, Kind: "transport", OccurredAt: now},
		{ID: "b", Generation: 2, Kind: "status", Endpoint: "/get_parking_data", StatusCode: 500, OccurredAt: now},
	}
	router := newTestRouter(t, src)

	resp := getDiagnostics(t, router, "?limit=1")
	if len(resp.Data) != 1 || resp.Data[0].ID != "b" {
		t.Errorf("diagnostics = %+v, want latest only", resp)
	}
	if resp.Total != 2 || resp.Source != "memory" {
		t.Errorf("total/source = %d/%q, want 2/memory", resp.Total, resp.Source)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics?limit=x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid limit: got status %d, want 400", w.Code)
	}
}

func TestListDiagnosticsFromJournal(t *testing.T) {
	now := time.Now()
	history := &fakeHistory{
		recent: []*models.CycleFailure{
			{ID: "c", Generation: 7, Kind: "parse", OccurredAt: now},
			{ID: "b", Generation: 6, Kind: "status", OccurredAt: now.Add(-time.Second)},
			{ID: "a", Generation: 5, Kind: "transport", OccurredAt: now.Add(-2 * time.Second)},
		},
		total: 120,
	}
	router := newTestRouterWithHistory(t, scenarioSource(), history)

	resp := getDiagnostics(t, router, "?limit=2")
	if history.gotLimit != 2 {
		t.Errorf("ListRecent limit = %d, want 2", history.gotLimit)
	}
	if resp.Source != "journal" || resp.Total != 120 {
		t.Errorf("total/source = %d/%q, want 120/journal", resp.Total, resp.Source)
	}
	if len(resp.Data) != 2 || resp.Data[0].ID != "b" || resp.Data[1].ID != "c" {
		t.Errorf("data = %+v, want [b c] in chronological order", resp.Data)
	}

	getDiagnostics(t, router, "")
	if history.gotLimit != defaultDiagnosticsLimit {
		t.Errorf("default ListRecent limit = %d, want %d", history.gotLimit, defaultDiagnosticsLimit)
	}
}

func TestListDiagnosticsJournalFallback(t *testing.T) {
	src := scenarioSource()
	src.failures = []models.CycleFailure{{ID: "mem", Generation: 4, Kind: "transport"}}
	history := &fakeHistory{err: errors.New("connection refused")}
	router := newTestRouterWithHistory(t, src, history)

	resp := getDiagnostics(t, router, "")
	if resp.Source != "memory" || resp.Total != 1 || resp.Data[0].ID != "mem" {
		t.Errorf("diagnostics = %+v, want in-memory fallback", resp)
	}
}

func TestStaleBannerRendered(t *testing.T) {
	src := scenarioSource()
	src.status.Stale = true
	src.status.LastFailure = &models.CycleFailure{ID: "x", Kind: "status", Endpoint: "/get_parking_data"}
	router := newTestRouter(t, src)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `id="banner" class="visible"`) {
		t.Error("stale banner not visible")
	}
	if !strings.Contains(body, "Last update failed (status /get_parking_data)") {
		t.Error("banner text missing failure details")
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, scenarioSource())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" || resp["poller"] != "running" {
		t.Errorf("health = %v", resp)
	}
	if resp["ws_clients"] != float64(0) {
		t.Errorf("ws_clients = %v, want 0", resp["ws_clients"])
	}
	if resp["state_since"] != "2026-10-19T08:29:00Z" {
		t.Errorf("state_since = %v", resp["state_since"])
	}
}

func TestConsolePageScrollsLogsOnInit(t *testing.T) {
	router := newTestRouter(t, scenarioSource())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	initCase := strings.Index(body, `case "init":`)
	if initCase < 0 {
		t.Fatal("console script has no init handler")
	}
	next := strings.Index(body[initCase:], "break;")
	if next < 0 || !strings.Contains(body[initCase:initCase+next], `scrollLogs("auto")`) {
		t.Error("init handler does not scroll the log panel")
	}
}
