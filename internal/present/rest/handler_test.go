package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/config"
	"github.com/herdline/herdline/internal/domain"
	"github.com/herdline/herdline/internal/usecase"
)

// --- mocks ---

type mockStore struct {
	reports map[herdline.Kind][]domain.Report
	created []domain.Report
}

func newMockStore() *mockStore {
	return &mockStore{reports: make(map[herdline.Kind][]domain.Report)}
}

func (m *mockStore) List(ctx context.Context, kind herdline.Kind) ([]domain.Report, error) {
	return m.reports[kind], nil
}

func (m *mockStore) Get(ctx context.Context, kind herdline.Kind, id string) (domain.Report, error) {
	for _, r := range m.reports[kind] {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Report{}, domain.NotFoundError{Resource: "report"}
}

func (m *mockStore) Create(ctx context.Context, kind herdline.Kind, report domain.Report) (domain.Report, error) {
	if report.ID == "" {
		report.ID = "generated"
	}
	report.Kind = kind
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	m.reports[kind] = append(m.reports[kind], report)
	m.created = append(m.created, report)
	return report, nil
}

func (m *mockStore) UpdateAcceptance(ctx context.Context, kind herdline.Kind, id string, accepted bool) (domain.Report, error) {
	for i, r := range m.reports[kind] {
		if r.ID == id {
			r.IsAccepted = accepted
			m.reports[kind][i] = r
			return r, nil
		}
	}
	return domain.Report{}, domain.NotFoundError{Resource: "report"}
}

func (m *mockStore) Subscribe(ctx context.Context, kind herdline.Kind, onSnapshot usecase.SnapshotFunc, onError usecase.ErrorFunc) (usecase.Unsubscribe, error) {
	return func() {}, nil
}

type mockResolver struct {
	address string
	called  bool
}

func (m *mockResolver) ResolveAddress(ctx context.Context, coords herdline.Coordinates) (string, error) {
	m.called = true
	return m.address, nil
}

func newTestServer(store *mockStore, resolver usecase.AddressResolver, initialize bool) (*echo.Echo, *usecase.FeedUsecase) {
	feed := usecase.NewFeedUsecase(store)
	if initialize {
		feed.Initialize(context.Background())
	}
	acceptance := usecase.NewAcceptanceUsecase(store, feed)

	h := NewHandler(config.Config{}, feed, usecase.NewProjector(), acceptance, store, resolver, nil)

	e := echo.New()
	h.RegisterRoutes(e)
	return e, feed
}

func seedReport(store *mockStore, kind herdline.Kind, id string, createdAt time.Time) {
	store.reports[kind] = append(store.reports[kind], domain.Report{
		ID:        id,
		Kind:      kind,
		Owner:     "owner-1",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
}

// --- tests ---

func TestHandleFeedUnavailableBeforeInitialize(t *testing.T) {
	e, _ := newTestServer(newMockStore(), nil, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", res.Code)
	}
}

func TestHandleFeedReturnsNewestFirst(t *testing.T) {
	store := newMockStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedReport(store, herdline.KindCasualty, "c1", base)
	seedReport(store, herdline.KindAdoption, "a1", base.Add(2*time.Hour))
	seedReport(store, herdline.KindGarbage, "g1", base.Add(time.Hour))

	e, _ := newTestServer(store, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var entries []struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	got := []string{}
	for _, entry := range entries {
		got = append(got, entry.Type+"-"+entry.Data.ID)
	}
	want := []string{"Adoption-a1", "Garbage-g1", "Casualty-c1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected order %v got %v", want, got)
	}
}

func TestHandleGetUnknownKind(t *testing.T) {
	e, _ := newTestServer(newMockStore(), nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/Sighting/x", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestHandleGetNotFound(t *testing.T) {
	e, _ := newTestServer(newMockStore(), nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/Casualty/missing", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestHandleGetResolvesAddress(t *testing.T) {
	store := newMockStore()
	location := herdline.EncodeLocation(herdline.Coordinates{Latitude: 12.34, Longitude: 56.78})
	store.reports[herdline.KindFlocking] = append(store.reports[herdline.KindFlocking], domain.Report{
		ID:       "f1",
		Kind:     herdline.KindFlocking,
		Location: &location,
	})

	resolver := &mockResolver{address: "1 Main St"}
	e, _ := newTestServer(store, resolver, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/Flocking/f1", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var detail struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if detail.Address != "1 Main St" {
		t.Fatalf("expected resolved address, got %q", detail.Address)
	}
	if !resolver.called {
		t.Fatalf("expected resolver to be invoked")
	}
}

func TestHandleGetPrefersManualAddress(t *testing.T) {
	store := newMockStore()
	location := herdline.EncodeLocation(herdline.Coordinates{Latitude: 12.34, Longitude: 56.78})
	manual := "Field behind the market"
	store.reports[herdline.KindGarbage] = append(store.reports[herdline.KindGarbage], domain.Report{
		ID:            "g1",
		Kind:          herdline.KindGarbage,
		Location:      &location,
		ManualAddress: &manual,
	})

	resolver := &mockResolver{address: "1 Main St"}
	e, _ := newTestServer(store, resolver, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/Garbage/g1", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	var detail struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if detail.Address != manual {
		t.Fatalf("expected manual address, got %q", detail.Address)
	}
	if resolver.called {
		t.Fatalf("resolver should not run when a manual address exists")
	}
}

func TestHandleCreateNormalizesLocation(t *testing.T) {
	store := newMockStore()
	e, feed := newTestServer(store, nil, true)

	body, _ := json.Marshal(map[string]any{
		"location": "12.34,56.78",
		"fields":   map[string]any{"description": "injured calf"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/Casualty", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", res.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one created report, got %d", len(store.created))
	}

	created := store.created[0]
	if created.Location == nil {
		t.Fatalf("expected location to be stored")
	}
	want := herdline.EncodeLocation(herdline.Coordinates{Latitude: 12.34, Longitude: 56.78})
	if *created.Location != want {
		t.Fatalf("expected normalized location %q got %q", want, *created.Location)
	}

	items := feed.Snapshot()
	if len(items) != 1 || items[0].Report.ID != created.ID {
		t.Fatalf("expected created report in feed, got %v", items)
	}
}

func TestHandleCreateRejectsBadLocation(t *testing.T) {
	store := newMockStore()
	e, _ := newTestServer(store, nil, true)

	body, _ := json.Marshal(map[string]any{"location": "not-a-location"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/Donation", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no report to be created")
	}
}

func TestHandleAcceptAndUnaccept(t *testing.T) {
	store := newMockStore()
	seedReport(store, herdline.KindAdoption, "a1", time.Now())

	e, _ := newTestServer(store, nil, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/Adoption/a1/accept", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var entry struct {
		Data struct {
			IsAccepted bool `json:"isAccepted"`
		} `json:"data"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !entry.Data.IsAccepted || entry.Status != "Accepted" {
		t.Fatalf("expected accepted report, got %+v", entry)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/reports/Adoption/a1/unaccept", nil)
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	if err := json.Unmarshal(res.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if entry.Data.IsAccepted || entry.Status != "Pending" {
		t.Fatalf("expected pending report, got %+v", entry)
	}
}

func TestHandleAcceptMissingReport(t *testing.T) {
	e, _ := newTestServer(newMockStore(), nil, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/Casualty/nope/accept", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	e, _ := newTestServer(newMockStore(), nil, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	if !bytes.Contains(res.Body.Bytes(), []byte(`"ok"`)) {
		t.Fatalf("expected ok status, got %s", res.Body.String())
	}
}
