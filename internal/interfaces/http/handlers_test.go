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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/tour-confirmation/internal/application/service"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
)

type mockConfirmationService struct {
	PreviewChangesFunc  func(ctx context.Context, sheetID int64) (*service.ReconcileReport, error)
	RegenerateSheetFunc func(ctx context.Context, sheetID int64) (*service.ReconcileReport, error)
	ReconcileSheetFunc  func(ctx context.Context, sheetID int64) (*service.ReconcileReport, error)
}

func (m *mockConfirmationService) PreviewChanges(ctx context.Context, sheetID int64) (*service.ReconcileReport, error) {
	return m.PreviewChangesFunc(ctx, sheetID)
}

func (m *mockConfirmationService) RegenerateSheet(ctx context.Context, sheetID int64) (*service.ReconcileReport, error) {
	return m.RegenerateSheetFunc(ctx, sheetID)
}

func (m *mockConfirmationService) ReconcileSheet(ctx context.Context, sheetID int64) (*service.ReconcileReport, error) {
	return m.ReconcileSheetFunc(ctx, sheetID)
}

type mockItineraryService struct {
	SyncItineraryFunc func(ctx context.Context, quoteID int64, days []entity.ItineraryDay) (*service.ItinerarySyncReport, error)
}

func (m *mockItineraryService) SyncItinerary(ctx context.Context, quoteID int64, days []entity.ItineraryDay) (*service.ItinerarySyncReport, error) {
	return m.SyncItineraryFunc(ctx, quoteID, days)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestServer(cs service.ConfirmationService, is service.ItinerarySyncService) *Server {
	return NewServer(DefaultServerConfig(), cs, is, nopLogger{})
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		opts       []ServerOption
		wantCode   int
		wantStatus string
		wantDetail bool
	}{
		{name: "no checker", wantCode: http.StatusOK, wantStatus: "healthy"},
		{
			name: "healthy components",
			opts: []ServerOption{WithHealthCheck(func(context.Context) (bool, interface{}) {
				return true, map[string]string{"database": "ok"}
			})},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantDetail: true,
		},
		{
			name: "failing worker",
			opts: []ServerOption{WithHealthCheck(func(context.Context) (bool, interface{}) {
				return false, map[string]string{"worker.OutboxWorker": "stopped"}
			})},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantDetail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(DefaultServerConfig(), &mockConfirmationService{}, &mockItineraryService{}, nopLogger{}, tt.opts...)

			rec, resp := doRequest(t, s, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, resp.Success)

			data, ok := resp.Data.(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, data["status"])
			_, hasDetail := data["components"]
			assert.Equal(t, tt.wantDetail, hasDetail)
		})
	}
}

func TestSheetEndpoints(t *testing.T) {
	report := func(id int64) *service.ReconcileReport {
		return &service.ReconcileReport{SheetID: id, Inserted: 2, Counts: entity.ChangeCounts{New: 2}}
	}
	var called string
	cs := &mockConfirmationService{
		PreviewChangesFunc: func(_ context.Context, id int64) (*service.ReconcileReport, error) {
			called = "preview"
			r := report(id)
			r.DryRun = true
			return r, nil
		},
		RegenerateSheetFunc: func(_ context.Context, id int64) (*service.ReconcileReport, error) {
			called = "regenerate"
			return report(id), nil
		},
		ReconcileSheetFunc: func(_ context.Context, id int64) (*service.ReconcileReport, error) {
			called = "reconcile"
			return report(id), nil
		},
	}
	s := newTestServer(cs, &mockItineraryService{})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/sheets/5/changes", "preview"},
		{http.MethodPost, "/api/v1/sheets/5/regenerate", "regenerate"},
		{http.MethodPost, "/api/v1/sheets/5/reconcile", "reconcile"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec, resp := doRequest(t, s, tt.method, tt.path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.want, called)

			data := resp.Data.(map[string]interface{})
			assert.Equal(t, float64(5), data["sheet_id"])
			assert.Equal(t, float64(2), data["inserted"])
		})
	}
}

func TestRegenerateSheet_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"sheet not found", fmt.Errorf("%w: 5", service.ErrSheetNotFound), http.StatusNotFound},
		{"quote not found", fmt.Errorf("%w: 9", service.ErrQuoteNotFound), http.StatusNotFound},
		{"lock held", service.ErrLockNotObtained, http.StatusConflict},
		{"storage failure", errors.New("UNIQUE constraint failed: meal|8:abc cafe|5:lunch|2024-03-02"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := &mockConfirmationService{
				RegenerateSheetFunc: func(context.Context, int64) (*service.ReconcileReport, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(cs, &mockItineraryService{})

			rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/sheets/5/regenerate", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, "could not regenerate confirmation sheet", resp.Error)
			assert.NotContains(t, rec.Body.String(), "abc cafe")
		})
	}
}

func TestSheetEndpoints_InvalidID(t *testing.T) {
	s := newTestServer(&mockConfirmationService{}, &mockItineraryService{})

	for _, id := range []string{"abc", "0", "-3"} {
		rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/sheets/"+id+"/reconcile", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Equal(t, "invalid sheet ID", resp.Error)
	}
}

func TestSyncItinerary(t *testing.T) {
	var gotDays []entity.ItineraryDay
	is := &mockItineraryService{
		SyncItineraryFunc: func(_ context.Context, quoteID int64, days []entity.ItineraryDay) (*service.ItinerarySyncReport, error) {
			gotDays = days
			return &service.ItinerarySyncReport{QuoteID: quoteID, MealItems: 2, AccommodationItems: 1}, nil
		},
	}
	s := newTestServer(&mockConfirmationService{}, is)

	body := `{"days":[{"day":1,"lunch":"ABC\u0007 Cafe","hotel":"Hotel Nikko"},{"day":2,"breakfast":"hotel breakfast"}]}`
	rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/quotes/9/itinerary-sync", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	require.Len(t, gotDays, 2)
	assert.Equal(t, "ABC Cafe", gotDays[0].Lunch)
	assert.Equal(t, "Hotel Nikko", gotDays[0].Hotel)
}

func TestSyncItinerary_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"malformed body", `{"days":`, nil, http.StatusBadRequest, "invalid itinerary"},
		{"missing days", `{}`, nil, http.StatusBadRequest, "invalid itinerary"},
		{"day zero", `{"days":[{"day":0}]}`, nil, http.StatusBadRequest, "invalid itinerary"},
		{"duplicate days", `{"days":[{"day":1},{"day":1}]}`, fmt.Errorf("%w: day 1 repeated", service.ErrInvalidItinerary), http.StatusBadRequest, "could not sync itinerary"},
		{"quote missing", `{"days":[{"day":1}]}`, service.ErrQuoteNotFound, http.StatusNotFound, "could not sync itinerary"},
		{"lock held", `{"days":[{"day":1}]}`, service.ErrLockNotObtained, http.StatusConflict, "could not sync itinerary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := &mockItineraryService{
				SyncItineraryFunc: func(context.Context, int64, []entity.ItineraryDay) (*service.ItinerarySyncReport, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(&mockConfirmationService{}, is)

			rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/quotes/9/itinerary-sync", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}
