package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appbidding "github.com/bidhub/backend/internal/application/bidding"
	appcatalog "github.com/bidhub/backend/internal/application/catalog"
	"github.com/bidhub/backend/internal/application/catalogsync"
	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/scheduler"
	"github.com/bidhub/backend/internal/interfaces/http/dto"
	"github.com/bidhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type MockCatalogQueries struct {
	mock.Mock
}

func (m *MockCatalogQueries) GetCatalogPage(ctx context.Context, query appcatalog.PageQuery) (shared.Paginated[appcatalog.CatalogListItemResponse], error) {
	args := m.Called(ctx, query)
	return args.Get(0).(shared.Paginated[appcatalog.CatalogListItemResponse]), args.Error(1)
}

func (m *MockCatalogQueries) SearchCatalog(ctx context.Context, req appcatalog.SearchCatalogRequest) (shared.Paginated[appcatalog.CatalogListItemResponse], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(shared.Paginated[appcatalog.CatalogListItemResponse]), args.Error(1)
}

func (m *MockCatalogQueries) GetCatalogItem(ctx context.Context, naturalKey string) (*appcatalog.CatalogItemResponse, error) {
	args := m.Called(ctx, naturalKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.CatalogItemResponse), args.Error(1)
}

func (m *MockCatalogQueries) GetFloor(ctx context.Context, naturalKey string) (*appcatalog.FloorResponse, error) {
	args := m.Called(ctx, naturalKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.FloorResponse), args.Error(1)
}

type MockBidService struct {
	mock.Mock
}

func (m *MockBidService) PlaceBid(ctx context.Context, bidderID string, req appbidding.PlaceBidRequest) (*appbidding.BidResponse, error) {
	args := m.Called(ctx, bidderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbidding.BidResponse), args.Error(1)
}

func (m *MockBidService) ListItemBids(ctx context.Context, naturalKey string, page shared.PageRequest) (shared.Paginated[appbidding.BidResponse], error) {
	args := m.Called(ctx, naturalKey, page)
	return args.Get(0).(shared.Paginated[appbidding.BidResponse]), args.Error(1)
}

func (m *MockBidService) RegisterBidder(ctx context.Context, req appbidding.RegisterBidderRequest) (*appbidding.BidderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbidding.BidderResponse), args.Error(1)
}

func (m *MockBidService) GetBidder(ctx context.Context, id string) (*appbidding.BidderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbidding.BidderResponse), args.Error(1)
}

type MockSyncController struct {
	mock.Mock
}

func (m *MockSyncController) TriggerManualSync() error {
	return m.Called().Error(0)
}

func (m *MockSyncController) Status() scheduler.SyncStatus {
	return m.Called().Get(0).(scheduler.SyncStatus)
}

func (m *MockSyncController) History(limit int) []*catalogsync.RunReport {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*catalogsync.RunReport)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// detailMap decodes object details, as written for bid rejections
func (e envelope) detailMap(t *testing.T) map[string]any {
	t.Helper()
	require.NotNil(t, e.Error)
	var details map[string]any
	require.NoError(t, json.Unmarshal(e.Error.Details, &details), string(e.Error.Details))
	return details
}

// invalidFields decodes list details, as written for validation failures
func (e envelope) invalidFields(t *testing.T) []string {
	t.Helper()
	require.NotNil(t, e.Error)
	var details []dto.ValidationDetail
	require.NoError(t, json.Unmarshal(e.Error.Details, &details), string(e.Error.Details))
	fields := make([]string, 0, len(details))
	for _, d := range details {
		assert.NotEmpty(t, d.Message)
		fields = append(fields, d.Field)
	}
	return fields
}

func newEngine(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	// Stand-in for BidderIdentity
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Bidder-ID"); id != "" {
			c.Set(middleware.BidderIDKey, id)
		}
	})
	for _, reg := range registrars {
		reg.RegisterRoutes(&r.RouterGroup)
	}
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func int64Ptr(v int64) *int64 { return &v }

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestCatalogHandler_ListItems(t *testing.T) {
	svc := new(MockCatalogQueries)
	svc.On("GetCatalogPage", mock.Anything, appcatalog.PageQuery{Page: 2, PageSize: 10}).
		Return(shared.NewPaginated([]appcatalog.CatalogListItemResponse{{NaturalKey: "A", Status: "open"}}, 11, 2, 10), nil)

	w, env := do(t, newEngine(NewCatalogHandler(svc, nil)), http.MethodGet, "/catalog/items?page=2&page_size=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(11), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
	assert.JSONEq(t, `[{"natural_key":"A","title":"","issuing_method":"","floor_price":null,"initial_floor_from":null,"announcement_at":null,"closes_at":null,"status":"open"}]`, string(env.Data))
	svc.AssertExpectations(t)
}

func TestCatalogHandler_ListItems_InvalidPageSize(t *testing.T) {
	w, env := do(t, newEngine(NewCatalogHandler(new(MockCatalogQueries), nil)), http.MethodGet, "/catalog/items?page_size=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, []string{"page_size"}, env.invalidFields(t))
}

func TestCatalogHandler_SearchItems(t *testing.T) {
	svc := new(MockCatalogQueries)
	svc.On("SearchCatalog", mock.Anything, mock.MatchedBy(func(req appcatalog.SearchCatalogRequest) bool {
		return req.Title == "apt" && *req.PriceFrom == 100 && req.PriceTo == nil && req.ClosesUntil == "20240701000000" &&
			req.Province == "Seoul" && req.District == "Mapo-gu" && req.Neighborhood == "" &&
			*req.AppraisedFrom == 50 && *req.AppraisedTo == 900
	})).Return(shared.NewPaginated[appcatalog.CatalogListItemResponse](nil, 0, 1, 20), nil)
	r := newEngine(NewCatalogHandler(svc, nil))

	w, env := do(t, r, http.MethodGet,
		"/catalog/items/search?title=apt&price_from=100&closes_until=20240701000000&sido=Seoul&sgk=Mapo-gu&appraised_from=50&appraised_to=900", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
	svc.AssertExpectations(t)

	w, env = do(t, r, http.MethodGet, "/catalog/items/search?appraised_from=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, []string{"appraised_from"}, env.invalidFields(t))
}

func TestCatalogHandler_GetItem(t *testing.T) {
	svc := new(MockCatalogQueries)
	svc.On("GetCatalogItem", mock.Anything, "2024-0001").
		Return(&appcatalog.CatalogItemResponse{NaturalKey: "2024-0001", Active: false}, nil)
	svc.On("GetCatalogItem", mock.Anything, "missing").Return(nil, appcatalog.ErrItemNotFound)
	svc.On("GetCatalogItem", mock.Anything, "broken").Return(nil, errors.New("connection reset"))
	r := newEngine(NewCatalogHandler(svc, nil))

	w, _ := do(t, r, http.MethodGet, "/catalog/items/2024-0001", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/catalog/items/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/catalog/items/broken", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "connection reset")
}

func TestCatalogHandler_FloorAndBids(t *testing.T) {
	svc := new(MockCatalogQueries)
	bids := new(MockBidService)
	svc.On("GetFloor", mock.Anything, "K").
		Return(&appcatalog.FloorResponse{NaturalKey: "K", FloorPrice: int64Ptr(5000), Source: appcatalog.FloorSourceBoard}, nil)
	bids.On("ListItemBids", mock.Anything, "K", shared.PageRequest{Page: 1, PageSize: shared.DefaultPageSize}).
		Return(shared.NewPaginated([]appbidding.BidResponse{{NaturalKey: "K", Price: 5000}}, 1, 1, shared.DefaultPageSize), nil)
	bids.On("ListItemBids", mock.Anything, "NOPE", mock.Anything).
		Return(shared.Paginated[appbidding.BidResponse]{}, bidding.NewItemNotFound("NOPE"))
	r := newEngine(NewCatalogHandler(svc, bids))

	w, env := do(t, r, http.MethodGet, "/catalog/items/K/floor", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"source":"board"`)

	w, env = do(t, r, http.MethodGet, "/catalog/items/K/bids", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = do(t, r, http.MethodGet, "/catalog/items/NOPE/bids", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", env.Error.Code)
}

// ---------------------------------------------------------------------------
// Bids
// ---------------------------------------------------------------------------

func TestBidHandler_PlaceBid(t *testing.T) {
	accepted := &appbidding.BidResponse{NaturalKey: "K", BidderID: "b-1", Price: 6000, NewFloor: 6000, AcceptedAt: time.Now()}

	tests := []struct {
		name        string
		body        string
		setup       func(m *MockBidService)
		wantStatus  int
		wantCode    string
		wantDetails map[string]any
		wantFields  []string
	}{
		{
			name: "accepted",
			body: `{"natural_key":"K","price":6000}`,
			setup: func(m *MockBidService) {
				m.On("PlaceBid", mock.Anything, "b-1", appbidding.PlaceBidRequest{NaturalKey: "K", Price: 6000}).Return(accepted, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "below current floor",
			body: `{"natural_key":"K","price":5000}`,
			setup: func(m *MockBidService) {
				m.On("PlaceBid", mock.Anything, "b-1", mock.Anything).Return(nil, bidding.NewBelowCurrentFloor(5000, 5000))
			},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "BELOW_CURRENT_FLOOR",
			wantDetails: map[string]any{"current_floor": float64(5000)},
		},
		{
			name: "window closed",
			body: `{"natural_key":"K","price":7000}`,
			setup: func(m *MockBidService) {
				m.On("PlaceBid", mock.Anything, "b-1", mock.Anything).Return(nil, bidding.NewWindowNotOpen(bidding.PhaseAlreadyClosed))
			},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "WINDOW_NOT_OPEN",
			wantDetails: map[string]any{"phase": "already_closed"},
		},
		{
			name: "unknown bidder",
			body: `{"natural_key":"K","price":7000}`,
			setup: func(m *MockBidService) {
				m.On("PlaceBid", mock.Anything, "b-1", mock.Anything).Return(nil, bidding.NewBidderNotFound("b-1"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "BIDDER_NOT_FOUND",
		},
		{
			name:       "missing natural key",
			body:       `{"price":7000}`,
			setup:      func(m *MockBidService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantFields: []string{"natural_key"},
		},
		{
			name:       "malformed json",
			body:       `{"natural_key":`,
			setup:      func(m *MockBidService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBidService)
			tt.setup(svc)

			w, env := do(t, newEngine(NewBidHandler(svc)), http.MethodPost, "/bids", tt.body, "X-Bidder-ID", "b-1")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.True(t, env.Success)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.wantDetails != nil {
				details := env.detailMap(t)
				for k, v := range tt.wantDetails {
					assert.Equal(t, v, details[k])
				}
			}
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, env.invalidFields(t))
			}
			svc.AssertExpectations(t)
		})
	}
}

// ---------------------------------------------------------------------------
// Bidders
// ---------------------------------------------------------------------------

func TestBidderHandler(t *testing.T) {
	svc := new(MockBidService)
	svc.On("RegisterBidder", mock.Anything, appbidding.RegisterBidderRequest{ID: "b-1", DisplayName: "Kim"}).
		Return(&appbidding.BidderResponse{ID: "b-1", DisplayName: "Kim", Active: true}, nil)
	svc.On("GetBidder", mock.Anything, "ghost").Return(nil, bidding.NewBidderNotFound("ghost"))
	r := newEngine(NewBidderHandler(svc))

	w, env := do(t, r, http.MethodPost, "/bidders", `{"id":"b-1","display_name":"Kim"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"active":true`)

	w, env = do(t, r, http.MethodPost, "/bidders", `{"display_name":"Kim"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, []string{"id"}, env.invalidFields(t))

	w, env = do(t, r, http.MethodGet, "/bidders/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BIDDER_NOT_FOUND", env.Error.Code)
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

func TestSyncHandler_TriggerFullSync(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"accepted", nil, http.StatusAccepted, ""},
		{"in flight", scheduler.ErrSyncInProgress, http.StatusConflict, "SYNC_IN_PROGRESS"},
		{"stopped", scheduler.ErrSchedulerNotRunning, http.StatusServiceUnavailable, "SCHEDULER_NOT_RUNNING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := new(MockSyncController)
			ctrl.On("TriggerManualSync").Return(tt.err)
			ctrl.On("Status").Return(scheduler.SyncStatus{Running: true, State: "full_sync", InFlight: true}).Maybe()

			w, env := do(t, newEngine(NewSyncHandler(ctrl)), http.MethodPost, "/sync/full", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, env.Error.Code)
			} else {
				assert.Contains(t, string(env.Data), `"in_flight":true`)
			}
		})
	}
}

func TestSyncHandler_StatusAndRuns(t *testing.T) {
	ctrl := new(MockSyncController)
	ctrl.On("Status").Return(scheduler.SyncStatus{Running: true, State: "idle"})
	ctrl.On("History", defaultRunHistoryLimit).Return(nil)
	ctrl.On("History", 5).Return([]*catalogsync.RunReport{{Mode: catalogsync.ModeFull, Status: catalogsync.RunStatusSucceeded}})
	r := newEngine(NewSyncHandler(ctrl))

	w, env := do(t, r, http.MethodGet, "/sync/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"state":"idle"`)

	w, env = do(t, r, http.MethodGet, "/sync/runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = do(t, r, http.MethodGet, "/sync/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"succeeded"`)

	w, _ = do(t, r, http.MethodGet, "/sync/runs?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealthHandler(t *testing.T) {
	ctrl := new(MockSyncController)
	ctrl.On("Status").Return(scheduler.SyncStatus{State: "fast_sync"})

	healthy := newEngine(NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), ctrl, "test"))
	w, env := do(t, healthy, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"sync_state":"fast_sync"`)

	down := newEngine(NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("down") }), nil, "test"))
	w, env = do(t, down, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, string(env.Data), `"database":"unreachable"`)
}
