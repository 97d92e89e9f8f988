package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanzanog/market-snapshot/internal/application"
	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// --- Mock Services ---

type MockSnapshotService struct {
	snapshotFunc func(ctx context.Context) (domain.Snapshot, error)
	calls        atomic.Int32
}

func (m *MockSnapshotService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	m.calls.Add(1)
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx)
	}
	return sampleSnapshot(), nil
}

type MockInstrumentService struct {
	searchFunc  func(ctx context.Context, keyword string) (*application.SearchResult, error)
	historyFunc func(ctx context.Context, code string) (domain.PriceSeries, error)
}

func (m *MockInstrumentService) Search(ctx context.Context, keyword string) (*application.SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, keyword)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *MockInstrumentService) History(ctx context.Context, code string) (domain.PriceSeries, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, code)
	}
	return domain.PriceSeries{}, fmt.Errorf("not implemented")
}

// --- Helpers ---

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func sampleSnapshot() domain.Snapshot {
	return domain.NewSnapshot([]domain.SnapshotGroup{
		{
			Name: "fx",
			Records: []domain.QuoteRecord{
				domain.NewQuoteRecord("USD/KRW", "1,380.50", ""),
				domain.PlaceholderRecord("JPY/100KRW"),
			},
		},
	})
}

func decimalOf(t *testing.T, s string) domain.Decimal {
	t.Helper()
	d, err := domain.NewDecimalFromString(s)
	require.NoError(t, err)
	return d
}

func setupRouter(snapshots SnapshotService, instruments InstrumentService) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, NewHandler(snapshots, instruments, application.NewSnapshotTicker(snapshots)))
	return router
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestHandler_Health(t *testing.T) {
	w := serve(setupRouter(&MockSnapshotService{}, &MockInstrumentService{}), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_GetSnapshot(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		w := serve(setupRouter(&MockSnapshotService{}, &MockInstrumentService{}), "/api/v1/snapshot")

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.Groups, 1)
		assert.Equal(t, "fx", got.Groups[0].Name)
		assert.Equal(t, "1,380.50", got.Groups[0].Records[0].Value)
		assert.Equal(t, domain.Placeholder, got.Groups[0].Records[1].Value)
	})

	t.Run("Cancelled", func(t *testing.T) {
		snapshots := &MockSnapshotService{
			snapshotFunc: func(ctx context.Context) (domain.Snapshot, error) {
				return domain.Snapshot{}, context.Canceled
			},
		}

		w := serve(setupRouter(snapshots, &MockInstrumentService{}), "/api/v1/snapshot")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandler_GetSnapshotGroup(t *testing.T) {
	router := setupRouter(&MockSnapshotService{}, &MockInstrumentService{})

	t.Run("Whole group", func(t *testing.T) {
		w := serve(router, "/api/v1/snapshot/groups/fx")

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.SnapshotGroup
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "fx", got.Name)
		assert.Len(t, got.Records, 2)
	})

	t.Run("Single record", func(t *testing.T) {
		w := serve(router, "/api/v1/snapshot/groups/fx?label=JPY/100KRW")

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.QuoteRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "JPY/100KRW", got.Label)
		assert.True(t, got.IsPlaceholder())
	})

	t.Run("Unknown group", func(t *testing.T) {
		w := serve(router, "/api/v1/snapshot/groups/crypto")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "crypto")
	})

	t.Run("Unknown label", func(t *testing.T) {
		w := serve(router, "/api/v1/snapshot/groups/fx?label=GBP/KRW")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Snapshot failure", func(t *testing.T) {
		snapshots := &MockSnapshotService{
			snapshotFunc: func(ctx context.Context) (domain.Snapshot, error) {
				return domain.Snapshot{}, context.DeadlineExceeded
			},
		}

		w := serve(setupRouter(snapshots, &MockInstrumentService{}), "/api/v1/snapshot/groups/fx")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandler_SearchInstrument(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"Not found", fmt.Errorf("no instrument matches: %w", domain.ErrNotFound), http.StatusNotFound, `{"error":"instrument not found"}`},
		{"Empty keyword", domain.ErrEmptyKeyword, http.StatusBadRequest, `{"error":"search keyword is required"}`},
		{"Upstream timeout", domain.NewFetchError("yfinance", domain.ErrTimeout, nil), http.StatusGatewayTimeout, ""},
		{"Upstream network", domain.NewFetchError("yfinance", domain.ErrNetwork, errors.New("503")), http.StatusBadGateway, ""},
		{"Unexpected", errors.New("boom"), http.StatusInternalServerError, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instruments := &MockInstrumentService{
				searchFunc: func(ctx context.Context, keyword string) (*application.SearchResult, error) {
					return nil, tt.err
				},
			}

			w := serve(setupRouter(&MockSnapshotService{}, instruments), "/api/v1/instruments/search?q=x")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}

	t.Run("Success", func(t *testing.T) {
		instruments := &MockInstrumentService{
			searchFunc: func(ctx context.Context, keyword string) (*application.SearchResult, error) {
				assert.Equal(t, "삼성", keyword)
				return &application.SearchResult{
					Instrument: domain.NewInstrument("005930", "삼성전자", "KOSPI"),
					Value:      "72,500.00",
					Change:     "+1500.00 (+2.11%)",
				}, nil
			},
		}

		w := serve(setupRouter(&MockSnapshotService{}, instruments), "/api/v1/instruments/search?q=%EC%82%BC%EC%84%B1")

		require.Equal(t, http.StatusOK, w.Code)
		var got application.SearchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "005930", got.Instrument.Code)
		assert.Equal(t, "72,500.00", got.Value)
		assert.Equal(t, "+1500.00 (+2.11%)", got.Change)
	})
}

func TestHandler_GetHistory(t *testing.T) {
	t.Run("Success with delta", func(t *testing.T) {
		instruments := &MockInstrumentService{
			historyFunc: func(ctx context.Context, code string) (domain.PriceSeries, error) {
				assert.Equal(t, "005930", code)
				return domain.NewPriceSeries(code, []domain.PricePoint{
					{Date: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), Close: decimalOf(t, "71000")},
					{Date: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Close: decimalOf(t, "72500")},
				}), nil
			},
		}

		w := serve(setupRouter(&MockSnapshotService{}, instruments), "/api/v1/instruments/005930/history")

		require.Equal(t, http.StatusOK, w.Code)
		var got HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 2, got.Series.Len())
		assert.Equal(t, "72,500.00", got.Value)
		assert.Equal(t, "+1500.00 (+2.11%)", got.Change)
		assert.NotNil(t, got.Delta)
	})

	t.Run("Single point keeps placeholders", func(t *testing.T) {
		instruments := &MockInstrumentService{
			historyFunc: func(ctx context.Context, code string) (domain.PriceSeries, error) {
				return domain.NewPriceSeries(code, []domain.PricePoint{
					{Date: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Close: decimalOf(t, "100")},
				}), nil
			},
		}

		w := serve(setupRouter(&MockSnapshotService{}, instruments), "/api/v1/instruments/035720/history")

		require.Equal(t, http.StatusOK, w.Code)
		var got HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, domain.Placeholder, got.Value)
		assert.Nil(t, got.Delta)
	})

	t.Run("Unknown code", func(t *testing.T) {
		instruments := &MockInstrumentService{
			historyFunc: func(ctx context.Context, code string) (domain.PriceSeries, error) {
				return domain.PriceSeries{}, domain.NewFetchError("yfinance", domain.ErrNotFound, nil)
			},
		}

		w := serve(setupRouter(&MockSnapshotService{}, instruments), "/api/v1/instruments/ZZZ/history")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_ListRefreshIntervals(t *testing.T) {
	w := serve(setupRouter(&MockSnapshotService{}, &MockInstrumentService{}), "/api/v1/refresh-intervals")

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.RefreshInterval
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.RefreshIntervals, got)
}

func TestHandler_StreamSnapshots(t *testing.T) {
	dial := func(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/snapshot/stream" + query
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	t.Run("Off sends one snapshot then closes", func(t *testing.T) {
		snapshots := &MockSnapshotService{}
		server := httptest.NewServer(setupRouter(snapshots, &MockInstrumentService{}))
		defer server.Close()

		conn := dial(t, server, "?interval=off")
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var got domain.Snapshot
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "fx", got.Groups[0].Name)

		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
		assert.Equal(t, int32(1), snapshots.calls.Load())
	})

	t.Run("Interval keeps sending", func(t *testing.T) {
		server := httptest.NewServer(setupRouter(&MockSnapshotService{}, &MockInstrumentService{}))
		defer server.Close()

		conn := dial(t, server, "?interval=10s")
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		// The first snapshot is sent immediately on connect.
		var got domain.Snapshot
		require.NoError(t, conn.ReadJSON(&got))
		assert.NotEmpty(t, got.ID)

		_ = conn.Close()
	})

	t.Run("Invalid interval is rejected before upgrade", func(t *testing.T) {
		w := serve(setupRouter(&MockSnapshotService{}, &MockInstrumentService{}), "/api/v1/snapshot/stream?interval=5m")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid refresh interval")
	})
}
