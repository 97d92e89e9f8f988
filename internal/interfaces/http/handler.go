package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jmanzanog/market-snapshot/internal/application"
	"github.com/jmanzanog/market-snapshot/internal/domain"
)

const streamWriteTimeout = 10 * time.Second

// SnapshotService produces one snapshot per call.
type SnapshotService interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// InstrumentService resolves instruments and loads their price history.
type InstrumentService interface {
	Search(ctx context.Context, keyword string) (*application.SearchResult, error)
	History(ctx context.Context, code string) (domain.PriceSeries, error)
}

// SnapshotStreamer emits snapshots on a refresh interval until ctx ends.
type SnapshotStreamer interface {
	Run(ctx context.Context, interval domain.RefreshInterval, emit func(domain.Snapshot) error) error
}

type Handler struct {
	snapshots   SnapshotService
	instruments InstrumentService
	streamer    SnapshotStreamer
	upgrader    websocket.Upgrader
}

func NewHandler(snapshots SnapshotService, instruments InstrumentService, streamer SnapshotStreamer) *Handler {
	return &Handler{
		snapshots:   snapshots,
		instruments: instruments,
		streamer:    streamer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HistoryResponse struct {
	Series domain.PriceSeries `json:"series"`
	Value  string             `json:"value"`
	Change string             `json:"change"`
	Delta  *domain.Delta      `json:"delta,omitempty"`
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.snapshots.Snapshot(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to take snapshot", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSnapshotGroup returns one group of a fresh snapshot, or a single record
// of it when the label query parameter is set.
func (h *Handler) GetSnapshotGroup(c *gin.Context) {
	name := c.Param("name")

	snapshot, err := h.snapshots.Snapshot(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to take snapshot", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	group, ok := snapshot.Group(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown group %q", name)})
		return
	}

	label := c.Query("label")
	if label == "" {
		c.JSON(http.StatusOK, group)
		return
	}

	record, ok := group.Record(label)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no %q record in group %q", label, name)})
		return
	}
	c.JSON(http.StatusOK, record)
}

// StreamSnapshots upgrades to a WebSocket and pushes one snapshot per refresh
// interval. With interval "off" a single snapshot is sent and the socket is
// closed normally.
func (h *Handler) StreamSnapshots(c *gin.Context) {
	interval, err := domain.ParseRefreshInterval(c.Query("interval"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("Failed to close websocket", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The reader only watches for the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.InfoContext(ctx, "Snapshot stream opened", "interval", interval.Name)
	err = h.streamer.Run(ctx, interval, func(s domain.Snapshot) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(s)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot stream stopped", "error", err)
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (h *Handler) SearchInstrument(c *gin.Context) {
	keyword := c.Query("q")

	result, err := h.instruments.Search(c.Request.Context(), keyword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyKeyword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search keyword is required"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "instrument not found"})
		default:
			slog.ErrorContext(c.Request.Context(), "Failed to search instrument", "keyword", keyword, "error", err)
			c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHistory(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	series, err := h.instruments.History(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "instrument not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "Failed to load history", "code", code, "error", err)
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}

	resp := HistoryResponse{Series: series, Value: domain.Placeholder, Change: domain.Placeholder}
	if delta, err := series.LatestDelta(); err == nil {
		record, err := delta.Record(series.Code)
		if err == nil {
			resp.Value = record.Value
			resp.Change = record.Change
			resp.Delta = &delta
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListRefreshIntervals(c *gin.Context) {
	c.JSON(http.StatusOK, domain.RefreshIntervals)
}

// statusFor maps upstream failure kinds onto gateway statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
