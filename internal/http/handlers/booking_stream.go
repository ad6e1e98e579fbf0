package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// ChangeFeed lists bookings and streams changes to them.
type ChangeFeed interface {
	ListBookings(ctx context.Context, filter bookings.Filter) ([]bookings.Booking, error)
	Subscribe(ctx context.Context) (<-chan bookings.ChangeEvent, error)
}

type streamMessage struct {
	Type   string                `json:"type"`
	Change *bookings.ChangeEvent `json:"change,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// snapshotMessage always carries the bookings key, even when empty.
type snapshotMessage struct {
	Type     string             `json:"type"`
	Bookings []bookings.Booking `json:"bookings"`
}

type streamInbound struct {
	Type string `json:"type"`
}

// BookingStreamHandler pushes the booking collection and its changes to the
// admin UI over a websocket. Clients get a snapshot first, then one message
// per change. Clients may send {"type":"refresh"} for a new snapshot.
type BookingStreamHandler struct {
	feed   ChangeFeed
	logger *logging.Logger
	ping   time.Duration
}

func NewBookingStreamHandler(feed ChangeFeed, logger *logging.Logger) *BookingStreamHandler {
	if feed == nil {
		panic("handlers: change feed required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingStreamHandler{feed: feed, logger: logger, ping: 30 * time.Second}
}

// HandleWebSocket upgrades to WebSocket and streams booking changes.
func (h *BookingStreamHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Server{
		Handler: func(conn *websocket.Conn) { h.serveWS(conn, r) },
	}.ServeHTTP(w, r)
}

func (h *BookingStreamHandler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, err := h.feed.Subscribe(ctx)
	if err != nil {
		h.logger.Error("booking stream: subscribe failed", "error", err)
		_ = websocket.JSON.Send(conn, streamMessage{Type: "error", Error: "change feed unavailable"})
		return
	}
	if err := h.sendSnapshot(ctx, conn); err != nil {
		return
	}

	inbound := make(chan streamInbound)
	go func() {
		defer cancel()
		for {
			var msg streamInbound
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				h.logger.Debug("booking stream: connection closed", "error", err)
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	h.logger.Info("booking stream: connection opened", "remote_ip", r.RemoteAddr)
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, streamMessage{Type: "change", Change: &change}); err != nil {
				return
			}
		case msg := <-inbound:
			switch msg.Type {
			case "refresh":
				if err := h.sendSnapshot(ctx, conn); err != nil {
					return
				}
			case "ping":
				if err := websocket.JSON.Send(conn, streamMessage{Type: "pong"}); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := websocket.JSON.Send(conn, streamMessage{Type: "ping"}); err != nil {
				return
			}
		}
	}
}

func (h *BookingStreamHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	list, err := h.feed.ListBookings(ctx, bookings.Filter{})
	if err != nil {
		h.logger.Error("booking stream: snapshot failed", "error", err)
		_ = websocket.JSON.Send(conn, streamMessage{Type: "error", Error: "could not load bookings"})
		return err
	}
	if list == nil {
		list = []bookings.Booking{}
	}
	return websocket.JSON.Send(conn, snapshotMessage{Type: "snapshot", Bookings: list})
}
