package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

func dialStream(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	stream := NewBookingStreamHandler(h.manager, logging.New("error"))
	srv := httptest.NewServer(http.HandlerFunc(stream.HandleWebSocket))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type streamFrame struct {
	Type     string                `json:"type"`
	Bookings []bookings.Booking    `json:"bookings"`
	Change   *bookings.ChangeEvent `json:"change"`
	Error    string                `json:"error"`
}

func receive(t *testing.T, conn *websocket.Conn) streamFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg streamFrame
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	return msg
}

func TestBookingStreamEmptySnapshotKeepsBookingsKey(t *testing.T) {
	h := newHarness(t)
	conn := dialStream(t, h)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var raw map[string]json.RawMessage
	require.NoError(t, websocket.JSON.Receive(conn, &raw))
	assert.JSONEq(t, `"snapshot"`, string(raw["type"]))
	require.Contains(t, raw, "bookings")
	assert.JSONEq(t, `[]`, string(raw["bookings"]))
}

func TestBookingStreamSnapshotThenChanges(t *testing.T) {
	h := newHarness(t)
	existing := h.createBooking(t, validForm())

	conn := dialStream(t, h)
	snapshot := receive(t, conn)
	assert.Equal(t, "snapshot", snapshot.Type)
	require.Len(t, snapshot.Bookings, 1)
	assert.Equal(t, existing.ID, snapshot.Bookings[0].ID)

	_, err := h.manager.ConfirmBooking(t.Context(), existing.ID)
	require.NoError(t, err)

	change := receive(t, conn)
	assert.Equal(t, "change", change.Type)
	require.NotNil(t, change.Change)
	assert.Equal(t, bookings.ChangeUpdated, change.Change.Type)
	assert.Equal(t, bookings.StatusConfirmed, change.Change.Booking.Status)
}

func TestBookingStreamPingAndRefresh(t *testing.T) {
	h := newHarness(t)
	conn := dialStream(t, h)
	assert.Equal(t, "snapshot", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, streamInbound{Type: "ping"}))
	assert.Equal(t, "pong", receive(t, conn).Type)

	h.createBooking(t, validForm())
	assert.Equal(t, "change", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, streamInbound{Type: "refresh"}))
	refreshed := receive(t, conn)
	assert.Equal(t, "snapshot", refreshed.Type)
	assert.Len(t, refreshed.Bookings, 1)
}
