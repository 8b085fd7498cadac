package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"appointment-booking-server/internal/models"
)

type gaugeSpy struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeSpy) SetStreamClients(n int) {
	g.mu.Lock()
	g.last = n
	g.mu.Unlock()
}

func (g *gaugeSpy) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func startHub(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, r.URL.Query().Get("user")); err != nil {
			t.Logf("serve: %v", err)
		}
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.Clients(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	gauge := &gaugeSpy{}
	hub, srv := startHub(t, WithGauge(gauge))

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	waitForClients(t, hub, 2)
	if gauge.value() != 2 {
		t.Fatalf("gauge = %d, want 2", gauge.value())
	}

	appt := &models.Appointment{Description: "checkup", Status: models.StatusConfirmed, PatientID: "alice", DoctorID: "doc"}
	appt.ID = "appt-1"
	hub.Publish("alice", models.AppointmentEvent{Type: models.EventStatusChanged, Appointment: appt, At: time.Now()})

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := alice.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got struct {
		Type        string `json:"type"`
		Appointment struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"appointment"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != string(models.EventStatusChanged) || got.Appointment.ID != "appt-1" || got.Appointment.Status != "CONFIRMED" {
		t.Fatalf("unexpected event %s", msg)
	}

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, msg, err := bob.ReadMessage(); err == nil {
		t.Fatalf("bob received %s", msg)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "alice")
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing to a user with no streams is a no-op.
	hub.Publish("alice", models.AppointmentEvent{Type: models.EventAppointmentSeen, At: time.Now()})
}

func TestRejectsForeignOrigin(t *testing.T) {
	_, srv := startHub(t, WithAllowedOrigin("http://localhost:3000"))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=alice"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected handshake to fail")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}
