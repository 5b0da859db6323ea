package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestHub wires a hub behind an httptest server and dials it,
// returning the subscriber connection.
func dialTestHub(t *testing.T, hub *Hub, topic string, initial []byte) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		NewClient(hub, conn, topic, initial)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", payload, err)
	}
	return msg
}

func TestInitialSnapshotDelivered(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	initial, _ := json.Marshal(Message{Topic: "gallery", Data: "snapshot"})
	conn := dialTestHub(t, hub, "gallery", initial)

	msg := readMessage(t, conn)
	if msg.Topic != "gallery" || msg.Data != "snapshot" {
		t.Fatalf("unexpected initial message: %+v", msg)
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestHub(t, hub, "leaderboard", nil)

	// Registration happens on the hub goroutine after the handshake.
	waitForSubscribers(t, hub, "leaderboard", 1)

	hub.Publish("leaderboard", "fresh")
	msg := readMessage(t, conn)
	if msg.Topic != "leaderboard" || msg.Data != "fresh" {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestHub(t, hub, "gallery", nil)
	waitForSubscribers(t, hub, "gallery", 1)

	hub.Publish("leaderboard", "elsewhere")
	hub.Publish("gallery", "here")

	msg := readMessage(t, conn)
	if msg.Data != "here" {
		t.Fatalf("received cross-topic message: %+v", msg)
	}
}

func TestCloseUnregisters(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestHub(t, hub, "gallery", nil)
	waitForSubscribers(t, hub, "gallery", 1)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitForSubscribers(t, hub, "gallery", 0)

	// Publishing with no subscribers must not block or panic.
	hub.Publish("gallery", "into the void")
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		got := len(hub.clients[topic])
		hub.mu.RUnlock()
		if got == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count for %s never reached %d", topic, want)
}
