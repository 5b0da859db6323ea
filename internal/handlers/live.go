package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"vibecheck/internal/live"
	"vibecheck/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveHandler upgrades view subscriptions to websockets. Each
// subscriber receives the current snapshot immediately and a fresh one
// after every ledger mutation; closing the socket tears the
// subscription down.
type LiveHandler struct {
	hub   *live.Hub
	views *services.Views
}

func NewLiveHandler(hub *live.Hub, views *services.Views) *LiveHandler {
	return &LiveHandler{hub: hub, views: views}
}

func (h *LiveHandler) Gallery(c *gin.Context) {
	h.subscribe(c, services.TopicGallery)
}

func (h *LiveHandler) Leaderboard(c *gin.Context) {
	h.subscribe(c, services.TopicLeaderboard)
}

func (h *LiveHandler) subscribe(c *gin.Context, topic string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}

	initial, err := h.snapshot(c, topic)
	if err != nil {
		log.Printf("live: initial %s snapshot failed: %v", topic, err)
	}
	live.NewClient(h.hub, conn, topic, initial)
}

func (h *LiveHandler) snapshot(c *gin.Context, topic string) ([]byte, error) {
	var data interface{}
	var err error
	switch topic {
	case services.TopicLeaderboard:
		data, err = h.views.Leaderboard(c.Request.Context(), services.LeaderboardLimit)
	default:
		data, err = h.views.Gallery(c.Request.Context())
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(live.Message{Topic: topic, Data: data, Timestamp: time.Now()})
}
