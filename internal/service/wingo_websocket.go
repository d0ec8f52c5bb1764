package service

import (
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var WingoWS *WingoWebsocketService

func init() {
	WingoWS = NewWingoWebsocketService()
}

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WingoWebsocketService pushes round lifecycle and balance-change events to
// connected players.
type WingoWebsocketService struct {
	connections      map[int64]*websocket.Conn
	lastActivityTime map[int64]time.Time
	mu               sync.Mutex
}

func NewWingoWebsocketService() *WingoWebsocketService {
	service := &WingoWebsocketService{
		connections:      make(map[int64]*websocket.Conn),
		lastActivityTime: make(map[int64]time.Time),
	}
	go service.cleanupInactiveConnections()
	return service
}

func (w *WingoWebsocketService) cleanupInactiveConnections() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		w.mu.Lock()
		now := time.Now()
		for userID, lastActivity := range w.lastActivityTime {
			if now.Sub(lastActivity) > 30*time.Minute {
				if conn, ok := w.connections[userID]; ok {
					conn.Close()
					delete(w.connections, userID)
					delete(w.lastActivityTime, userID)
				}
			}
		}
		w.mu.Unlock()
	}
}

func (w *WingoWebsocketService) LiveWingoWebsocketHandler(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("Error retrieving user ID: %v", err)
		c.Status(500)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	w.mu.Lock()
	w.connections[userID] = conn
	w.lastActivityTime[userID] = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.connections, userID)
		delete(w.lastActivityTime, userID)
		w.mu.Unlock()
		conn.Close()
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		w.mu.Lock()
		w.lastActivityTime[userID] = time.Now()
		w.mu.Unlock()
	}
}

// broadcast sends one payload to every connected player.
func (w *WingoWebsocketService) broadcast(payload gin.H) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for userID, conn := range w.connections {
		if err := conn.WriteJSON(payload); err != nil {
			conn.Close()
			delete(w.connections, userID)
			delete(w.lastActivityTime, userID)
		}
	}
}

func (w *WingoWebsocketService) BroadcastRoundOpened(round *models.Round) {
	w.broadcast(gin.H{
		"type":       "round_opened",
		"identifier": round.Identifier,
		"duration":   round.DurationMinutes,
		"start_time": round.StartTime,
		"end_time":   round.EndTime,
	})
}

func (w *WingoWebsocketService) BroadcastRoundSettled(round *models.Round) {
	w.broadcast(gin.H{
		"type":       "round_settled",
		"identifier": round.Identifier,
		"duration":   round.DurationMinutes,
		"outcome":    round.Outcome,
		"color":      round.Color,
		"size":       round.Size,
	})
}

func (w *WingoWebsocketService) BroadcastBetPlaced(duration int, bet *models.Bet) {
	w.broadcast(gin.H{
		"type":      "new_bet",
		"duration":  duration,
		"amount":    bet.Amount,
		"selection": bet.Selection,
	})
}

// SendBetResultToUser pushes a settled bet to its owner so the client
// balance updates without polling.
func (w *WingoWebsocketService) SendBetResultToUser(bet *models.Bet) {
	w.mu.Lock()
	conn, ok := w.connections[bet.UserID]
	w.mu.Unlock()
	if !ok {
		return
	}

	err := conn.WriteJSON(gin.H{
		"type":      "bet_settled",
		"bet_id":    bet.ID,
		"selection": bet.Selection,
		"amount":    bet.Amount,
		"won":       bet.Won,
		"payout":    bet.Payout,
	})
	if err != nil {
		logger.Error("Failed to send bet result: %v", err)
	}
}
