package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/services"
	"github.com/ArowuTest/jackpot-backend/pkg/jwt"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsBuffer     = 64
)

// WSHandler streams engine events to browsers. A valid token in the query
// string also delivers the account's own balance.changed events.
type WSHandler struct {
	hub      *events.Hub
	game     services.GameService
	accounts *services.AccountService
	tokens   *jwt.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(hub *events.Hub, game services.GameService, accounts *services.AccountService, tokens *jwt.Manager, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return &WSHandler{
		hub:      hub,
		game:     game,
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Stream handles GET /ws
func (h *WSHandler) Stream(c *gin.Context) {
	accountID := ""
	if token := c.Query("token"); token != "" {
		claims, err := h.tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		accountID = claims.Subject
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub, unsubscribe := h.hub.Subscribe(wsBuffer)
	defer unsubscribe()
	if accountID != "" {
		h.accounts.Touch(accountID)
	}

	// the reader only handles control frames and notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			if accountID != "" {
				h.accounts.Touch(accountID)
			}
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	view := h.game.State()
	if err := h.write(conn, events.Event{Type: events.RoundState, RoundID: view.RoundID, Payload: view, At: view.ServerTime}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if ev.AccountID != "" && ev.AccountID != accountID {
				continue
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, ev events.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
