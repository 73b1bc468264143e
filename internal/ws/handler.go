package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pong/internal/session"
)

// Handler upgrades /ws/:mode requests and hands the socket to the manager.
type Handler struct {
	gm       *session.GameManager
	upgrader websocket.Upgrader
}

// NewHandler accepts any origin when allowedOrigins is empty.
func NewHandler(gm *session.GameManager, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}

	return &Handler{
		gm: gm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve is the gin handler for GET /ws/:mode. Mode and credential checks
// happen after the upgrade so that rejections arrive as close frames.
func (h *Handler) Serve(c *gin.Context) {
	mode := c.Param("mode")
	token, subprotocol := extractToken(c.Request)

	var header http.Header
	if subprotocol != "" {
		header = http.Header{"Sec-Websocket-Protocol": {subprotocol}}
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(conn)
	go client.writePump()

	ac := session.AuthContext{
		Token:       token,
		DisplayName: c.Query("name"),
		MatchID:     firstNonEmpty(c.Query("matchId"), c.Query("match_id")),
	}
	playerID, err := h.gm.RegisterConnection(c.Request.Context(), client, ac, mode)
	if err != nil {
		return
	}
	client.setPlayerID(playerID)

	go client.readPump(
		func(msg []byte) { h.gm.HandleRaw(playerID, msg) },
		func() { h.gm.RemoveConnection(playerID) },
	)
}

// extractToken looks for a credential in the query string, then the
// Authorization header, then the subprotocol list. A token offered as a
// subprotocol ("bearer, <token>" or just "<token>") returns the protocol
// name the server must echo back.
func extractToken(r *http.Request) (token, subprotocol string) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, ""
	}
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return strings.TrimSpace(a[7:]), ""
	}

	protocols := websocket.Subprotocols(r)
	switch {
	case len(protocols) >= 2 && (strings.EqualFold(protocols[0], "bearer") || strings.EqualFold(protocols[0], "access_token")):
		return protocols[1], protocols[0]
	case len(protocols) == 1 && strings.Count(protocols[0], ".") == 2:
		return protocols[0], protocols[0]
	}
	return "", ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
