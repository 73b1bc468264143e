package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pong/internal/protocol"
	"github.com/playmatatu/pong/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.GameManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gm := session.NewGameManager(session.Options{}, session.Deps{})
	router := gin.New()
	router.GET("/ws/:mode", NewHandler(gm, nil).Serve)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		gm.Shutdown()
		srv.Close()
	})
	return srv, gm
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return env
}

func TestLocalConnectionPingPong(t *testing.T) {
	srv, gm := newTestServer(t)
	conn := dial(t, srv, "/ws/local?name=Kim")

	env := readEnvelope(t, conn)
	if env.Type != protocol.TypeConnected {
		t.Fatalf("first frame = %s, want connected", env.Type)
	}
	var c protocol.Connected
	json.Unmarshal(env.Data, &c)
	if c.PlayerID == "" || c.Mode != "local" {
		t.Errorf("connected = %+v", c)
	}

	if err := conn.WriteMessage(websocket.TextMessage, protocol.MustEncode(protocol.Ping{})); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, conn); env.Type != protocol.TypePong {
		t.Errorf("reply = %s, want pong", env.Type)
	}
	if st := gm.Status(); st.Connections != 1 {
		t.Errorf("connections = %d", st.Connections)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for gm.Status().Connections != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection not removed after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRejectedConnectionGetsPolicyClose(t *testing.T) {
	srv, gm := newTestServer(t)
	conn := dial(t, srv, "/ws/tournament?matchId=t1")

	env := readEnvelope(t, conn)
	if env.Type != protocol.TypeError {
		t.Fatalf("first frame = %s, want error", env.Type)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("read err = %v, want close 1008", err)
	}
	if st := gm.Status(); st.Connections != 0 {
		t.Errorf("rejected connection registered: %+v", st)
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name        string
		url         string
		header      http.Header
		token       string
		subprotocol string
	}{
		{"query", "/ws/multiplayer?token=abc", nil, "abc", ""},
		{"bearer header", "/ws/multiplayer", http.Header{"Authorization": {"Bearer xyz"}}, "xyz", ""},
		{"subprotocol pair", "/ws/multiplayer", http.Header{"Sec-Websocket-Protocol": {"bearer, a.b.c"}}, "a.b.c", "bearer"},
		{"bare jwt subprotocol", "/ws/multiplayer", http.Header{"Sec-Websocket-Protocol": {"h.p.s"}}, "h.p.s", "h.p.s"},
		{"unrelated subprotocol", "/ws/multiplayer", http.Header{"Sec-Websocket-Protocol": {"chat"}}, "", ""},
		{"none", "/ws/local", nil, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.url, nil)
			for k, v := range tc.header {
				r.Header[k] = v
			}
			token, sub := extractToken(r)
			if token != tc.token || sub != tc.subprotocol {
				t.Errorf("got (%q, %q), want (%q, %q)", token, sub, tc.token, tc.subprotocol)
			}
		})
	}
}

type fakeSocket struct {
	written [][]byte
	types   []int
}

func (f *fakeSocket) WriteMessage(mt int, data []byte) error {
	f.types = append(f.types, mt)
	f.written = append(f.written, data)
	return nil
}
func (f *fakeSocket) ReadMessage() (int, []byte, error) { return 0, nil, websocket.ErrCloseSent }
func (f *fakeSocket) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeSocket) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeSocket) SetReadLimit(int64)                {}
func (f *fakeSocket) SetPongHandler(func(string) error) {}
func (f *fakeSocket) Close() error                      { return nil }

func TestClientFlushesBeforeClosing(t *testing.T) {
	sock := &fakeSocket{}
	c := newClient(sock)
	c.Send([]byte("one"))
	c.Send([]byte("two"))
	c.Close(websocket.ClosePolicyViolation, "bad token")

	c.writePump()

	if len(sock.types) != 3 || sock.types[2] != websocket.CloseMessage {
		t.Fatalf("writes = %v", sock.types)
	}
	if string(sock.written[0]) != "one" || string(sock.written[1]) != "two" {
		t.Errorf("frames out of order: %q", sock.written[:2])
	}
	if err := c.Send([]byte("late")); err != ErrClosed {
		t.Errorf("send after close: %v", err)
	}
}

func TestClientSendBufferFull(t *testing.T) {
	c := newClient(&fakeSocket{})
	for i := 0; i < sendBuffer; i++ {
		if err := c.Send([]byte("x")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := c.Send([]byte("x")); err != ErrBufferFull {
		t.Errorf("overflow err = %v, want ErrBufferFull", err)
	}
}

type brokenSocket struct{ fakeSocket }

func (b *brokenSocket) WriteMessage(int, []byte) error { return errors.New("broken pipe") }

func TestClientWriteErrorWhileRegistering(t *testing.T) {
	c := newClient(&brokenSocket{})
	if got := c.id(); got != "(unregistered)" {
		t.Errorf("id before registration = %q", got)
	}

	c.Send([]byte("connected"))
	go c.writePump()
	c.setPlayerID("p-1")
	<-c.done

	if got := c.id(); got != "p-1" {
		t.Errorf("id = %q, want p-1", got)
	}
	if err := c.Send([]byte("late")); err != ErrClosed {
		t.Errorf("send after write error: %v", err)
	}
}
