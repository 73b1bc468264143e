package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/playmatatu/pong/internal/game"
)

func TestDecodeClientMessages(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Message
	}{
		{"join with name", `{"type":"join_queue","data":{"displayName":"ann"}}`, JoinQueue{DisplayName: "ann"}},
		{"join bare", `{"type":"join_queue"}`, JoinQueue{}},
		{"leave", `{"type":"leave_queue"}`, LeaveQueue{}},
		{"move up", `{"type":"move","data":{"direction":"up"}}`, Move{Direction: game.DirUp}},
		{"move local", `{"type":"move","data":{"direction":"down","side":"right"}}`, Move{Direction: game.DirDown, Side: game.SideRight}},
		{"local vs ai", `{"type":"createLocalGame","data":{"vsAi":true,"difficulty":"HARD"}}`, CreateLocalGame{VsAI: true, Difficulty: "HARD"}},
		{"ping", `{"type":"ping"}`, Ping{}},
		{"ping with null data", `{"type":"ping","data":null}`, Ping{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode(%s) error: %v", tt.frame, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%s) = %#v, want %#v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport","data":{}}`))
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	frames := []string{
		``,
		`   `,
		`not json`,
		`{"type":"move","data":{"direction":5}}`,
		`["move"]`,
	}
	for _, f := range frames {
		if _, err := Decode([]byte(f)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) = %v, want ErrMalformed", f, err)
		}
	}
}

func TestEncodeEnvelopeShape(t *testing.T) {
	b, err := Encode(PlayerLeft{PlayerID: "p1", Message: "Opponent left", Forfeit: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var env struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "playerLeft" {
		t.Errorf("type = %q, want playerLeft", env.Type)
	}
	if env.Data["playerId"] != "p1" || env.Data["forfeit"] != true {
		t.Errorf("unexpected data: %v", env.Data)
	}
}

func TestEncodeEmptyMessagesOmitData(t *testing.T) {
	b := MustEncode(Pong{})
	if string(b) != `{"type":"pong"}` {
		t.Errorf("pong frame = %s", b)
	}
}

func TestGameStateCarriesSnapshot(t *testing.T) {
	g := game.NewPongGame("m1", game.DefaultGameConfig(), 1)
	g.AddPlayer("a")
	g.AddPlayer("b")
	g.SetMovementIntent("a", game.DirUp)
	g.SetMovementIntent("b", game.DirDown)
	for i := 0; i < 90; i++ {
		g.Tick(1.0 / game.ReferenceTickRate)
	}
	want := g.Snapshot()

	msg, err := Decode(MustEncode(GameState{Snapshot: want}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gs, ok := msg.(GameState)
	if !ok {
		t.Fatalf("decoded %T, want GameState", msg)
	}
	if !reflect.DeepEqual(gs.Snapshot, want) {
		t.Errorf("snapshot changed in transit:\n got %+v\nwant %+v", gs.Snapshot, want)
	}
	if gs.Snapshot.Paddles[0].ID != "a" || gs.Snapshot.Paddles[1].ID != "b" {
		t.Errorf("paddle order = %s, %s; want a, b", gs.Snapshot.Paddles[0].ID, gs.Snapshot.Paddles[1].ID)
	}
}
