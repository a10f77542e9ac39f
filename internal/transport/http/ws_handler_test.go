package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/broker"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _, cancel := startTestServer(t, broker.Options{})
	defer cancel()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketHandshakeAndRoomFanout(t *testing.T) {
	ts, b, cancel := startTestServer(t, broker.Options{RequireAuth: true, SendBuffer: 32})
	defer cancel()

	// A shout handler fans a sanitized payload out to a room.
	b.RegisterHandler("shout", func(_ context.Context, c *broker.Client, data json.RawMessage) *proto.Outbound {
		var payload struct {
			Room string `json:"room"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil
		}
		b.BroadcastToRoom(payload.Room, proto.Outbound{
			Type: proto.OutboundTypeRoomMessage,
			Data: payload,
		})
		return nil
	})

	token := registerUser(t, ts, "alice")
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	for _, conn := range []*websocket.Conn{connA, connB} {
		sendFrame(t, ctx, conn, proto.InboundTypeAuth, proto.AuthData{Token: token})
		success := readUntil(t, ctx, conn, proto.OutboundTypeAuthSuccess)
		var data proto.AuthSuccessData
		if err := json.Unmarshal(success.Data, &data); err != nil {
			t.Fatalf("unmarshal auth_success: %v", err)
		}
		if data.User.Username != "alice" {
			t.Fatalf("unexpected user: %+v", data.User)
		}

		sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "general"})
		readUntil(t, ctx, conn, proto.OutboundTypeRoomJoined)
	}

	sendFrame(t, ctx, connA, "shout", map[string]string{"room": "general", "text": "hi there"})

	for _, conn := range []*websocket.Conn{connA, connB} {
		msg := readUntil(t, ctx, conn, proto.OutboundTypeRoomMessage)
		if !strings.Contains(string(msg.Data), "hi there") {
			t.Fatalf("unexpected payload: %s", msg.Data)
		}
	}
}

func TestWebSocketUnauthenticatedGuard(t *testing.T) {
	ts, _, cancel := startTestServer(t, broker.Options{RequireAuth: true})
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "general"})

	errFrame := readUntil(t, ctx, conn, proto.OutboundTypeError)
	if errFrame.Message != "Authentication required" {
		t.Fatalf("unexpected message: %q", errFrame.Message)
	}

	// The connection is still open: a handshake goes through afterwards.
	token := registerUser(t, ts, "bob")
	sendFrame(t, ctx, conn, proto.InboundTypeAuth, proto.AuthData{Token: token})
	readUntil(t, ctx, conn, proto.OutboundTypeAuthSuccess)
}

func TestWebSocketMalformedFrameKeepsConnection(t *testing.T) {
	ts, _, cancel := startTestServer(t, broker.Options{})
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := conn.Write(ctx, websocket.MessageText, []byte("{oops")); err != nil {
		t.Fatalf("write malformed frame: %v", err)
	}

	errFrame := readUntil(t, ctx, conn, proto.OutboundTypeError)
	if errFrame.Message != "Invalid message format" {
		t.Fatalf("unexpected message: %q", errFrame.Message)
	}

	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "general"})
	readUntil(t, ctx, conn, proto.OutboundTypeRoomJoined)
}

func TestAdminQueriesRequireToken(t *testing.T) {
	ts, _, cancel := startTestServer(t, broker.Options{})
	defer cancel()

	resp, err := ts.Client().Get(ts.URL + "/api/clients/count")
	if err != nil {
		t.Fatalf("count request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	token := registerUser(t, ts, "admin")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/clients/count", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("count request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if body.Count != 0 {
		t.Fatalf("expected 0 clients, got %d", body.Count)
	}
}

func TestDisconnectDecrementsCount(t *testing.T) {
	ts, b, cancel := startTestServer(t, broker.Options{})
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForCount(t, b, 1)

	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "general"})
	readUntil(t, ctx, conn, proto.OutboundTypeRoomJoined)

	conn.Close(websocket.StatusNormalClosure, "done")
	waitForCount(t, b, 0)
}

func waitForCount(t *testing.T, b *broker.Broker, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (now %d)", want, b.Count())
}
