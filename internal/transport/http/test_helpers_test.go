package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/auth"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/broker"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/config"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/store/sqlite"
)

// outFrame mirrors proto.Outbound with a raw payload for assertions.
type outFrame struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details []string        `json:"details"`
}

func startTestServer(t *testing.T, opts broker.Options) (*httptest.Server, *broker.Broker, context.CancelFunc) {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	b := broker.New(authService, authService, opts, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	server := NewServer(b, authService, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, b, cancel
}

// registerUser creates a user over the REST API and returns its token.
func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: "password123"})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return authResp.Token
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", frameType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: data}); err != nil {
		t.Fatalf("write %s frame: %v", frameType, err)
	}
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, frameType string) outFrame {
	t.Helper()

	for {
		var frame outFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read frame (waiting for %s): %v", frameType, err)
		}
		if frame.Type == frameType {
			return frame
		}
	}
}
