package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

const goodToken = "good-token"

// fakeAuth accepts exactly goodToken and resolves it to alice.
type fakeAuth struct{}

func (fakeAuth) ValidateToken(token string) error {
	if token == goodToken {
		return nil
	}
	return errors.New("bad token")
}

func (fakeAuth) ResolveUser(_ context.Context, token string) (*Identity, error) {
	return &Identity{ID: 1, Username: "alice"}, nil
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestBroker(t *testing.T, opts Options) *Broker {
	t.Helper()
	return New(fakeAuth{}, fakeAuth{}, opts, nopLogger())
}

func mustFrame(t *testing.T, c *Client, frameType string) proto.Outbound {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-c.Outbox():
			if frame.Type == frameType {
				return frame
			}
		case <-deadline:
			t.Fatalf("expected frame type %q not received", frameType)
			return proto.Outbound{}
		}
	}
}

func mustNoFrame(t *testing.T, c *Client) {
	t.Helper()

	select {
	case frame := <-c.Outbox():
		t.Fatalf("unexpected frame: %+v", frame)
	case <-time.After(50 * time.Millisecond):
	}
}
