package ledfx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/gobwas/ws/wsutil"
	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
)

type testController struct {
	events chan ButtonEvent
	state  State
}

func newTestController(state State) *testController {
	return &testController{
		events: make(chan ButtonEvent, 8),
		state:  state,
	}
}

func (c *testController) Send(ev ButtonEvent) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *testController) State() State {
	return c.state
}

func TestSession(t *testing.T) {
	state := State{
		Effect:      "circle",
		Index:       1,
		Speed:       1,
		ColorSource: "cycle",
	}

	tests := []struct {
		name string
		play func(t *testing.T, env *testSession)
	}{
		{
			name: "get state",
			play: func(t *testing.T, env *testSession) {
				writeClientMessage(t, env.conn, &ClientMessage{Type: MessageGetState})
				assertMessage(t, env.conn, &ServerMessage{
					Type:  MessageState,
					State: &state,
				})
			},
		},
		{
			name: "press",
			play: func(t *testing.T, env *testSession) {
				writeClientMessage(t, env.conn, &ClientMessage{Type: MessagePress, Button: ButtonB})
				writeClientMessage(t, env.conn, &ClientMessage{Type: MessagePress, Button: ButtonUp})

				// The state reply orders after both presses.
				writeClientMessage(t, env.conn, &ClientMessage{Type: MessageGetState})
				readServerMessage(t, env.conn)

				assertEq(t, ButtonEvent{Button: ButtonB, Pressed: true}, <-env.controller.events)
				assertEq(t, ButtonEvent{Button: ButtonUp, Pressed: true}, <-env.controller.events)
			},
		},
		{
			name: "frame",
			play: func(t *testing.T, env *testSession) {
				// Make sure the session has subscribed before flushing.
				writeClientMessage(t, env.conn, &ClientMessage{Type: MessageGetState})
				readServerMessage(t, env.conn)

				env.mirror.SetRGBAt(0, Color{R: 0xFF})
				env.mirror.SetRGBAt(2, Color{B: 0xFF})
				if err := env.mirror.Flush(); err != nil {
					t.Fatal("flush:", err)
				}

				assertMessage(t, env.conn, &ServerMessage{
					Type: MessageFrame,
					LEDs: []uint32{0xFF0000, 0, 0x0000FF},
				})
			},
		},
		{
			name: "state broadcast",
			play: func(t *testing.T, env *testSession) {
				changed := State{Effect: "runner", Index: 3, Speed: 0.5}
				env.session.queueState(changed)

				assertMessage(t, env.conn, &ServerMessage{
					Type:  MessageState,
					State: &changed,
				})
			},
		},
		{
			name: "unknown message",
			play: func(t *testing.T, env *testSession) {
				writeClientMessage(t, env.conn, &ClientMessage{Type: "dance"})

				errStr := `unknown message type "dance"`
				assertMessage(t, env.conn, &ServerMessage{
					Type:  MessageError,
					Error: &errStr,
				})

				expectCloseFrame(t, env.conn)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env := startTestSession(t, ctx, newTestController(state))
			test.play(t, env)
		})
	}
}

func writeClientMessage(t *testing.T, conn io.ReadWriteCloser, msg *ClientMessage) {
	t.Helper()

	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal("invalid client message:", err)
	}
	if err := wsutil.WriteClientText(conn, b); err != nil {
		t.Fatal("error writing client message:", err)
	}
}

func readServerMessage(t *testing.T, conn io.ReadWriteCloser) *ServerMessage {
	t.Helper()

	b, err := wsutil.ReadServerText(conn)
	if err != nil {
		t.Fatal("error reading server message:", err)
	}

	msg := &ServerMessage{}
	if err := json.Unmarshal(b, msg); err != nil {
		t.Fatal("invalid server message:", err)
	}

	return msg
}

func assertMessage(t *testing.T, conn io.ReadWriteCloser, expect *ServerMessage) {
	t.Helper()

	actual := readServerMessage(t, conn)
	assertEq(t, expect, actual)
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func expectCloseFrame(t *testing.T, conn io.ReadWriteCloser) {
	t.Helper()
	var closedErr wsutil.ClosedError

	_, op, err := wsutil.ReadServerData(conn)
	if err == nil {
		t.Fatal("no close frame received, got op", op)
	}
	if !errors.As(err, &closedErr) {
		t.Fatal("unexpected non-ClosedError while reading server data:", err)
	}

	// Responding close frame is automatically handled by gobwas/ws/wsutil.
	// See wsutil/handler.go @ ControlHandler.HandleClose.
}

type testSession struct {
	conn       io.ReadWriteCloser
	session    *Session
	controller *testController
	mirror     *Mirror
}

func startTestSession(t *testing.T, ctx context.Context, controller *testController) *testSession {
	t.Helper()

	conn1, conn2 := net.Pipe()

	t.Cleanup(func() {
		t.Log("closing test session pipes")
		conn1.Close()
		conn2.Close()
	})

	logger := slogt.New(t)
	mirror := NewMirror(newTestStrip(3))

	session := newSession(newWebsocketServer(conn1, logger), logger, ServerOpts{
		Controller: controller,
		Frames:     mirror,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Error("server session error:", err)
		}
	})

	go func() {
		errCh <- session.Start(ctx)
	}()

	return &testSession{
		conn:       conn2,
		session:    session,
		controller: controller,
		mirror:     mirror,
	}
}
