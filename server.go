package ledfx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"
	"gopkg.in/typ.v4/sync2"
)

// Controller accepts button events and reports the state of the effects.
// It is implemented by *Dispatcher.
type Controller interface {
	Send(ev ButtonEvent) bool
	State() State
}

// FrameSource hands out subscriptions to frames. It is implemented by
// *Mirror.
type FrameSource interface {
	Subscribe(ctx context.Context) *FrameSubscription
}

// ServerOpts are options for a server.
type ServerOpts struct {
	// Controller receives button presses from clients.
	Controller Controller
	// Frames is where the frames streamed to clients come from.
	Frames FrameSource
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// Server lets websocket clients watch the LEDs and press buttons remotely.
type Server struct {
	opts        ServerOpts
	connections sync2.Map[*Session, sessionControl]
}

type sessionControl struct {
	cancel context.CancelCauseFunc
}

// NewServer creates a new server.
func NewServer(opts ServerOpts) *Server {
	return &Server{
		opts: opts,
	}
}

// KickAllConnections kicks all connections from the server.
// Optionally, a reason can be provided.
func (s *Server) KickAllConnections(reason string) {
	var err error
	if reason != "" {
		err = fmt.Errorf("kicked: %s", reason)
	} else {
		err = fmt.Errorf("kicked")
	}

	s.connections.Range(func(s *Session, ctrl sessionControl) bool {
		ctrl.cancel(err)
		return true
	})
}

// BroadcastState sends the state to every connected client. It does not
// block.
func (s *Server) BroadcastState(state State) {
	s.connections.Range(func(s *Session, _ sessionControl) bool {
		s.queueState(state)
		return true
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := SessionUpgrade(w, r, s.opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	s.connections.Store(session, sessionControl{cancel: cancel})
	defer s.connections.Delete(session)

	if err := session.Start(ctx); err != nil {
		session.logger.Debug(
			"session ended",
			"error", err)
	}
}

// Session is a websocket session. It implements handling of messages from a
// single client.
type Session struct {
	ws     *websocketServer
	logger *slog.Logger
	opts   ServerOpts
	state  chan State
}

// SessionUpgrade upgrades an HTTP request to a websocket session.
func SessionUpgrade(w http.ResponseWriter, r *http.Request, opts ServerOpts) (*Session, error) {
	wsconn, _, _, err := opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade HTTP: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		wsconn.Close()
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	logger := opts.Logger.With(
		"addr", wsconn.RemoteAddr(),
		"session", id.String())

	return newSession(newWebsocketServer(wsconn, logger), logger, opts), nil
}

func newSession(ws *websocketServer, logger *slog.Logger, opts ServerOpts) *Session {
	return &Session{
		ws:     ws,
		logger: logger,
		opts:   opts,
		state:  make(chan State, 1),
	}
}

// Start starts the session. It returns when the client disconnects or ctx
// is done.
func (s *Session) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg.Go(func() error {
		defer cancel()
		return s.ws.Start(ctx)
	})

	errg.Go(func() error {
		// Treat main loop errors as fatal and kill the connection,
		// but don't return it because it's not the caller's fault.
		if err := s.mainLoop(ctx); err != nil {
			return s.ws.SendError(ctx, err)
		}
		return nil
	})

	return errg.Wait()
}

func (s *Session) queueState(state State) {
	select {
	case <-s.state:
	default:
	}
	select {
	case s.state <- state:
	default:
	}
}

func (s *Session) mainLoop(ctx context.Context) error {
	frames := s.opts.Frames.Subscribe(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case frame := <-frames.Frames():
			leds := make([]uint32, len(frame))
			for i, led := range frame {
				leds[i] = led.ToUint()
			}
			s.ws.Send(ctx, &ServerMessage{Type: MessageFrame, LEDs: leds})

		case state := <-s.state:
			s.ws.Send(ctx, &ServerMessage{Type: MessageState, State: &state})

		case msg := <-s.ws.Messages:
			switch msg.Type {
			case MessagePress:
				// A full queue drops the press, same as a hardware button.
				s.opts.Controller.Send(ButtonEvent{Button: msg.Button, Pressed: true})

			case MessageGetState:
				state := s.opts.Controller.State()
				s.ws.Send(ctx, &ServerMessage{Type: MessageState, State: &state})

			default:
				return fmt.Errorf("unknown message type %q", msg.Type)
			}
		}
	}
}
