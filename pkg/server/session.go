package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/generate"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
)

// session owns one websocket connection and the player behind it. Only the
// writer goroutine writes to conn.
type session struct {
	srv    *Server
	conn   *websocket.Conn
	player *player.Player
	logger *slog.Logger

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
	reason    string
}

func (s *Server) handleSocket(rw http.ResponseWriter, hr *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, hr, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.DebugContext(hr.Context(), "ws: upgrade failed", "error", err)

		return
	}

	ctx := hr.Context()

	decInflight := s.opts.RED.TrackInflight(ctx, "ws.session")
	defer decInflight()

	sess := &session{
		srv:    s,
		conn:   conn,
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
		send:   make(chan Message, s.opts.SendBuffer),
		done:   make(chan struct{}),
	}

	sess.player = player.New(
		player.WithClock(s.opts.Clock),
		player.WithSpeed(s.opts.Speed),
		player.WithLogger(sess.logger),
		player.WithObserver(func(snap player.Snapshot, metrics player.Metrics) {
			sess.enqueue(stateMessage(snap, metrics))
		}),
	)

	s.track(sess)
	defer s.untrack(sess)

	sess.logger.DebugContext(ctx, "ws: session opened")

	var writer sync.WaitGroup

	writer.Add(1)

	go func() {
		defer writer.Done()

		sess.writeLoop()
	}()

	sess.readLoop(ctx)

	sess.player.Close()
	sess.shutdown("client closed")
	writer.Wait()

	_ = conn.Close()

	sess.logger.DebugContext(ctx, "ws: session closed", "reason", sess.reason)
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (sess *session) enqueue(msg Message) {
	select {
	case <-sess.done:
		return
	default:
	}

	select {
	case sess.send <- msg:
	case <-sess.done:
	default:
		sess.shutdown("send buffer full")
	}
}

func (sess *session) shutdown(reason string) {
	sess.closeOnce.Do(func() {
		sess.reason = reason
		close(sess.done)
		// Unblock the reader.
		_ = sess.conn.SetReadDeadline(time.Now())
	})
}

func (sess *session) readLoop(ctx context.Context) {
	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.DebugContext(ctx, "ws: read failed", "error", err)
			}

			return
		}

		var cmd Command

		err = json.Unmarshal(payload, &cmd)
		if err != nil {
			sess.enqueue(errorMessage("malformed command"))

			continue
		}

		sess.dispatch(ctx, cmd)
	}
}

func (sess *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := sess.conn.WriteJSON(msg)
			if err != nil {
				sess.shutdown("write failed")

				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := sess.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				sess.shutdown("ping failed")

				return
			}
		case <-sess.done:
			sess.flush()

			return
		}
	}
}

// flush writes whatever is still queued, then a close frame.
func (sess *session) flush() {
	deadline := time.Now().Add(writeWait)
	_ = sess.conn.SetWriteDeadline(deadline)

	for {
		select {
		case msg := <-sess.send:
			if sess.conn.WriteJSON(msg) != nil {
				return
			}
		default:
			_ = sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, sess.reason), deadline)

			return
		}
	}
}

func (sess *session) dispatch(ctx context.Context, cmd Command) {
	p := sess.player

	switch cmd.Type {
	case CommandLoad:
		sess.load(ctx, cmd.Algorithm, cmd.Array)
	case CommandGenerate:
		sess.generate(ctx, cmd)
	case CommandPlay:
		p.Play()
	case CommandPause:
		p.Pause()
	case CommandReset:
		p.Reset()
	case CommandStepForward:
		p.StepForward()
	case CommandStepBackward:
		p.StepBackward()
	case CommandSeek:
		p.Seek(cmd.Step)
	case CommandSpeed:
		p.SetSpeed(cmd.Speed)
	default:
		sess.enqueue(errorMessage("unknown command " + cmd.Type))

		return
	}

	sess.srv.opts.TraceMetrics.RecordPlayerCommand(ctx, cmd.Type)
}

func (sess *session) load(ctx context.Context, algorithmID string, values []float64) {
	if algorithmID == "" {
		algorithmID = sess.srv.opts.DefaultAlgorithm
	}

	doc, verrs, err := sess.srv.opts.Engine.Trace(ctx, algorithmID, algorithm.Input{Array: values})
	if err != nil {
		sess.enqueue(errorMessage(err.Error()))

		return
	}

	if len(verrs) > 0 {
		sess.enqueue(errorMessage("invalid input", verrs...))

		return
	}

	sess.enqueue(loadedMessage(doc))
	sess.player.Load(doc.Input.Array)
	sess.player.SetOperations(doc.Operations)
}

func (sess *session) generate(ctx context.Context, cmd Command) {
	pattern, err := generate.ParsePattern(cmd.Pattern)
	if err != nil {
		sess.enqueue(errorMessage(err.Error()))

		return
	}

	size := cmd.Size
	if size == 0 {
		size = generate.DefaultSize
	}

	values, err := generate.Generate(generate.Options{
		Pattern: pattern,
		Size:    size,
		Min:     generate.DefaultMin,
		Max:     generate.DefaultMax,
		Seed:    cmd.Seed,
	})
	if err != nil {
		sess.enqueue(errorMessage(err.Error()))

		return
	}

	sess.load(ctx, cmd.Algorithm, values)
}
