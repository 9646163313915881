package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message types pushed to the browser
const (
	msgSnapshot = "snapshot"
	msgError    = "error"
)

// examMessage is pushed to the browser: controller events plus snapshots
type examMessage struct {
	Type      string               `json:"type"`
	Remaining int                  `json:"remaining"`
	Clock     string               `json:"clock,omitempty"`
	Auto      bool                 `json:"auto,omitempty"`
	Result    *models.SubmitResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	Snapshot  *exam.Snapshot       `json:"snapshot,omitempty"`
}

// examCommand is sent by the browser
type examCommand struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// examConn serializes writes to one websocket
type examConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *examConn) send(msg examMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal exam message")
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug().Err(err).Msg("Failed to send exam message")
		return err
	}
	return nil
}

func (e *examConn) sendSnapshot(c *exam.Controller) error {
	snap := c.Snapshot()
	return e.send(examMessage{Type: msgSnapshot, Remaining: snap.Remaining, Clock: snap.Clock, Snapshot: &snap})
}

func eventMessage(ev exam.Event) examMessage {
	msg := examMessage{
		Type:      string(ev.Type),
		Remaining: ev.Remaining,
		Clock:     exam.FormatClock(ev.Remaining),
		Auto:      ev.Auto,
		Result:    ev.Result,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

func (s *Server) handleExamWS(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	log.Info().Str("exam_id", id).Msg("Exam websocket connected")

	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	ec := &examConn{conn: conn}
	if err := ec.sendSnapshot(c); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Controller events -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := ec.send(eventMessage(ev)); err != nil {
					return
				}
				if ev.Type != exam.EventTick {
					if err := ec.sendSnapshot(c); err != nil {
						return
					}
				}
			}
		}
	}()

	// WebSocket -> controller
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("Exam websocket read error")
				}
				return
			}

			var cmd examCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				log.Debug().Err(err).Msg("Invalid exam command")
				continue
			}

			if err := s.applyCommand(ctx, c, cmd); err != nil {
				if ec.send(examMessage{Type: msgError, Error: err.Error()}) != nil {
					return
				}
			}
			if err := ec.sendSnapshot(c); err != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	conn.Close()
	wg.Wait()

	if c.State().IsTerminal() {
		s.exams.Remove(id)
	}
	log.Info().Str("exam_id", id).Str("state", string(c.State())).Msg("Exam websocket disconnected")
}

func (s *Server) applyCommand(ctx context.Context, c *exam.Controller, cmd examCommand) error {
	switch cmd.Type {
	case "answer":
		return c.SelectAnswer(cmd.Value)
	case "next":
		c.Next()
	case "previous":
		c.Previous()
	case "submit":
		_, err := c.Submit(ctx, false)
		return err
	default:
		log.Debug().Str("type", cmd.Type).Msg("Unknown exam command")
	}
	return nil
}
