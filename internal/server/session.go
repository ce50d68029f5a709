package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/giggslabs/foodchain/internal/app"
)

// maxUtteranceBytes bounds a single inbound frame. Text utterances are tiny;
// the bound mainly caps one recorded audio clip.
const maxUtteranceBytes = 10 << 20

// utteranceFrame is one inbound text message on the session socket.
type utteranceFrame struct {
	Utterance string `json:"utterance"`
}

// helloFrame is the first message sent after the socket is accepted.
type helloFrame struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// errorFrame reports a recoverable processing error; the conversation
// continues.
type errorFrame struct {
	Error string `json:"error"`
}

// session runs one ordering conversation over a WebSocket. Text frames carry
// JSON utterances, binary frames carry recorded WAV audio. Every utterance
// is answered with a JSON reply frame, followed by a binary frame with the
// spoken reply when synthesis is available.
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxUtteranceBytes)

	ctx := r.Context()
	id := s.kiosk.StartSession(ctx)
	defer s.kiosk.EndSession(ctx, id)

	if err := writeFrame(ctx, conn, helloFrame{SessionID: id, State: "idle"}); err != nil {
		return
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if !errors.Is(err, context.Canceled) {
				s.log.Debug("session read ended", "session_id", id, "error", err)
			}
			return
		}

		var reply app.Reply
		switch typ {
		case websocket.MessageText:
			var frame utteranceFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				if err := writeFrame(ctx, conn, errorFrame{Error: "invalid utterance frame"}); err != nil {
					return
				}
				continue
			}
			reply, err = s.kiosk.HandleText(ctx, id, frame.Utterance)
		case websocket.MessageBinary:
			reply, err = s.kiosk.HandleAudio(ctx, id, data)
		}
		if err != nil {
			s.log.Warn("utterance failed", "session_id", id, "error", err)
			if err := writeFrame(ctx, conn, errorFrame{Error: "could not process that, please try again"}); err != nil {
				return
			}
			continue
		}

		if err := writeFrame(ctx, conn, reply); err != nil {
			return
		}
		if len(reply.Audio) > 0 {
			if err := conn.Write(ctx, websocket.MessageBinary, reply.Audio); err != nil {
				return
			}
		}
		if reply.Ended {
			conn.Close(websocket.StatusNormalClosure, "session ended")
			return
		}
	}
}

// writeFrame marshals v and sends it as one text frame.
func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
