package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/engine"
	"github.com/quizwire/trivia-services/internal/gamesvc/metrics"
)

const handlerTimeout = 10 * time.Second

// Publisher is the slice of the NATS connection the broker needs.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// hostOnly lists the events only a connection that joined as host may send.
var hostOnly = map[string]bool{
	comm.EventRevealQuestion:   true,
	comm.EventConfirmAnswer:    true,
	comm.EventMarkQuestionDone: true,
	comm.EventManualAward:      true,
	comm.EventPause:            true,
	comm.EventResume:           true,
	comm.EventReset:            true,
	comm.EventMonitorView:      true,
	comm.EventMonitorSound:     true,
}

// contestantOnly lists the events only a contestant connection may send.
var contestantOnly = map[string]bool{
	comm.EventBuzz: true,
}

// Broker consumes enveloped events from the socket service, enforces the
// role tag established at room join, drives the engine, and publishes the
// resulting announcements back for room fan-out. Errors go back to the
// originating socket only.
type Broker struct {
	conn   Publisher
	engine *engine.Engine
}

func NewBroker(conn Publisher, eng *engine.Engine) *Broker {
	return &Broker{conn: conn, engine: eng}
}

// SubscribeInbound attaches the broker to the socket-service event stream.
func (b *Broker) SubscribeInbound(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(comm.TopicGameIn, b.handleMessage)
}

func (b *Broker) handleMessage(msgNats *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}
	b.handleEnvelope(msg)
}

func (b *Broker) handleEnvelope(msg *comm.WSMessage) {
	metrics.EventsIn.WithLabelValues(msg.Type).Inc()

	if hostOnly[msg.Type] && msg.Role != comm.RoleHost {
		b.sendError(msg.SocketId, "only the host can send "+msg.Type)
		return
	}
	if contestantOnly[msg.Type] && msg.Role != comm.RoleContestant {
		b.sendError(msg.SocketId, "only a contestant can send "+msg.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	announcements, roomId, err := b.dispatch(ctx, msg)
	if err != nil {
		log.Warnf("event %s from socket %s rejected: %s", msg.Type, msg.SocketId, err)
		b.sendError(msg.SocketId, err.Error())
		return
	}

	for _, a := range announcements {
		b.broadcast(roomId, a.Type, a.Payload)
	}
}

// dispatch unmarshals the typed payload for the event and runs the matching
// engine operation. It returns the announcements to broadcast and the room
// they belong to.
func (b *Broker) dispatch(ctx context.Context, msg *comm.WSMessage) ([]engine.Announcement, string, error) {
	switch msg.Type {
	case comm.EventJoinRoom:
		var p comm.JoinRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed join-room payload")
		}
		// Membership is registered by the socket service; here we only
		// verify the game exists and confirm back to the joiner.
		if _, err := b.engine.Game(ctx, p.GameId); err != nil {
			return nil, "", err
		}
		b.sendDirect(msg.SocketId, comm.EventRoomJoined, comm.RoomJoined{GameId: p.GameId, Role: p.Role})
		return nil, "", nil

	case comm.EventSelectQuestion:
		var p comm.SelectQuestionPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed select-question payload")
		}
		if _, err := b.engine.Game(ctx, p.GameId); err != nil {
			return nil, "", err
		}
		// A selection is a suggestion to the host, not a reveal; pass it
		// through to the room untouched.
		return []engine.Announcement{{Type: comm.EventQuestionSelected, Payload: p}}, p.GameId, nil

	case comm.EventRevealQuestion:
		var p comm.RevealQuestionPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed reveal-question payload")
		}
		ann, err := b.engine.RevealQuestion(ctx, p.GameId, p.CategoryIndex, p.QuestionIndex)
		return ann, p.GameId, err

	case comm.EventBuzz:
		var p comm.BuzzPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed buzz payload")
		}
		if p.ContestantId == "" {
			return nil, "", errors.New("buzz requires a contestantId")
		}
		ann, err := b.engine.Buzz(ctx, p.GameId, p.ContestantId, p.ClientTimestamp)
		return ann, p.GameId, err

	case comm.EventConfirmAnswer:
		var p comm.ConfirmAnswerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed confirm-answer payload")
		}
		if p.ContestantId == "" {
			return nil, "", errors.New("confirm-answer requires a contestantId")
		}
		ann, err := b.engine.ResolveAnswer(ctx, p.GameId, p.ContestantId, p.Correct, p.Points)
		return ann, p.GameId, err

	case comm.EventMarkQuestionDone:
		var p comm.MarkQuestionDonePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed mark-question-done payload")
		}
		ann, err := b.engine.MarkQuestionDone(ctx, p.GameId)
		return ann, p.GameId, err

	case comm.EventManualAward:
		var p comm.ManualAwardPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed manual-award payload")
		}
		if p.ContestantId == "" {
			return nil, "", errors.New("manual-award requires a contestantId")
		}
		ann, err := b.engine.ManualAward(ctx, p.GameId, p.CategoryIndex, p.QuestionIndex, p.ContestantId, p.Points)
		return ann, p.GameId, err

	case comm.EventPause:
		var p comm.GameControlPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed pause payload")
		}
		ann, err := b.engine.Pause(ctx, p.GameId)
		return ann, p.GameId, err

	case comm.EventResume:
		var p comm.GameControlPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed resume payload")
		}
		ann, err := b.engine.Resume(ctx, p.GameId)
		return ann, p.GameId, err

	case comm.EventReset:
		var p comm.GameControlPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed reset payload")
		}
		ann, err := b.engine.Reset(ctx, p.GameId)
		return ann, p.GameId, err

	case comm.EventMonitorView:
		var p comm.MonitorViewPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed monitor-view payload")
		}
		return []engine.Announcement{{Type: comm.EventMonitorView, Payload: p}}, p.GameId, nil

	case comm.EventMonitorSound:
		var p comm.MonitorSoundPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, "", errors.New("malformed monitor-sound payload")
		}
		return []engine.Announcement{{Type: comm.EventMonitorSound, Payload: p}}, p.GameId, nil

	default:
		log.Warnf("unknown event received: %s", msg.Type)
		return nil, "", errors.New("unknown event: " + msg.Type)
	}
}

// broadcast publishes an event for fan-out to every socket in the room.
func (b *Broker) broadcast(roomId, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("unable to marshal %s payload: %s", eventType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:   eventType,
		Data:   data,
		RoomId: roomId,
	}
	b.publish(msg)
}

// sendDirect publishes an event addressed to a single socket.
func (b *Broker) sendDirect(socketId, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("unable to marshal %s payload: %s", eventType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     eventType,
		Data:     data,
		SocketId: socketId,
	}
	b.publish(msg)
}

// sendError reports a rejection to the originating connection only. Errors
// are never broadcast to the room.
func (b *Broker) sendError(socketId, message string) {
	b.sendDirect(socketId, comm.EventError, comm.ErrorPayload{Message: message})
}

func (b *Broker) publish(msg *comm.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := b.conn.Publish(comm.TopicGameOut, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.TopicGameOut, err)
		return
	}
	metrics.EventsOut.WithLabelValues(msg.Type).Inc()
}
