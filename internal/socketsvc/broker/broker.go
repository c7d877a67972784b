package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/socketsvc/ws"
)

// Broker bridges the game service's outbound events onto live websockets.
// A message with a RoomId fans out to every socket joined to that room,
// including whoever triggered the event; a message with only a SocketId is
// delivered to that one connection (errors, join confirmations).
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*ws.Client, bool)
	GetRoomSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*ws.Client, bool), fncGetRoomSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetRoomSockets: fncGetRoomSockets,
	}
}

// Subscribe consumes game-service events for delivery to clients.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Publish forwards a client event to the game service.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if message.RoomId != "" {
		b.broadcastToRoom(message)
		return
	}
	if message.SocketId != "" {
		b.sendMessage(message.SocketId, message)
		return
	}

	log.Warnf("outbound %s message with no room or socket target", message.Type)
}

// broadcastToRoom delivers the event to every member of the room.
func (b *Broker) broadcastToRoom(m *comm.WSMessage) {
	sockets, ok := b.GetRoomSockets(m.RoomId)
	if !ok {
		log.Debugf("no sockets in room %s for %s", m.RoomId, m.Type)
		return
	}

	for _, socketId := range sockets {
		b.sendMessage(socketId, m)
	}
}

// sendMessage writes the event to one web client. Routing fields stay
// server-side; the client sees only type and payload.
func (b *Broker) sendMessage(socketId string, m *comm.WSMessage) {
	conn, ok := b.GetConnection(socketId)
	if !ok {
		return
	}

	out := &comm.WSMessage{Type: m.Type, Data: m.Data}
	if err := conn.WriteJSON(out); err != nil {
		log.Println(err)
	}
}
