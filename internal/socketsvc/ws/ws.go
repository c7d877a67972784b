package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
)

// Publisher is the piece of the broker the websocket layer needs to hand
// events to the game service.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// forwarded lists the client events that are enveloped and handed to the
// game service once the connection has joined a room.
var forwarded = map[string]bool{
	comm.EventSelectQuestion:   true,
	comm.EventRevealQuestion:   true,
	comm.EventBuzz:             true,
	comm.EventConfirmAnswer:    true,
	comm.EventMarkQuestionDone: true,
	comm.EventManualAward:      true,
	comm.EventPause:            true,
	comm.EventResume:           true,
	comm.EventReset:            true,
	comm.EventMonitorView:      true,
	comm.EventMonitorSound:     true,
}

// Client wraps one websocket connection with a write lock. The read loop
// and the NATS broadcast goroutine both write to a connection; gorilla
// allows only one concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *Client
	roomMap sync.Map // socketId -> roomId (the gameId the socket joined)
	roleMap sync.Map // socketId -> role declared at join
	Broker  Publisher
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles one message from a web client. Room membership is
// kept here; everything game-related is enveloped with the connection's
// room and role and published for the game service.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch {
	case message.Type == comm.EventJoinRoom:
		s.handleJoinRoom(socketId, message)
	case message.Type == comm.EventLeaveRoom:
		s.handleLeaveRoom(socketId)
	case forwarded[message.Type]:
		s.forward(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.sendError(socketId, "unknown event: "+message.Type)
	}
}

func (s *Ws) handleJoinRoom(socketId string, msg *comm.WSMessage) {
	var payload comm.JoinRoomPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("malformed join-room payload from socket %s: %s", socketId, err)
		s.sendError(socketId, "malformed join-room payload")
		return
	}

	if payload.GameId == "" {
		s.sendError(socketId, "join-room requires a gameId")
		return
	}

	switch payload.Role {
	case comm.RoleHost, comm.RoleMonitor:
	case comm.RoleContestant:
		if payload.ContestantId == "" {
			s.sendError(socketId, "contestant join requires a contestantId")
			return
		}
	default:
		s.sendError(socketId, "unknown role: "+payload.Role)
		return
	}

	// The role declared here gates host-only and contestant-only events
	// for the lifetime of the connection.
	s.roomMap.Store(socketId, payload.GameId)
	s.roleMap.Store(socketId, payload.Role)

	log.Infof("%s %s joined room %s (socket: %s)", payload.Role, payload.ContestantId, payload.GameId, socketId)

	// Game existence is verified by the game service, which confirms the
	// join back to this socket.
	s.forward(socketId, msg)
}

func (s *Ws) handleLeaveRoom(socketId string) {
	if roomId, ok := s.roomMap.Load(socketId); ok {
		log.Infof("socket %s left room %s", socketId, roomId)
	}
	s.roomMap.Delete(socketId)
	s.roleMap.Delete(socketId)
}

// forward stamps the envelope with the socket's identity, room and role and
// publishes it to the game service.
func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	roomId, ok := s.GetRoom(socketId)
	if !ok {
		s.sendError(socketId, "join a room before sending "+msg.Type)
		return
	}
	role, _ := s.GetRole(socketId)

	msg.SocketId = socketId
	msg.RoomId = roomId
	msg.Role = role

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(comm.TopicGameIn, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", comm.TopicGameIn, err)
		return
	}

	log.Debugf("forwarded %s from socket %s to room %s", msg.Type, socketId, roomId)
}

// sendError delivers an error to this connection only.
func (s *Ws) sendError(socketId string, message string) {
	conn, ok := s.GetConnection(socketId)
	if !ok {
		return
	}

	data, err := json.Marshal(comm.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	if err := conn.WriteJSON(&comm.WSMessage{Type: comm.EventError, Data: data}); err != nil {
		log.Errorf("Failed to send error message to socket %s: %v", socketId, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &Client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*Client, bool) {
	client, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return client.(*Client), true
}

func (s *Ws) GetRoom(socketId string) (string, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return "", false
	}
	return room.(string), true
}

func (s *Ws) GetRole(socketId string) (string, bool) {
	role, ok := s.roleMap.Load(socketId)
	if !ok {
		return "", false
	}
	return role.(string), true
}

// GetRoomSockets lists every socket currently joined to a room. A
// disconnected contestant keeps any buzzer-queue slot it holds; only the
// host's verdicts remove queue entries.
func (s *Ws) GetRoomSockets(roomId string) ([]string, bool) {
	var sockets []string
	found := false

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(string) == roomId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

// HandleDisconnect drops all registrations for a closed connection.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.roomMap.Delete(socketId)
	s.roleMap.Delete(socketId)
}
