package socket

import (
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"lymbo_server/models"
)

// NewSocketServer initializes the Socket.IO server. Clients join their own
// user room after connecting and receive match events pushed to it.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Debug().Str("socket", c.ID()).Msg("socket connected")
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Warn().Str("socket", c.ID()).Msg("join without userId")
			return
		}
		c.Join(userRoom(userID))
		log.Debug().Str("socket", c.ID()).Str("userId", userID).Msg("joined user room")
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Debug().Str("socket", c.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	return server
}

// MatchNotifier pushes newMatch events to both participants' rooms.
type MatchNotifier struct {
	Server *socketio.Server
}

// NewMatchNotifier wraps a socket server as a services.MatchNotifier.
func NewMatchNotifier(server *socketio.Server) *MatchNotifier {
	return &MatchNotifier{Server: server}
}

// MatchCreated broadcasts the new match to both users.
func (n *MatchNotifier) MatchCreated(match models.Match) {
	for _, userID := range []string{match.User1ID, match.User2ID} {
		n.Server.BroadcastToRoom("/", userRoom(userID), "newMatch", match)
	}
}

func userRoom(userID string) string {
	return "user:" + userID
}
