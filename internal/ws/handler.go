package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scoutlink/alliance-backend/internal/hub"
	"github.com/scoutlink/alliance-backend/internal/lobby"
	"github.com/scoutlink/alliance-backend/internal/session"
	"github.com/scoutlink/alliance-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades to a websocket and bridges the connection to the session's
// lobby. Identity comes from query parameters; a correct privileged key lets
// the joiner bypass the host approval queue.
func Handler(h *hub.Hub, privilegedKeys []string, log *zap.Logger) http.HandlerFunc {
	keys := make(map[string]bool, len(privilegedKeys))
	for _, k := range privilegedKeys {
		keys[k] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := strings.ToUpper(q.Get("code"))
		uid := q.Get("uid")
		name := q.Get("name")
		if code == "" || uid == "" || name == "" {
			http.Error(w, "missing code, uid or name", http.StatusBadRequest)
			return
		}
		teamNumber, _ := strconv.Atoi(q.Get("team"))
		privileged := q.Get("key") != "" && keys[q.Get("key")]

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Outbound, 8)
		clientID := uuid.NewString()

		lb.Inbox() <- lobby.Join{
			ClientID: clientID,
			Params: session.JoinParams{
				UID:         uid,
				DisplayName: name,
				TeamNumber:  teamNumber,
				Privileged:  privileged,
			},
			Outbox: out,
		}
		defer func() { lb.Inbox() <- lobby.Leave{ClientID: clientID} }()

		// Writer goroutine: drains lobby frames until the lobby closes the
		// outbox (leave, kick, session end, shutdown).
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer conn.Close(websocket.StatusNormalClosure, "session closed")
			for frame := range out {
				msg := toServerMessage(frame, uid)
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshaling frame", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				werr := conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if werr != nil {
					return
				}
				if frame.Kind == lobby.OutKicked || frame.Kind == lobby.OutEnded {
					return
				}
			}
		}()

		// Reader loop. No read deadline: picks are human-paced and a viewer
		// may sit idle for the length of a draft round.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, ok := toCommand(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown message type")
				continue
			}

			lb.Inbox() <- lobby.FromClient{ClientID: clientID, Cmd: cmd}
		}
	}
}

func toServerMessage(frame lobby.Outbound, uid string) types.ServerMessage {
	switch frame.Kind {
	case lobby.OutSnapshot:
		role, _ := frame.Document.RoleOf(uid)
		return types.ServerMessage{
			Type:    "Snapshot",
			Version: frame.Version,
			Role:    role,
			Session: types.NewSessionView(frame.Document),
		}
	case lobby.OutKicked:
		return types.ServerMessage{Type: "Kicked"}
	case lobby.OutEnded:
		return types.ServerMessage{Type: "SessionEnded"}
	default:
		return types.ServerMessage{Type: "Error", Error: frame.Error}
	}
}

func toCommand(m types.ClientMessage) (session.Command, bool) {
	base := session.Command{
		TeamNumber:     m.TeamNumber,
		AllianceNumber: m.AllianceNumber,
		TargetUID:      m.TargetUID,
		Text:           m.Text,
	}
	switch m.Type {
	case "MarkPicked":
		base.Type = session.CmdMarkPicked
	case "MarkDeclined":
		base.Type = session.CmdMarkDeclined
	case "UndoStatus":
		base.Type = session.CmdUndoStatus
	case "EndSession":
		base.Type = session.CmdEndSession
	case "AcceptParticipant":
		base.Type = session.CmdAcceptParticipant
	case "PromoteToEditor":
		base.Type = session.CmdPromoteToEditor
	case "DemoteToViewer":
		base.Type = session.CmdDemoteToViewer
	case "TransferHost":
		base.Type = session.CmdTransferHost
	case "RemoveParticipant":
		base.Type = session.CmdRemoveParticipant
	case "SendMessage":
		base.Type = session.CmdSendMessage
	default:
		return session.Command{}, false
	}
	return base, true
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
