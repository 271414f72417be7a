// Package hub owns the registry of live lobbies, keyed by join code, and the
// single "live session" discovery pointer a host can broadcast to teammates
// who have not joined yet.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/scoutlink/alliance-backend/internal/lobby"
	"github.com/scoutlink/alliance-backend/internal/session"
	"github.com/scoutlink/alliance-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Doc   *session.Document
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type SetLive struct {
	Live LiveSession
}

type GetLive struct {
	Reply chan *LiveSession
}

type ClearLive struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (SetLive) isHubMsg()     {}
func (GetLive) isHubMsg()     {}
func (ClearLive) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

// LiveSession is the discovery side channel: one shared pointer, not part of
// the session document, cleared when the session ends.
type LiveSession struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
	CreatedBy string `json:"created_by"`
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	live    *LiveSession
	st      store.Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		st:      st,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				code := msg.Doc.Code
				if lb := h.lobbies[code]; lb != nil {
					msg.Reply <- lb
					break
				}
				lb := h.spawn(msg.Doc)
				h.lobbies[code] = lb
				msg.Reply <- lb

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // may be nil

			case RemoveLobby:
				delete(h.lobbies, msg.Code)

			case SetLive:
				live := msg.Live
				h.live = &live
				h.log.Info("live session broadcast", zap.String("code", live.Code))

			case GetLive:
				if h.live == nil {
					msg.Reply <- nil
					break
				}
				live := *h.live
				msg.Reply <- &live

			case ClearLive:
				if h.live != nil && h.live.Code == msg.Code {
					h.live = nil
				}

			case ShutdownHub:
				for _, lb := range h.lobbies {
					lb.Inbox() <- lobby.Shutdown{}
				}
				clear(h.lobbies)
				h.cancel()
			}
		}
	}
}

func (h *Hub) spawn(doc *session.Document) *lobby.Lobby {
	code := doc.Code
	onEnd := func() {
		h.inbox <- RemoveLobby{Code: code}
		h.inbox <- ClearLive{Code: code}
	}
	return lobby.NewLobby(h.ctx, doc, h.st, h.log, onEnd)
}

// Resume restarts lobbies for every active session in the store. Called once
// at boot so participants can reconnect across a server restart.
func (h *Hub) Resume(ctx context.Context) (int, error) {
	docs, err := h.st.FindActive(ctx)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		reply := make(chan *lobby.Lobby, 1)
		h.inbox <- CreateLobby{Doc: doc, Reply: reply}
		<-reply
	}
	return len(docs), nil
}
