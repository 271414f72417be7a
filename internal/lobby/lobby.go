// Package lobby runs one goroutine per live selection session. The goroutine
// owns the session document outright: joins, commands and teardown all arrive
// as messages on a single inbox, so every "first empty slot" style computation
// sees the authoritative state rather than a stale client snapshot.
package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scoutlink/alliance-backend/internal/session"
	"github.com/scoutlink/alliance-backend/internal/store"
)

type Msg interface{ isLobbyMsg() }

type Join struct {
	ClientID string
	Params   session.JoinParams
	Outbox   chan Outbound // where this client wants to receive frames
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ClientID string
	Cmd      session.Command // Actor is stamped from the registered identity
}

func (FromClient) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type OutboundKind string

const (
	OutSnapshot OutboundKind = "snapshot"
	OutError    OutboundKind = "error"
	OutKicked   OutboundKind = "kicked"
	OutEnded    OutboundKind = "ended"
)

// Outbound is one frame pushed to a subscriber. Snapshot documents are clones
// shared read-only between all subscribers of the same version.
type Outbound struct {
	Kind     OutboundKind
	Version  int
	Document *session.Document
	Error    string
}

type View struct {
	Version    int
	NumClients int
	Document   *session.Document
}

type client struct {
	uid    string
	outbox chan Outbound
}

const persistTimeout = 5 * time.Second

// persistReq is one store write. A nil reply means write-behind; the
// completion write carries a reply channel so the lobby can refuse to tear
// down until the write lands.
type persistReq struct {
	doc   *session.Document
	reply chan error
}

type Lobby struct {
	inbox   chan Msg
	doc     *session.Document
	version int
	clients map[string]*client
	st      store.Store
	log     *zap.Logger

	// onEnd fires once when the session completes, so the hub can drop the
	// code mapping and clear the live-session pointer.
	onEnd func()

	persistCh chan persistReq
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewLobby(parent context.Context, doc *session.Document, st store.Store, log *zap.Logger, onEnd func()) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	doc.Normalize()

	l := &Lobby{
		inbox:     make(chan Msg, 64),
		doc:       doc,
		clients:   make(map[string]*client),
		st:        st,
		log:       log.With(zap.String("code", doc.Code)),
		onEnd:     onEnd,
		persistCh: make(chan persistReq, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
	go l.loop()
	go l.persister()
	return l
}

// Inbox exposes the message channel to the transport layer and tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)

			case Leave:
				delete(l.clients, msg.ClientID)
				if len(l.clients) == 0 && l.doc.Status == session.StatusCompleted {
					l.shutdown()
					return
				}

			case FromClient:
				l.handleCommand(msg)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Document:   l.doc.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleJoin(msg Join) {
	if l.doc.Status == session.StatusCompleted && msg.Params.UID != l.doc.HostUID {
		l.send(&client{outbox: msg.Outbox}, Outbound{Kind: OutEnded})
		close(msg.Outbox)
		return
	}

	role, changed := session.JoinParticipant(l.doc, msg.Params)
	l.clients[msg.ClientID] = &client{uid: msg.Params.UID, outbox: msg.Outbox}
	l.log.Info("participant joined",
		zap.String("uid", msg.Params.UID),
		zap.String("role", string(role)))

	if changed {
		l.commit()
		return
	}
	// rejoin with nothing to write: only the joiner needs the current state
	l.send(l.clients[msg.ClientID], Outbound{Kind: OutSnapshot, Version: l.version, Document: l.doc.Clone()})
}

func (l *Lobby) handleCommand(msg FromClient) {
	c, ok := l.clients[msg.ClientID]
	if !ok {
		return
	}
	cmd := msg.Cmd
	cmd.Actor = c.uid

	// Ending the session is the one write whose durability the caller must
	// observe before teardown proceeds, so it persists synchronously and is
	// abandoned outright on store failure.
	if cmd.Type == session.CmdEndSession {
		l.handleEndSession(c, cmd)
		return
	}

	if err := session.Apply(l.doc, cmd); err != nil {
		if session.IsSilent(err) {
			l.log.Debug("command dropped",
				zap.String("type", string(cmd.Type)),
				zap.String("uid", c.uid),
				zap.Error(err))
			return
		}
		l.send(c, Outbound{Kind: OutError, Error: err.Error()})
		return
	}
	l.commit()
}

func (l *Lobby) handleEndSession(c *client, cmd session.Command) {
	next := l.doc.Clone()
	if err := session.Apply(next, cmd); err != nil {
		if !session.IsSilent(err) {
			l.send(c, Outbound{Kind: OutError, Error: err.Error()})
		}
		return
	}

	// The completion write goes through the persister goroutine like every
	// other write, so any earlier still-active snapshot is flushed first and
	// can never land after it and resurrect the session. The lobby blocks
	// here until the write is durable; on failure the document is unchanged
	// and no teardown happens.
	reply := make(chan error, 1)
	select {
	case l.persistCh <- persistReq{doc: next.Clone(), reply: reply}:
	case <-l.ctx.Done():
		return
	}
	var err error
	select {
	case err = <-reply:
	case <-l.ctx.Done():
		return
	}
	if err != nil {
		l.log.Error("persisting session completion", zap.Error(err))
		l.send(c, Outbound{Kind: OutError, Error: "failed to end session, try again"})
		return
	}

	l.doc = next
	l.version++
	l.broadcast()
	l.prune()
	if l.onEnd != nil {
		l.onEnd()
		l.onEnd = nil
	}
}

// commit is the single exit path for an applied mutation: bump the version,
// fan the new snapshot out, schedule write-behind persistence, then detach any
// subscriber whose participant entry the mutation removed.
func (l *Lobby) commit() {
	l.version++
	l.broadcast()
	l.schedulePersist()
	l.prune()
}

func (l *Lobby) broadcast() {
	snap := l.doc.Clone()
	for id, c := range l.clients {
		select {
		case c.outbox <- Outbound{Kind: OutSnapshot, Version: l.version, Document: snap}:
		default:
			// slow consumer, drop it
			close(c.outbox)
			delete(l.clients, id)
		}
	}
}

// prune detaches every subscriber without a participant entry. Removal by the
// host and session completion both surface this way, checked after every
// mutation rather than only at connect time.
func (l *Lobby) prune() {
	kind := OutKicked
	if l.doc.Status == session.StatusCompleted {
		kind = OutEnded
	}
	for id, c := range l.clients {
		if _, ok := l.doc.Participants[c.uid]; ok {
			continue
		}
		l.send(c, Outbound{Kind: kind})
		close(c.outbox)
		delete(l.clients, id)
		l.log.Info("participant detached",
			zap.String("uid", c.uid),
			zap.String("reason", string(kind)))
	}
}

func (l *Lobby) send(c *client, out Outbound) {
	select {
	case c.outbox <- out:
	default:
	}
}

// schedulePersist hands the current snapshot to the persister, replacing any
// not-yet-written older snapshot. Only the latest state matters on disk. The
// replaced entry is always a write-behind request: a completion request never
// waits here, because the lobby blocks on its reply before issuing anything
// else.
func (l *Lobby) schedulePersist() {
	req := persistReq{doc: l.doc.Clone()}
	for {
		select {
		case l.persistCh <- req:
			return
		default:
			select {
			case <-l.persistCh:
			default:
			}
		}
	}
}

// persister applies store writes one at a time, in the order the lobby issued
// them. This single-goroutine ordering is what keeps a stale active snapshot
// from ever overtaking the completion write.
func (l *Lobby) persister() {
	for {
		select {
		case <-l.ctx.Done():
			// flush whatever is still queued before exiting
			select {
			case req := <-l.persistCh:
				l.persist(req)
			default:
			}
			return
		case req := <-l.persistCh:
			l.persist(req)
		}
	}
}

func (l *Lobby) persist(req persistReq) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := l.st.Update(ctx, req.doc)
	if req.reply != nil {
		req.reply <- err
		return
	}
	if err != nil {
		l.log.Warn("persisting session snapshot",
			zap.Int("participants", len(req.doc.Participants)),
			zap.Error(err))
	}
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.outbox)
		delete(l.clients, id)
	}
	l.cancel()
}
