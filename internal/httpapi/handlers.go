package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scoutlink/alliance-backend/internal/hub"
	"github.com/scoutlink/alliance-backend/internal/lobby"
	"github.com/scoutlink/alliance-backend/internal/session"
	"github.com/scoutlink/alliance-backend/internal/store"
)

type createSessionRequest struct {
	HostUID            string                  `json:"host_uid"`
	HostName           string                  `json:"host_name"`
	HostTeam           int                     `json:"host_team,omitempty"`
	PickList           []session.PickListEntry `json:"pick_list"`
	Roster             []int                   `json:"roster"`
	BroadcastLive      bool                    `json:"broadcast_live,omitempty"`
	RejectOverflowPick bool                    `json:"reject_overflow_pick,omitempty"`
}

type createSessionResponse struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
}

// pickCode draws join codes until one is free among active sessions, bounded
// by MaxCodeAttempts. On exhaustion the last draw is used anyway; a duplicate
// is a tolerated small risk.
func pickCode(r *http.Request, st store.Store) (string, error) {
	var code string
	for i := 0; i < session.MaxCodeAttempts; i++ {
		c, err := session.GenerateCode()
		if err != nil {
			return "", err
		}
		code = c
		if _, err := st.FindByCode(r.Context(), c); errors.Is(err, store.ErrNotFound) {
			break
		}
	}
	return code, nil
}

func CreateSession(h *hub.Hub, st store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.HostUID = strings.TrimSpace(req.HostUID)
		req.HostName = strings.TrimSpace(req.HostName)
		if req.HostUID == "" || req.HostName == "" {
			writeJSONError(w, http.StatusBadRequest, "host_uid and host_name are required")
			return
		}
		if len(req.Roster) == 0 {
			writeJSONError(w, http.StatusBadRequest, "roster is required")
			return
		}

		code, err := pickCode(r, st)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to generate code")
			return
		}

		doc := session.Build(session.CreateParams{
			Code:     code,
			HostUID:  req.HostUID,
			HostName: req.HostName,
			HostTeam: req.HostTeam,
			PickList: req.PickList,
			Roster:   req.Roster,
			Settings: session.Settings{RejectOverflowPick: req.RejectOverflowPick},
		})
		if err := st.Create(r.Context(), doc); err != nil {
			log.Error("creating session", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to create session")
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.CreateLobby{Doc: doc, Reply: reply}
		if <-reply == nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to start session")
			return
		}

		if req.BroadcastLive {
			h.Inbox() <- hub.SetLive{Live: hub.LiveSession{
				Code:      code,
				SessionID: doc.ID,
				CreatedBy: req.HostUID,
			}}
		}

		log.Info("session created",
			zap.String("code", code),
			zap.String("host", req.HostUID),
			zap.Int("teams", len(doc.Teams)))
		writeJSON(w, http.StatusCreated, createSessionResponse{Code: code, SessionID: doc.ID})
	}
}

type sessionInfoResponse struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Host      string `json:"host"`
}

// GetSession is the join-by-code lookup. A miss is a user-visible message,
// not a retryable condition.
func GetSession(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		doc, err := st.FindByCode(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, sessionInfoResponse{
			Code:      doc.Code,
			SessionID: doc.ID,
			Status:    string(doc.Status),
			Host:      doc.HostUID,
		})
	}
}

func GetLiveSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan *hub.LiveSession, 1)
		h.Inbox() <- hub.GetLive{Reply: reply}
		live := <-reply
		if live == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, live)
	}
}

type guestJoinRequest struct {
	DisplayName string `json:"display_name"`
}

type guestJoinResponse struct {
	UID  string `json:"uid"`
	Code string `json:"code"`
}

// GuestJoin mints a throwaway uid for someone without standing access to the
// app, scoped to one join code. The caller takes the uid to the websocket
// join flow and queues as pending like anyone else.
func GuestJoin(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		var req guestJoinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DisplayName) == "" {
			writeJSONError(w, http.StatusBadRequest, "display_name is required")
			return
		}
		if _, err := st.FindByCode(r.Context(), code); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, "session not found")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, guestJoinResponse{
			UID:  "guest-" + uuid.NewString(),
			Code: code,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
