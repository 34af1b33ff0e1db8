package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"intervuex/internal/auth"
	"intervuex/internal/errs"
	"intervuex/internal/integrity"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type SessionReader interface {
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
}

type SignalIngestor interface {
	Ingest(ctx context.Context, sessionID string, sample integrity.Sample) []*integrity.RecordResult
	Forget(sessionID string)
}

// RateConfig is the per-connection token bucket for candidate signals.
type RateConfig struct {
	PerSecond float64
	Burst     int
}

const ingestTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Handler struct {
	hub      *Hub
	tokens   TokenParser
	sessions SessionReader
	ingestor SignalIngestor
	rate     RateConfig
	logger   *zap.Logger
}

func NewHandler(hub *Hub, tokens TokenParser, sessions SessionReader, ingestor SignalIngestor, rateCfg RateConfig, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		tokens:   tokens,
		sessions: sessions,
		ingestor: ingestor,
		rate:     rateCfg,
		logger:   utils.OrNop(logger),
	}
}

// SessionWS joins the caller to the session room. The candidate of the session streams
// signal frames; the owning recruiter observes violation, integrity and lifecycle frames.
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	claims, err := h.authenticate(r)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, errs.CodeUnauthenticated, err.Error())
		return
	}
	session, err := h.sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, errs.CodeNotFound, "session not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, errs.CodeInternal, "failed to load session")
		return
	}
	if !canJoin(claims, session) {
		utils.JSONError(w, http.StatusForbidden, errs.CodeForbidden, "not a participant of this session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var limiter *rate.Limiter
	if claims.Role == auth.RoleCandidate && h.rate.PerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.rate.PerSecond), h.rate.Burst)
	}
	client := NewClient(conn, claims.Role, limiter)
	h.hub.Join(sessionID, client)
	metrics.ConnectionOpened(string(claims.Role))
	defer func() {
		h.hub.Release(sessionID, client)
		metrics.ConnectionClosed(string(claims.Role))
		if claims.Role == auth.RoleCandidate {
			h.ingestor.Forget(sessionID)
		}
	}()

	// a failed write closes conn, so the read loop below ends on its own after later sends
	if err := client.Send(Frame{Type: FrameInit, Data: map[string]any{
		"sessionId": sessionID,
		"role":      claims.Role,
		"status":    session.Status,
	}}); err != nil {
		return
	}

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case FrameSignal:
			if claims.Role != auth.RoleCandidate {
				client.Send(errFrame("signals are accepted from the candidate only"))
				continue
			}
			if !client.Allow() {
				metrics.SignalDropped("rate_limited")
				client.Send(errFrame("rate_limited"))
				continue
			}
			var sample integrity.Sample
			if err := decode(frame.Data, &sample); err != nil || sample.Kind == "" {
				metrics.SignalDropped("malformed")
				client.Send(errFrame("malformed_signal"))
				continue
			}
			h.ingest(client, sessionID, sample)

		case FramePing:
			client.Send(Frame{Type: FramePong})

		default:
			client.Send(errFrame("unknown_type"))
		}
	}
}

func (h *Handler) ingest(client *Client, sessionID string, sample integrity.Sample) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	results := h.ingestor.Ingest(ctx, sessionID, sample)
	recorded := make([]string, 0, len(results))
	for _, res := range results {
		recorded = append(recorded, res.Violation.Type)
	}
	client.Send(Frame{Type: FrameAck, Data: map[string]any{"kind": sample.Kind, "recorded": recorded}})
}

func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		var err error
		if raw, err = auth.ExtractBearer(r.Header.Get("Authorization")); err != nil {
			return nil, err
		}
	}
	return h.tokens.Parse(raw)
}

func canJoin(claims *auth.Claims, session *models.InterviewSession) bool {
	switch claims.Role {
	case auth.RoleCandidate:
		return claims.SessionID == session.ID && claims.Subject == session.CandidateID
	case auth.RoleRecruiter:
		return claims.Subject == session.RecruiterID
	default:
		return false
	}
}

func decode(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func errFrame(msg string) Frame { return Frame{Type: FrameError, Data: msg} }
