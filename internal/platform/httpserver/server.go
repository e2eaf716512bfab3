package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	leaderboardservice "quorum/contexts/poll-core/leaderboard-service"
	leaderboarderrors "quorum/contexts/poll-core/leaderboard-service/domain/errors"
	leaderboardhttp "quorum/contexts/poll-core/leaderboard-service/transport/http"
	pollengine "quorum/contexts/poll-core/poll-engine"
	pollerrors "quorum/contexts/poll-core/poll-engine/domain/errors"
	pollhttp "quorum/contexts/poll-core/poll-engine/transport/http"
	tenantregistry "quorum/contexts/poll-core/tenant-registry"
	tenanterrors "quorum/contexts/poll-core/tenant-registry/domain/errors"
	tenanthttp "quorum/contexts/poll-core/tenant-registry/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "quorum/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	polls        pollengine.Module
	leaderboards leaderboardservice.Module
	tenants      tenantregistry.Module
}

func New(
	polls pollengine.Module,
	leaderboards leaderboardservice.Module,
	tenants tenantregistry.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		polls:        polls,
		leaderboards: leaderboards,
		tenants:      tenants,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/polls/v1/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /api/polls/v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("GET /api/polls/v1/active", s.handleActivePoll)
	s.mux.HandleFunc("POST /api/polls/v1/polls/{poll_id}/close", s.handleClosePoll)
	s.mux.HandleFunc("POST /api/polls/v1/polls/{poll_id}/reveal", s.handleRevealPoll)
	s.mux.HandleFunc("POST /api/polls/v1/polls/{poll_id}/cancel", s.handleCancelPoll)
	s.mux.HandleFunc("POST /api/polls/v1/polls/{poll_id}/archive", s.handleArchivePoll)
	s.mux.HandleFunc("PUT /api/polls/v1/polls/{poll_id}/votes", s.handleSubmitVote)
	s.mux.HandleFunc("GET /api/polls/v1/polls/{poll_id}/votes/me", s.handleGetBallot)
	s.mux.HandleFunc("GET /api/polls/v1/polls/{poll_id}/tally", s.handleGetTally)

	s.mux.HandleFunc("GET /api/leaderboards/v1/guilds/{guild_id}/{poll_type}", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/leaderboards/v1/guilds/{guild_id}/{poll_type}/voters/{voter_id}", s.handleVoterStanding)
	s.mux.HandleFunc("GET /api/leaderboards/v1/guilds/{guild_id}/{poll_type}/dashboard", s.handleDashboard)

	s.mux.HandleFunc("GET /api/tenants/v1/configs", s.handleListTenants)
	s.mux.HandleFunc("GET /api/tenants/v1/guilds/{guild_id}/{poll_type}", s.handleGetTenant)
	s.mux.HandleFunc("POST /api/tenants/v1/configs", s.handleRegisterTenant)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), userID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivePoll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	guildID := query.Get("guild_id")
	pollType := query.Get("poll_type")
	if strings.TrimSpace(guildID) == "" || strings.TrimSpace(pollType) == "" {
		writePollError(w, http.StatusBadRequest, "missing_tenant", "guild_id and poll_type query parameters are required")
		return
	}
	resp, found, err := s.polls.Handler.ActivePollHandler(r.Context(), guildID, pollType)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	if !found {
		writePollError(w, http.StatusNotFound, "no_active_poll", "tenant has no active poll")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ClosePollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevealPoll(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.RevealPollRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.polls.Handler.RevealPollHandler(r.Context(), r.PathValue("poll_id"), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.CancelPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchivePoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ArchivePollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.SubmitVoteHandler(r.Context(), r.PathValue("poll_id"), userID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.polls.Handler.BallotHandler(r.Context(), r.PathValue("poll_id"), userID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.TallyHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, ok := parseIntParam(w, query.Get("limit"), "limit")
	if !ok {
		return
	}
	offset, ok := parseIntParam(w, query.Get("offset"), "offset")
	if !ok {
		return
	}

	resp, err := s.leaderboards.Handler.LeaderboardHandler(
		r.Context(),
		r.PathValue("guild_id"),
		r.PathValue("poll_type"),
		limit,
		offset,
	)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterStanding(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leaderboards.Handler.StandingHandler(
		r.Context(),
		r.PathValue("guild_id"),
		r.PathValue("poll_type"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, ok := parseIntParam(w, query.Get("limit"), "limit")
	if !ok {
		return
	}
	resp, err := s.leaderboards.Handler.DashboardHandler(
		r.Context(),
		r.PathValue("guild_id"),
		r.PathValue("poll_type"),
		limit,
		query.Get("voter_id"),
	)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenants.Handler.ListTenantsHandler(r.Context())
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenants.Handler.GetTenantHandler(
		r.Context(),
		r.PathValue("guild_id"),
		r.PathValue("poll_type"),
	)
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req tenanthttp.RegisterTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTenantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tenants.Handler.RegisterTenantHandler(r.Context(), req)
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pollerrors.ErrUnknownTenant):
		writePollError(w, http.StatusNotFound, "unknown_tenant", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrBallotNotFound):
		writePollError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrConflictingActivePoll):
		writePollError(w, http.StatusConflict, "conflicting_active_poll", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotActive):
		writePollError(w, http.StatusConflict, "poll_not_active", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotClosed):
		writePollError(w, http.StatusConflict, "poll_not_closed", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotRevealed):
		writePollError(w, http.StatusConflict, "poll_not_revealed", err.Error())
	case errors.Is(err, pollerrors.ErrConflict):
		writePollError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, pollerrors.ErrInvalidPollInput),
		errors.Is(err, pollerrors.ErrInvalidOptionSelection):
		writePollError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, pollerrors.ErrNoAnswerKeyConfigured):
		writePollError(w, http.StatusUnprocessableEntity, "no_answer_key", err.Error())
	case errors.Is(err, pollerrors.ErrStorageUnavailable):
		writePollError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLeaderboardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboarderrors.ErrScoreNotFound):
		writeLeaderboardError(w, http.StatusNotFound, "score_not_found", err.Error())
	case errors.Is(err, leaderboarderrors.ErrInvalidInput):
		writeLeaderboardError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeLeaderboardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTenantDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenanterrors.ErrUnknownTenant):
		writeTenantError(w, http.StatusNotFound, "unknown_tenant", err.Error())
	case errors.Is(err, tenanterrors.ErrInvalidTenant):
		writeTenantError(w, http.StatusBadRequest, "invalid_tenant", err.Error())
	case errors.Is(err, tenanterrors.ErrDuplicateTenant):
		writeTenantError(w, http.StatusConflict, "duplicate_tenant", err.Error())
	default:
		writeTenantError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeLeaderboardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, leaderboardhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeTenantError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, tenanthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseIntParam(w http.ResponseWriter, raw string, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, pollhttp.ErrorResponse{
			Code:    "invalid_" + name,
			Message: name + " must be an integer",
		})
		return 0, false
	}
	return value, true
}
