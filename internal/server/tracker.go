package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"league-tracker/internal/peer"
	"league-tracker/internal/service"
	"league-tracker/internal/snapshot"
)

type TrackerServer struct {
	playerSvc   *service.PlayerService
	matchSvc    *service.MatchService
	statsSvc    *service.StatsService
	snapshotSvc *service.SnapshotService
	peerClient  *peer.Client
	logger      zerolog.Logger
}

func NewTrackerServer(
	playerSvc *service.PlayerService,
	matchSvc *service.MatchService,
	statsSvc *service.StatsService,
	snapshotSvc *service.SnapshotService,
	peerClient *peer.Client,
	logger zerolog.Logger,
) *TrackerServer {
	return &TrackerServer{
		playerSvc:   playerSvc,
		matchSvc:    matchSvc,
		statsSvc:    statsSvc,
		snapshotSvc: snapshotSvc,
		peerClient:  peerClient,
		logger:      logger,
	}
}

func (s *TrackerServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/players", s.listPlayers)
	mux.HandleFunc("POST /v1/players", s.registerPlayer)
	mux.HandleFunc("GET /v1/players/{id}", s.getPlayer)
	mux.HandleFunc("PUT /v1/players/{id}", s.updatePlayer)
	mux.HandleFunc("DELETE /v1/players/{id}", s.deletePlayer)
	mux.HandleFunc("POST /v1/players/{id}/availability", s.toggleAvailability)
	mux.HandleFunc("POST /v1/draft", s.generateTeams)
	mux.HandleFunc("GET /v1/matches", s.listMatches)
	mux.HandleFunc("POST /v1/matches", s.recordMatch)
	mux.HandleFunc("POST /v1/matches/generic", s.recordMatchGeneric)
	mux.HandleFunc("GET /v1/leaderboard", s.leaderboard)
	mux.HandleFunc("GET /v1/export", s.exportData)
	mux.HandleFunc("POST /v1/import", s.importData)
	mux.HandleFunc("POST /v1/sync", s.receiveSync)
	mux.HandleFunc("POST /v1/sync/push", s.pushSync)
	return mux
}

type playerRequest struct {
	Name     string `json:"name"`
	Reflexes int    `json:"reflexes"`
	Setting  int    `json:"setting"`
	Defense  int    `json:"defense"`
	Spike    int    `json:"spike"`
	GameIQ   int    `json:"gameIq"`
	IsIcon   bool   `json:"isIcon"`
}

func (r playerRequest) toInput() service.RatingInput {
	return service.RatingInput{
		Name:     r.Name,
		Reflexes: r.Reflexes,
		Setting:  r.Setting,
		Defense:  r.Defense,
		Spike:    r.Spike,
		GameIQ:   r.GameIQ,
		IsIcon:   r.IsIcon,
	}
}

type playerResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Reflexes  int               `json:"reflexes"`
	Setting   int               `json:"setting"`
	Defense   int               `json:"defense"`
	Spike     int               `json:"spike"`
	GameIQ    int               `json:"gameIq"`
	Average   float64           `json:"average"`
	Available bool              `json:"available"`
	IsIcon    bool              `json:"isIcon"`
	Card      string            `json:"card"`
	History   []historyResponse `json:"history,omitempty"`
}

type historyResponse struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Reason  string  `json:"reason"`
}

func toPlayerResponse(p domain.Player, withHistory bool) playerResponse {
	resp := playerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Reflexes:  p.Reflexes,
		Setting:   p.Setting,
		Defense:   p.Defense,
		Spike:     p.Spike,
		GameIQ:    p.GameIQ,
		Average:   p.Average,
		Available: p.Available,
		IsIcon:    p.IsIcon,
		Card:      string(p.Card()),
	}
	if withHistory {
		for _, h := range p.History {
			resp.History = append(resp.History, historyResponse{
				Date:    h.Date.Format("2006-01-02"),
				Average: h.Average,
				Reason:  h.Reason,
			})
		}
	}
	return resp
}

func (s *TrackerServer) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.playerSvc.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]playerResponse, 0, len(players))
	for _, p := range players {
		resp = append(resp, toPlayerResponse(p, false))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *TrackerServer) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	player, err := s.playerSvc.Register(r.Context(), req.toInput())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toPlayerResponse(*player, true))
}

func (s *TrackerServer) getPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.playerSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPlayerResponse(*player, true))
}

func (s *TrackerServer) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	player, err := s.playerSvc.Update(r.Context(), r.PathValue("id"), req.toInput())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPlayerResponse(*player, true))
}

func (s *TrackerServer) deletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.playerSvc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	available, err := s.playerSvc.ToggleAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

type draftRequest struct {
	NumTeams int `json:"numTeams"`
}

type draftResponse struct {
	Teams    [][]playerResponse `json:"teams"`
	Averages []float64          `json:"averages"`
	Highest  float64            `json:"highest"`
	Lowest   float64            `json:"lowest"`
	Spread   float64            `json:"spread"`
}

func (s *TrackerServer) generateTeams(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.NumTeams == 0 {
		req.NumTeams = constants.DefaultTeamCount
	}
	partition, err := s.matchSvc.GenerateTeams(r.Context(), req.NumTeams)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := draftResponse{
		Averages: partition.Averages,
		Highest:  partition.Highest,
		Lowest:   partition.Lowest,
		Spread:   partition.Spread,
	}
	for _, team := range partition.Teams {
		members := make([]playerResponse, 0, len(team))
		for _, p := range team {
			members = append(members, toPlayerResponse(p, false))
		}
		resp.Teams = append(resp.Teams, members)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type matchRequest struct {
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`
	Notes   string   `json:"notes"`
}

type matchGenericRequest struct {
	Teams       [][]string `json:"teams"`
	WinnerIndex int        `json:"winnerIndex"`
	Notes       string     `json:"notes"`
}

type matchResponse struct {
	ID    int64               `json:"id"`
	Date  string              `json:"date"`
	Teams []matchTeamResponse `json:"teams"`
	Notes string              `json:"notes"`
}

type matchTeamResponse struct {
	Players []string `json:"players"`
	Average float64  `json:"average"`
	Result  string   `json:"result"`
}

func toMatchResponse(m domain.Match) matchResponse {
	resp := matchResponse{
		ID:    m.ID,
		Date:  m.Date.Format("2006-01-02"),
		Notes: m.Notes,
	}
	for _, t := range m.Teams {
		resp.Teams = append(resp.Teams, matchTeamResponse{
			Players: t.PlayerIDs,
			Average: t.Average,
			Result:  string(t.Result),
		})
	}
	return resp
}

func (s *TrackerServer) recordMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	winners, err := s.matchSvc.ResolvePlayers(r.Context(), req.Winners)
	if err != nil {
		s.writeError(w, err)
		return
	}
	losers, err := s.matchSvc.ResolvePlayers(r.Context(), req.Losers)
	if err != nil {
		s.writeError(w, err)
		return
	}

	match, err := s.matchSvc.RecordMatch(r.Context(), winners, losers, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMatchResponse(*match))
}

func (s *TrackerServer) recordMatchGeneric(w http.ResponseWriter, r *http.Request) {
	var req matchGenericRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	teams := make([][]domain.Player, 0, len(req.Teams))
	for _, ids := range req.Teams {
		team, err := s.matchSvc.ResolvePlayers(r.Context(), ids)
		if err != nil {
			s.writeError(w, err)
			return
		}
		teams = append(teams, team)
	}

	match, err := s.matchSvc.RecordMatchGeneric(r.Context(), teams, req.WinnerIndex, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMatchResponse(*match))
}

func (s *TrackerServer) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.matchSvc.ListMatches(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, toMatchResponse(m))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type leaderboardEntryResponse struct {
	Rank    int            `json:"rank"`
	Player  playerResponse `json:"player"`
	Wins    int            `json:"wins"`
	Losses  int            `json:"losses"`
	Total   int            `json:"total"`
	WinRate float64        `json:"winRate"`
}

func (s *TrackerServer) leaderboard(w http.ResponseWriter, r *http.Request) {
	filter := domain.ParseTimeFilter(r.URL.Query().Get("filter"))
	sortBy := domain.ParseSortKey(r.URL.Query().Get("sort"))

	entries, err := s.statsSvc.Leaderboard(r.Context(), filter, sortBy)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]leaderboardEntryResponse, 0, len(entries))
	for i, e := range entries {
		resp = append(resp, leaderboardEntryResponse{
			Rank:    i + 1,
			Player:  toPlayerResponse(e.Player, false),
			Wins:    e.Wins,
			Losses:  e.Losses,
			Total:   e.Total,
			WinRate: e.WinRate,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *TrackerServer) exportData(w http.ResponseWriter, r *http.Request) {
	payload, err := s.snapshotSvc.Export(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="league-export.json"`)
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *TrackerServer) importData(w http.ResponseWriter, r *http.Request) {
	s.importPayload(w, r)
}

// receiveSync accepts a snapshot pushed by a peer instance; semantics are
// identical to a file import.
func (s *TrackerServer) receiveSync(w http.ResponseWriter, r *http.Request) {
	s.importPayload(w, r)
}

func (s *TrackerServer) importPayload(w http.ResponseWriter, r *http.Request) {
	var payload snapshot.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	players, matches, err := s.snapshotSvc.Import(r.Context(), &payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, peer.PushResult{Players: players, Matches: matches})
}

type pushRequest struct {
	Peer string `json:"peer"`
}

func (s *TrackerServer) pushSync(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Peer == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody("peer address is required"))
		return
	}

	payload, err := s.snapshotSvc.Export(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.peerClient.Push(r.Context(), req.Peer, payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientPlayers),
		errors.Is(err, domain.ErrInvalidSelection),
		errors.Is(err, domain.ErrInvalidSnapshot):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
