package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/app/dto"
	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
	"github.com/Insanely-69/CelestialSword2/internal/handlers/websocket"
	"github.com/Insanely-69/CelestialSword2/pkg/utils"
)

// Server represents an HTTP server with all routes configured
type Server struct {
	ledger      *service.LedgerService
	directory   *service.DirectoryService
	reports     *service.ReportService
	broadcaster *websocket.WebSocketBroadcaster
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, ledger *service.LedgerService, directory *service.DirectoryService, reports *service.ReportService, broadcaster *websocket.WebSocketBroadcaster) *Server {
	mux := http.NewServeMux()

	server := &Server{
		ledger:      ledger,
		directory:   directory,
		reports:     reports,
		broadcaster: broadcaster,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	// Query endpoints
	s.mux.HandleFunc("/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("/players", s.handlePlayers)
	s.mux.HandleFunc("/player", s.handlePlayer)
	s.mux.HandleFunc("/report", s.handleReport)

	// Admin endpoints
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/unregister", s.handleUnregister)
	s.mux.HandleFunc("/target", s.handleTarget)

	// Health check endpoint
	s.mux.HandleFunc("/health", s.handleHealth)

	// WebSocket endpoint
	s.mux.HandleFunc("/ws", s.broadcaster.Handler())
}

type leaderboardResponse struct {
	Guild      string                    `json:"guild"`
	Entries    []dto.LeaderboardEntryDTO `json:"entries"`
	WeeklySum  int64                     `json:"weekly_sum"`
	AllTimeSum int64                     `json:"all_time_sum"`
	Target     int64                     `json:"target,omitempty"`
	Progress   string                    `json:"progress,omitempty"`
}

// handleLeaderboard serves the ranked weekly + all-time view for one guild
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	guild := r.URL.Query().Get("guild")
	if guild == "" {
		http.Error(w, "guild query parameter required", http.StatusBadRequest)
		return
	}

	snap, err := s.ledger.Snapshot(r.Context(), guild)
	if err != nil {
		http.Error(w, "failed to get leaderboard", http.StatusInternalServerError)
		return
	}

	rows := s.reports.Leaderboard(snap, 10)
	resp := leaderboardResponse{
		Guild:      guild,
		Entries:    make([]dto.LeaderboardEntryDTO, len(rows)),
		WeeklySum:  snap.WeeklySum,
		AllTimeSum: snap.AllTimeSum,
		Target:     snap.Target,
	}
	for i, row := range rows {
		resp.Entries[i] = dto.LeaderboardEntryDTO{
			Rank:         row.Rank,
			Name:         row.Standing.Name,
			WeeklyAmount: row.Standing.WeeklyAmount,
			TotalAmount:  row.Standing.TotalAmount,
			Donations:    row.Standing.WeeklyCount,
			TimeLeft:     utils.FormatDuration(row.TimeLeft),
		}
	}
	if snap.Target > 0 {
		resp.Progress = utils.ProgressBar(snap.WeeklySum, snap.Target, 10)
	}

	writeJSON(w, resp)
}

// handlePlayers lists the guild's registered players with their standings
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	guild := r.URL.Query().Get("guild")
	if guild == "" {
		http.Error(w, "guild query parameter required", http.StatusBadRequest)
		return
	}

	roster := s.directory.Roster(guild)

	type playerRow struct {
		Identity     string `json:"identity"`
		Name         string `json:"name"`
		WeeklyAmount int64  `json:"weekly_amount"`
		TotalAmount  int64  `json:"total_amount"`
	}
	rows := make([]playerRow, 0, len(roster))
	for identity, name := range roster {
		row := playerRow{Identity: identity, Name: name}
		if standing, err := s.ledger.PlayerStats(r.Context(), guild, identity); err == nil && standing != nil {
			row.WeeklyAmount = standing.WeeklyAmount
			row.TotalAmount = standing.TotalAmount
		}
		rows = append(rows, row)
	}

	writeJSON(w, rows)
}

// handlePlayer serves one player's stats, looked up by display name
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	guild := r.URL.Query().Get("guild")
	name := r.URL.Query().Get("name")
	if guild == "" || name == "" {
		http.Error(w, "guild and name query parameters required", http.StatusBadRequest)
		return
	}

	identity, _, ok := s.directory.FindByName(guild, name)
	if !ok {
		http.Error(w, "player not registered", http.StatusNotFound)
		return
	}

	standing, err := s.ledger.PlayerStats(r.Context(), guild, identity)
	if err != nil {
		http.Error(w, "failed to get player stats", http.StatusInternalServerError)
		return
	}
	if standing == nil {
		http.Error(w, "no donations recorded", http.StatusNotFound)
		return
	}

	resp := struct {
		model.PlayerStanding
		Rank string `json:"rank,omitempty"`
	}{PlayerStanding: *standing}
	if snap, err := s.ledger.Snapshot(r.Context(), guild); err == nil {
		if rank, ok := s.reports.PlayerRank(snap, identity); ok {
			resp.Rank = rank
		}
	}

	writeJSON(w, resp)
}

// handleReport serves the weekly summary as plain text
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	guild := r.URL.Query().Get("guild")
	if guild == "" {
		http.Error(w, "guild query parameter required", http.StatusBadRequest)
		return
	}

	snap, err := s.ledger.Snapshot(r.Context(), guild)
	if err != nil {
		http.Error(w, "failed to get report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(s.reports.WeeklySummary(snap))); err != nil {
		log.Printf("failed to write report: %v", err)
	}
}

type registerRequest struct {
	Guild    string `json:"guild"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// handleRegister registers a player for donation tracking
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Guild == "" || req.Identity == "" {
		http.Error(w, "guild and identity required", http.StatusBadRequest)
		return
	}

	if err := s.directory.Register(req.Guild, req.Identity, req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]string{"status": "registered"})
}

// handleUnregister removes a player from donation tracking
func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	removed, err := s.directory.Unregister(req.Guild, req.Identity)
	if err != nil {
		http.Error(w, "failed to unregister player", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "player was not registered", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{"status": "unregistered"})
}

type targetRequest struct {
	Guild  string `json:"guild"`
	Amount int64  `json:"amount"`
}

// handleTarget sets the guild's weekly donation target
func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Guild == "" {
		http.Error(w, "guild required", http.StatusBadRequest)
		return
	}

	if err := s.ledger.SetTarget(req.Guild, req.Amount); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]string{"status": "target set"})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
