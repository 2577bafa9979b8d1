package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"i4.energy/across/smswatch/archive"
	"i4.energy/across/smswatch/modem"
)

// Device is the part of the modem the server exposes. Listing goes through
// PeekMessages so that inspecting never marks messages as read.
type Device interface {
	PeekMessages(ctx context.Context, filter modem.Filter, mode modem.Mode) ([]modem.SMS, error)
	AnswerCall(ctx context.Context) (*modem.Result, error)
}

// ArchiveReader reads archived messages.
type ArchiveReader interface {
	Recent(ctx context.Context, limit int) ([]archive.Record, error)
}

// Server handles incoming HTTP requests for inspecting the configured modem
// instance and the message archive
type Server struct {
	Logger *zap.Logger
	Modem  Device
	// Archive is nil when archiving is disabled.
	Archive ArchiveReader
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /messages", s.handleMessages)
	mux.HandleFunc("POST /call/answer", s.handleAnswer)
	mux.HandleFunc("GET /archive", s.handleArchive)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", zap.Error(err))
	}
}

// handleMessages lists the messages stored on the modem
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := modem.FilterAll
	if status := q.Get("status"); status != "" {
		var err error
		if filter, err = modem.ParseFilter(status); err != nil {
			s.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	mode, err := modem.ParseMode(q.Get("mode"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	messages, err := s.Modem.PeekMessages(r.Context(), filter, mode)
	if err != nil {
		s.Logger.Error("Failed to list messages", zap.Error(err), zap.Stringer("filter", filter))
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if messages == nil {
		messages = []modem.SMS{}
	}

	s.Logger.Info("Listed messages", zap.Stringer("filter", filter), zap.Int("count", len(messages)))
	s.sendJSON(w, messages, http.StatusOK)
}

// handleAnswer picks up an incoming call
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	res, err := s.Modem.AnswerCall(r.Context())
	if err != nil {
		s.Logger.Error("Failed to answer call", zap.Error(err))
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	type AnswerResponse struct {
		Status modem.Status `json:"status"`
		Lines  []string     `json:"lines"`
	}
	s.sendJSON(w, AnswerResponse{Status: res.Status(), Lines: res.Lines()}, http.StatusOK)
}

// handleArchive returns the most recently archived messages
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		s.sendError(w, "archive is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			s.sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.Archive.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Error("Failed to read archive", zap.Error(err))
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	s.sendJSON(w, records, http.StatusOK)
}
