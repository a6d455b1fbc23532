// Package server provides a local HTTP gateway that answers Mapcode API
// requests from a source, so other tools can use the cache and the offline
// fallback.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/mapcodeapi"
	"github.com/hightemp/mapcode/internal/source"
)

const shutdownTimeout = 5 * time.Second

// Server serves the gateway routes.
type Server struct {
	src    source.Source
	logger *slog.Logger
	router *mux.Router
}

// New creates a gateway backed by src.
func New(src source.Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		src:    src,
		logger: logger.With("component", "server"),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestID, accessLog(s.logger))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/mapcode/codes/{latlon}", s.handleCodes).Methods(http.MethodGet)
	s.router.HandleFunc("/mapcode/coords/{mapcode}", s.handleCoords).Methods(http.MethodGet)
	s.router.HandleFunc("/mapcode/territories", s.handleTerritories).Methods(http.MethodGet)
	s.router.HandleFunc("/mapcode/territories/", s.handleTerritories).Methods(http.MethodGet)
}

// Handler returns the HTTP handler of the gateway.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "mode", s.src.Mode())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(s.src.Mode()),
	})
}

func (s *Server) handleCodes(w http.ResponseWriter, r *http.Request) {
	c, err := geo.Parse(mux.Vars(r)["latlon"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.src.Encode(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codesResponse(result))
}

func (s *Server) handleCoords(w http.ResponseWriter, r *http.Request) {
	code := mapcode.Normalize(mux.Vars(r)["mapcode"])
	if !mapcode.IsMapcode(code) {
		s.writeError(w, r, source.ErrNotFound)
		return
	}

	c, err := s.src.Decode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapcodeapi.CoordsResponse{LatDeg: &c.Lat, LonDeg: &c.Lon})
}

func (s *Server) handleTerritories(w http.ResponseWriter, r *http.Request) {
	table, err := s.src.Territories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := mapcodeapi.TerritoriesResponse{Total: table.Len()}
	for _, code := range table.Codes() {
		resp.Territories = append(resp.Territories, mapcodeapi.Territory{
			AlphaCode: code,
			FullName:  table[code],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// codesResponse converts a result into the shape of the codes endpoint:
// shortest local first, international last.
func codesResponse(r *mapcode.Result) mapcodeapi.CodesResponse {
	entries := r.Entries()
	resp := mapcodeapi.CodesResponse{Mapcodes: make([]mapcodeapi.CodeEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Mapcodes = append(resp.Mapcodes, codeEntry(e))
	}
	if len(entries) > 1 {
		local := resp.Mapcodes[0]
		resp.Local = &local
	}
	international := resp.Mapcodes[len(resp.Mapcodes)-1]
	resp.International = &international
	return resp
}

func codeEntry(m mapcode.Mapcode) mapcodeapi.CodeEntry {
	return mapcodeapi.CodeEntry{
		Mapcode:              m.Code,
		Territory:            m.Territory,
		TerritoryPlusMapcode: m.Full(),
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	code := "BAD_GATEWAY"
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude):
		status, code = http.StatusBadRequest, "INVALID_COORDINATE"
	case errors.Is(err, source.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, source.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "NOT_AVAILABLE_OFFLINE"
	}

	if status >= 500 {
		s.logger.Warn("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, mapcodeapi.ErrorResponse{Errors: []mapcodeapi.APIError{{
		Code:    code,
		Message: err.Error(),
		Status:  status,
	}}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
