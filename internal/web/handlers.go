package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"linkfeed/pkg/tracker"
	"linkfeed/pkg/voyager"
)

type userRequest struct {
	Username string `json:"username"`
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func decodeUserRequest(r *http.Request) (string, error) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	username := voyager.SanitizeUsername(req.Username)
	if username == "" {
		return "", errors.New("username is required")
	}
	return username, nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.tracked.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []*tracker.TrackedProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	username, err := decodeUserRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.tracked.Upsert(&tracker.TrackedProfile{Username: username}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// collect the new profile's feed in the background
	go func() {
		if _, err := s.runner.Run(context.Background(), username); err != nil {
			s.logger.WarnWithFields("initial collection failed", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"username": username})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	username, err := decodeUserRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.tracked.Remove(username); err != nil {
		if errors.Is(err, tracker.ErrNotTracked) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	if s.status.IsRunning() {
		writeError(w, http.StatusConflict, "a collection run is already in progress")
		return
	}

	go s.refreshAll(context.Background())

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Get())
}

func (s *Server) handleStatusReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Force bool `json:"force"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.status.Reset(req.Force); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.status.Get())
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.tracked.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filter := voyager.SanitizeUsername(r.URL.Query().Get("username"))

	usernames := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if filter != "" && p.Username != filter {
			continue
		}
		usernames = append(usernames, p.Username)
	}

	items, err := s.buildFeed(usernames)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	file := chi.URLParam(r, "file")

	// reject anything that could escape the media directory
	if strings.ContainsAny(username+file, "/\\") || strings.Contains(file, "..") || strings.Contains(username, "..") {
		writeError(w, http.StatusBadRequest, "invalid media path")
		return
	}

	path := filepath.Join(s.cfg.Output.BaseDirectory, username, "media", file)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	http.ServeFile(w, r, path)
}
