package webserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

// handleGetWordFilterWords returns words for a given language
func (s *Server) handleGetWordFilterWords(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []localdb.WordFilterWord{}})
		return
	}

	words, err := localdb.GetWordFilterWords(strings.ToLower(lang))
	if err != nil {
		logger.Error("Failed to get word filter words", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ワードの取得に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": words})
}

// handleAddWordFilterWord adds a new word
func (s *Server) handleAddWordFilterWord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
		Word     string `json:"word"`
		Type     string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Word = strings.TrimSpace(req.Word)
	if req.Language == "" || req.Word == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "language, word, and type are required")
		return
	}
	if req.Type != localdb.WordTypeBad && req.Type != localdb.WordTypeGood {
		writeError(w, http.StatusBadRequest, "type must be 'bad' or 'good'")
		return
	}

	word, err := localdb.AddWordFilterWord(req.Language, req.Word, req.Type)
	if err != nil {
		if errors.Is(err, localdb.ErrWordExists) {
			writeError(w, http.StatusConflict, "このワードは既に登録されています")
			return
		}
		logger.Error("Failed to add word filter word", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ワードの追加に失敗しました")
		return
	}

	s.invalidateWordFilter()
	writeJSON(w, http.StatusCreated, word)
}

// handleDeleteWordFilterWord deletes a word by ID
func (s *Server) handleDeleteWordFilterWord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid word ID")
		return
	}

	if err := localdb.DeleteWordFilterWord(id); err != nil {
		if errors.Is(err, localdb.ErrWordNotFound) {
			writeError(w, http.StatusNotFound, "ワードが見つかりません")
			return
		}
		logger.Error("Failed to delete word filter word", zap.Error(err), zap.Int("id", id))
		writeError(w, http.StatusInternalServerError, "ワードの削除に失敗しました")
		return
	}

	s.invalidateWordFilter()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleGetWordFilterLanguages returns all languages with registered words
func (s *Server) handleGetWordFilterLanguages(w http.ResponseWriter, _ *http.Request) {
	languages, err := localdb.GetWordFilterLanguages()
	if err != nil {
		logger.Error("Failed to get word filter languages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "言語一覧の取得に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": languages})
}

func (s *Server) invalidateWordFilter() {
	if s.deps.WordFilter != nil {
		s.deps.WordFilter.Invalidate()
	}
}
