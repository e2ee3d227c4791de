package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge/judge-api/internal/judge"
)

// JudgeHandler provides the stateless synchronous judge endpoints.
type JudgeHandler struct {
	dispatcher *judge.Dispatcher
}

// NewJudgeHandler constructs a JudgeHandler around a dispatcher.
func NewJudgeHandler(dispatcher *judge.Dispatcher) *JudgeHandler {
	return &JudgeHandler{dispatcher: dispatcher}
}

// JudgeRouter registers the stateless judge routes on the given router.
// These endpoints are intentionally unauthenticated (spec: the judge core
// does not authenticate callers itself).
func JudgeRouter(r chi.Router, dispatcher *judge.Dispatcher) {
	handler := NewJudgeHandler(dispatcher)

	r.Post("/functional", handler.Functional)
	r.Post("/predict", handler.Predict)
	r.Post("/fix-error", handler.FixError)
}

// isSupportedLanguage reports whether lang is one of the three judge.Language
// values the sandbox actually knows how to run.
func isSupportedLanguage(lang judge.Language) bool {
	switch lang {
	case judge.LanguagePython, judge.LanguageJavaScript, judge.LanguageTypeScript:
		return true
	default:
		return false
	}
}

func (h *JudgeHandler) Functional(w http.ResponseWriter, r *http.Request) {
	var req judge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !isSupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}
	if len(req.Cases) == 0 {
		writeError(w, http.StatusBadRequest, "test_cases is required")
		return
	}
	resp := h.dispatcher.DispatchFunctional(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func (h *JudgeHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req judge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !isSupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}
	if len(req.Cases) == 0 {
		writeError(w, http.StatusBadRequest, "test_cases is required")
		return
	}
	resp := h.dispatcher.DispatchPredict(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func (h *JudgeHandler) FixError(w http.ResponseWriter, r *http.Request) {
	var req judge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !isSupportedLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}
	if req.ValidationType == judge.ValidationTestCases && len(req.FixErrorCases) == 0 {
		writeError(w, http.StatusBadRequest, "test_cases is required")
		return
	}
	resp := h.dispatcher.DispatchFixError(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}
