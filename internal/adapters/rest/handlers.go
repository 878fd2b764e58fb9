package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/contracts"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
	"strconv"
)

const maxBodyBytes = 64 << 10

// BrowseHandler - фильтры, диалог, список и карта текущей сессии
type BrowseHandler struct {
	sessions   usecases_port.SessionRegistryUseCasePort
	vocabulary usecases_port.VocabularyUseCasePort
}

func NewBrowseHandler(sessions usecases_port.SessionRegistryUseCasePort, vocabulary usecases_port.VocabularyUseCasePort) *BrowseHandler {
	return &BrowseHandler{sessions: sessions, vocabulary: vocabulary}
}

// session достает сессию, положенную SessionMiddleware
func (h *BrowseHandler) session(w http.ResponseWriter, r *http.Request) (usecases_port.BrowseSessionPort, bool) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		contextkeys.LoggerFromContext(r.Context()).Error("Browse session missing in context", nil, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Session is not resolved")
		return nil, false
	}
	return session, true
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// CreateSession обрабатывает POST /api/v1/sessions
func (h *BrowseHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateSession"})

	session, err := h.sessions.Create(r.Context())
	if err != nil {
		logger.Error("Failed to create browse session", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	w.Header().Set(SessionHeader, session.ID())
	RespondWithJSON(w, http.StatusCreated, SessionResponse{
		SessionID: session.ID(),
		Filters:   session.Filters().State(),
	})
}

// GetFilters обрабатывает GET /api/v1/sessions/current/filters
func (h *BrowseHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, session.Filters().InitializeFiltersState(r.Context()))
}

// Search обрабатывает POST /api/v1/filters/search. Поиск применяется после паузы ввода.
func (h *BrowseHandler) Search(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	RespondWithJSON(w, http.StatusAccepted, session.Filters().HandleSearchChange(req.Text))
}

// ReplaceFilters обрабатывает PUT /api/v1/filters
func (h *BrowseHandler) ReplaceFilters(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ReplaceFilters"})
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if err := contracts.Validate(contracts.FilterSetSchema, body); err != nil {
		logger.Warn("Filter payload rejected by schema", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// отсутствующие поля берутся из значений по умолчанию
	filters := domain.DefaultFilters()
	if err := json.Unmarshal(body, &filters); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid filter payload")
		return
	}

	RespondWithJSON(w, http.StatusOK, session.Filters().HandleFiltersChange(r.Context(), filters))
}

// ResetFilters обрабатывает DELETE /api/v1/filters
func (h *BrowseHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, session.Filters().ResetFilters(r.Context()))
}

// ActiveCount обрабатывает GET /api/v1/filters/active-count
func (h *BrowseHandler) ActiveCount(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, ActiveCountResponse{ActiveCount: session.Filters().ActiveFilterCount()})
}

// Vocabulary обрабатывает GET /api/v1/filters/vocabulary
func (h *BrowseHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.vocabulary.Vocabulary(r.Context()))
}

// OpenDialog обрабатывает POST /api/v1/filters/dialog
func (h *BrowseHandler) OpenDialog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	draft := session.Dialog().Open(r.Context())
	RespondWithJSON(w, http.StatusOK, DraftResponse{Draft: draft, ActiveCount: domain.ActiveFilterCount(draft)})
}

// EditDialog обрабатывает PATCH /api/v1/filters/dialog
func (h *BrowseHandler) EditDialog(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "EditDialog"})
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DraftEditRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := session.Dialog().Edit(r.Context(), req.Edits)
	if err != nil {
		logger.Warn("Draft edit rejected", port.Fields{"error": err.Error()})
		writeDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, DraftResponse{Draft: draft, ActiveCount: domain.ActiveFilterCount(draft)})
}

// ApplyDialog обрабатывает POST /api/v1/filters/dialog/apply
func (h *BrowseHandler) ApplyDialog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := session.Dialog().Apply(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, state)
}

// ResetDialog обрабатывает POST /api/v1/filters/dialog/reset
func (h *BrowseHandler) ResetDialog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, session.Dialog().Reset(r.Context()))
}

// CancelDialog обрабатывает DELETE /api/v1/filters/dialog
func (h *BrowseHandler) CancelDialog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.Dialog().Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// GetListing обрабатывает GET /api/v1/listing
func (h *BrowseHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(session.Listing().State()))
}

// SetSort обрабатывает PUT /api/v1/listing/sort
func (h *BrowseHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SortRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(session.Listing().SetSort(r.Context(), req.Sort)))
}

// GoToPage обрабатывает PUT /api/v1/listing/page
func (h *BrowseHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	state, err := session.Listing().GoToPage(r.Context(), req.Page)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(state))
}

// RetryListing обрабатывает POST /api/v1/listing/retry
func (h *BrowseHandler) RetryListing(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(session.Listing().Retry(r.Context())))
}

// GetMap обрабатывает GET /api/v1/map?zoom=&hovered=
func (h *BrowseHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	zoom := 12.0
	if raw := r.URL.Query().Get("zoom"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid zoom")
			return
		}
		zoom = parsed
	}
	mode := session.Filters().State().Applied.PriceDisplayMode
	RespondWithJSON(w, http.StatusOK, MapResponse{
		State:   session.Map().State(),
		Markers: session.Viewport().Markers(zoom, r.URL.Query().Get("hovered"), mode),
	})
}

// LoadMap обрабатывает POST /api/v1/map/load
func (h *BrowseHandler) LoadMap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	applied := session.Filters().State().Applied
	RespondWithJSON(w, http.StatusAccepted, session.Map().Load(r.Context(), applied))
}

// ResetMap обрабатывает POST /api/v1/map/reset
func (h *BrowseHandler) ResetMap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.Map().Reset()
	RespondWithJSON(w, http.StatusOK, session.Map().State())
}

// FocusMap обрабатывает POST /api/v1/map/focus
func (h *BrowseHandler) FocusMap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req FocusRequest
	if err := decodeBody(r, &req); err != nil || req.PropertyID == "" {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	focus, err := session.Viewport().Focus(req.PropertyID, req.Zoom, req.Hover)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, focus)
}

// writeDomainError переводит ошибки ядра в HTTP-статусы
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidNumericInput),
		errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidPhone):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPageOutOfRange):
		WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrDialogNotOpen):
		WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPropertyNotFound), errors.Is(err, domain.ErrSessionNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}
