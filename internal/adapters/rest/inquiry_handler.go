package rest

import (
	"net/http"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
)

type InquiryHandler struct {
	createUC usecases_port.CreateInquiryUseCasePort
}

func NewInquiryHandler(createUC usecases_port.CreateInquiryUseCasePort) *InquiryHandler {
	return &InquiryHandler{createUC: createUC}
}

// CreateInquiry обрабатывает POST /api/v1/inquiries.
// Объект ищется среди уже загруженных сессией (список или карта).
func (h *InquiryHandler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateInquiry"})

	session, ok := sessionFromContext(r.Context())
	if !ok {
		logger.Error("Browse session missing in context", nil, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Session is not resolved")
		return
	}

	var req InquiryRequest
	if err := decodeBody(r, &req); err != nil {
		logger.Warn("Failed to decode inquiry body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PropertyID == "" {
		WriteJSONError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	channel := domain.InquiryChannel(req.Channel)
	if channel != "" && channel != domain.ChannelMobile && channel != domain.ChannelWeb {
		WriteJSONError(w, http.StatusBadRequest, "Unknown channel")
		return
	}

	property, found := session.FindProperty(req.PropertyID)
	if !found {
		logger.Warn("Inquiry for property not loaded in session", port.Fields{"property_id": req.PropertyID})
		WriteJSONError(w, http.StatusNotFound, domain.ErrPropertyNotFound.Error())
		return
	}

	inquiry, err := h.createUC.Execute(r.Context(), domain.InquiryInput{
		SessionID:   session.ID(),
		PropertyID:  req.PropertyID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Note:        req.Note,
		Channel:     channel,
	}, property)
	if err != nil {
		logger.Error("Create inquiry use case failed", err, nil)
		writeDomainError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, InquiryResponse{
		InquiryID: inquiry.ID.String(),
		Link:      inquiry.Link,
		Message:   inquiry.Message,
	})
}
