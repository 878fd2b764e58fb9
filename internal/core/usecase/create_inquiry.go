package usecase

import (
	"context"
	"fmt"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type InquiryConfig struct {
	AgentPhone      string // номер агентства, на который ведет ссылка WhatsApp
	DefaultCurrency string
}

// CreateInquiryUseCase собирает заявку по объекту и ссылку WhatsApp.
// repo и publisher необязательны.
type CreateInquiryUseCase struct {
	cfg       InquiryConfig
	repo      port.InquiryRepositoryPort
	publisher port.InquiryPublisherPort
	clock     port.ClockPort
}

func NewCreateInquiryUseCase(
	cfg InquiryConfig,
	repo port.InquiryRepositoryPort,
	publisher port.InquiryPublisherPort,
	clock port.ClockPort,
) *CreateInquiryUseCase {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "AED"
	}
	return &CreateInquiryUseCase{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		clock:     clock,
	}
}

func (uc *CreateInquiryUseCase) Execute(ctx context.Context, input domain.InquiryInput, property domain.Property) (*domain.Inquiry, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "CreateInquiry",
		"property_id": property.ID,
		"session_id":  input.SessionID,
	})

	ucLogger.Info("Use case started", nil)

	// Шаг 1: проверяем телефон клиента
	clientPhone, err := domain.NormalizePhone(input.ClientPhone)
	if err != nil {
		ucLogger.Warn("Client phone rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	channel := input.Channel
	if channel != domain.ChannelWeb {
		channel = domain.ChannelMobile
	}

	// Шаг 2: текст сообщения и ссылка
	// Caser хранит состояние, поэтому свой на каждый вызов
	clientName := cases.Title(language.English).String(strings.TrimSpace(input.ClientName))
	text := uc.composeMessage(property, clientName, input.Note)
	link, err := domain.WhatsAppLink(uc.cfg.AgentPhone, text, channel)
	if err != nil {
		ucLogger.Error("Agent phone is misconfigured", err, nil)
		return nil, fmt.Errorf("failed to build whatsapp link: %w", err)
	}

	inquiry := &domain.Inquiry{
		ID:           uuid.New(),
		SessionID:    input.SessionID,
		PropertyID:   property.ID,
		PropertyName: property.Name,
		ClientName:   clientName,
		ClientPhone:  clientPhone,
		Message:      text,
		Channel:      channel,
		Link:         link,
		CreatedAt:    uc.clock.Now().UTC(),
	}

	// Шаг 3: сохраняем лид
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, *inquiry); err != nil {
			ucLogger.Error("Failed to save inquiry", err, nil)
			return nil, fmt.Errorf("failed to save inquiry: %w", err)
		}
	}

	// Шаг 4: событие для CRM. Сбой публикации не отменяет заявку.
	if uc.publisher != nil {
		if err := uc.publisher.PublishInquiry(ctx, *inquiry); err != nil {
			ucLogger.Error("Failed to publish inquiry event", err, nil)
		}
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"inquiry_id": inquiry.ID, "channel": channel})
	return inquiry, nil
}

func (uc *CreateInquiryUseCase) composeMessage(p domain.Property, clientName, note string) string {
	currency := p.Currency
	if currency == "" {
		currency = uc.cfg.DefaultCurrency
	}

	var b strings.Builder
	b.WriteString("Hello! I'm interested in ")
	b.WriteString(p.Name)
	if p.Area != "" {
		b.WriteString(" (" + p.Area + ")")
	}
	if p.MinPrice > 0 {
		printer := message.NewPrinter(language.English)
		b.WriteString(printer.Sprintf(", starting from %s %d", currency, int64(p.MinPrice)))
	}
	b.WriteString(".")
	if clientName != "" {
		b.WriteString(" My name is " + clientName + ".")
	}
	if note = strings.TrimSpace(note); note != "" {
		b.WriteString(" " + note)
	}
	return b.String()
}
