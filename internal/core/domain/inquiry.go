package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InquiryChannel - куда ведет ссылка WhatsApp
type InquiryChannel string

const (
	ChannelMobile InquiryChannel = "wa.me"
	ChannelWeb    InquiryChannel = "web.whatsapp.com"
)

// Inquiry - заявка (лид) по объекту
type Inquiry struct {
	ID           uuid.UUID
	SessionID    string
	PropertyID   string
	PropertyName string
	ClientName   string
	ClientPhone  string
	Message      string
	Channel      InquiryChannel
	Link         string
	CreatedAt    time.Time
}

// NormalizePhone оставляет только цифры международного номера
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
		}
	}
	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return digits, nil
}

// WhatsAppLink строит deep link с заранее заполненным сообщением
func WhatsAppLink(phone, message string, channel InquiryChannel) (string, error) {
	digits, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	if channel == ChannelWeb {
		q := url.Values{}
		q.Set("phone", digits)
		q.Set("text", message)
		return "https://web.whatsapp.com/send?" + q.Encode(), nil
	}
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20"), nil
}
