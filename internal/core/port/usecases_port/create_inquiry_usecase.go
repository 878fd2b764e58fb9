package usecases_port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

type CreateInquiryUseCasePort interface {
	Execute(ctx context.Context, input domain.InquiryInput, property domain.Property) (*domain.Inquiry, error)
}
