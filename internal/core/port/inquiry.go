package port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

type InquiryRepositoryPort interface {
	Save(ctx context.Context, inquiry domain.Inquiry) error
}

type InquiryPublisherPort interface {
	PublishInquiry(ctx context.Context, inquiry domain.Inquiry) error
}
