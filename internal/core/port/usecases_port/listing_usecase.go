package usecases_port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

type ListingUseCasePort interface {
	State() domain.ListingState
	SetSort(ctx context.Context, sort string) domain.ListingState
	GoToPage(ctx context.Context, page int) (domain.ListingState, error)
	Retry(ctx context.Context) domain.ListingState
}
