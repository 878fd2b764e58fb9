package port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

// PropertyAPIPort - бэкенд с объектами недвижимости
type PropertyAPIPort interface {
	FindProperties(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error)
}

// StatusVocabularyPort - справочники статусов на бэкенде
type StatusVocabularyPort interface {
	GetDevelopmentStatuses(ctx context.Context) ([]domain.StatusItem, error)
	GetSaleStatuses(ctx context.Context) ([]domain.StatusItem, error)
}
