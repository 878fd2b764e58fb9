package usecases_port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

// FilterStoreUseCasePort - примененные фильтры сессии
type FilterStoreUseCasePort interface {
	InitializeFiltersState(ctx context.Context) domain.FilterState
	HandleSearchChange(text string) domain.FilterState
	HandleFiltersChange(ctx context.Context, filters domain.FilterSet) domain.FilterState
	ResetFilters(ctx context.Context) domain.FilterState
	ActiveFilterCount() int
	State() domain.FilterState
}

// FilterDialogUseCasePort - черновик фильтров, живущий пока открыт диалог
type FilterDialogUseCasePort interface {
	Open(ctx context.Context) domain.FilterSet
	Draft() (domain.FilterSet, error)
	Edit(ctx context.Context, edits []domain.DraftEdit) (domain.FilterSet, error)
	Apply(ctx context.Context) (domain.FilterState, error)
	Reset(ctx context.Context) domain.FilterState
	Cancel()
	IsOpen() bool
}

// VocabularyUseCasePort - варианты для чекбоксов
type VocabularyUseCasePort interface {
	Vocabulary(ctx context.Context) domain.FilterVocabulary
	Refresh(ctx context.Context) domain.FilterVocabulary
}
