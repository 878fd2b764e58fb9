package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"property-browser-service/internal/constants"
	"property-browser-service/internal/core/domain"
)

func TestVocabularyService_PrefersServer(t *testing.T) {
	api := &fakeStatusAPI{
		dev:  []domain.StatusItem{{Name: "Ready"}, {Name: "Ready"}, {Name: ""}},
		sale: []domain.StatusItem{{Name: "Sold Out"}},
	}
	svc := NewVocabularyService(api)

	v := svc.Vocabulary(context.Background())
	assert.Equal(t, []string{"Ready"}, v.DevelopmentStatuses)
	assert.Equal(t, []string{"Sold Out"}, v.SalesStatuses)
	assert.Equal(t, domain.VocabularyFromServer, v.DevelopmentSource)
	assert.False(t, v.Degraded())
	assert.Equal(t, constants.UnitTypes, v.UnitTypes)
	assert.Len(t, v.Bedrooms, 6)

	svc.Vocabulary(context.Background())
	assert.Equal(t, 1, api.calls)
}

func TestVocabularyService_FallsBackPerGroup(t *testing.T) {
	api := &fakeStatusAPI{
		devErr: errors.New("connection refused"),
		sale:   []domain.StatusItem{},
	}
	v := NewVocabularyService(api).Refresh(context.Background())

	assert.Equal(t, constants.FallbackDevelopmentStatuses, v.DevelopmentStatuses)
	assert.Equal(t, constants.FallbackSalesStatuses, v.SalesStatuses)
	assert.Equal(t, domain.VocabularyFromFallback, v.DevelopmentSource)
	assert.Equal(t, domain.VocabularyFromFallback, v.SalesSource)
	assert.True(t, v.Degraded())
}

func TestVocabularyService_KeepsLastServerListWhenRefreshFails(t *testing.T) {
	api := &fakeStatusAPI{
		dev:  []domain.StatusItem{{Name: "Ready"}, {Name: "Off Plan"}},
		sale: []domain.StatusItem{{Name: "Sold Out"}},
	}
	svc := NewVocabularyService(api)
	svc.Refresh(context.Background())

	api.devErr = errors.New("backend timeout")
	api.sale = nil
	v := svc.Refresh(context.Background())

	assert.Equal(t, []string{"Ready", "Off Plan"}, v.DevelopmentStatuses)
	assert.Equal(t, domain.VocabularyFromServer, v.DevelopmentSource)
	assert.Equal(t, []string{"Sold Out"}, v.SalesStatuses)
	assert.Equal(t, domain.VocabularyFromServer, v.SalesSource)
	assert.False(t, v.Degraded())
	assert.Equal(t, v, svc.Vocabulary(context.Background()))

	api.devErr = nil
	api.dev = []domain.StatusItem{{Name: "Completed"}}
	v = svc.Refresh(context.Background())
	assert.Equal(t, []string{"Completed"}, v.DevelopmentStatuses)
}
