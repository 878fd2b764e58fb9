package usecase

import (
	"context"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"sync"
)

// VocabularyService отдает варианты статусов: с сервера, а при сбое встроенные
type VocabularyService struct {
	api port.StatusVocabularyPort

	mu      sync.RWMutex
	current domain.FilterVocabulary
	loaded  bool
}

func NewVocabularyService(api port.StatusVocabularyPort) *VocabularyService {
	return &VocabularyService{api: api}
}

// Vocabulary возвращает текущие словари, при первом обращении загружает их
func (s *VocabularyService) Vocabulary(ctx context.Context) domain.FilterVocabulary {
	s.mu.RLock()
	if s.loaded {
		v := s.current
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()
	return s.Refresh(ctx)
}

// Refresh перечитывает статусы. Каждая группа обрабатывается независимо:
// при сбое остается последний список с сервера, а встроенный берется, только если сервер еще ни разу не ответил.
func (s *VocabularyService) Refresh(ctx context.Context) domain.FilterVocabulary {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "RefreshVocabulary"})

	s.mu.RLock()
	previous := s.current
	s.mu.RUnlock()

	vocab := domain.FilterVocabulary{
		UnitTypes: append([]string(nil), constants.UnitTypes...),
		Bedrooms:  append([]string(nil), constants.Bedrooms...),
	}

	vocab.DevelopmentStatuses, vocab.DevelopmentSource = s.fetchGroup(ctx, logger, "development_status",
		s.api.GetDevelopmentStatuses, lastKnown(previous.DevelopmentStatuses, previous.DevelopmentSource),
		constants.FallbackDevelopmentStatuses)
	vocab.SalesStatuses, vocab.SalesSource = s.fetchGroup(ctx, logger, "sale_status",
		s.api.GetSaleStatuses, lastKnown(previous.SalesStatuses, previous.SalesSource),
		constants.FallbackSalesStatuses)

	s.mu.Lock()
	s.current = vocab
	s.loaded = true
	s.mu.Unlock()

	logger.Info("Vocabulary refreshed", port.Fields{
		"development_source": vocab.DevelopmentSource,
		"sales_source":       vocab.SalesSource,
	})
	return vocab
}

func (s *VocabularyService) fetchGroup(
	ctx context.Context,
	logger port.LoggerPort,
	group string,
	fetch func(context.Context) ([]domain.StatusItem, error),
	lastServer []string,
	fallback []string,
) ([]string, domain.VocabularySource) {
	items, err := fetch(ctx)
	if err != nil {
		if len(lastServer) > 0 {
			logger.Warn("Status vocabulary unavailable, keeping last server list", port.Fields{"group": group, "error": err.Error()})
			return append([]string(nil), lastServer...), domain.VocabularyFromServer
		}
		logger.Warn("Status vocabulary unavailable, using fallback", port.Fields{"group": group, "error": err.Error()})
		return append([]string(nil), fallback...), domain.VocabularyFromFallback
	}

	names := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		if _, ok := seen[it.Name]; ok {
			continue
		}
		seen[it.Name] = struct{}{}
		names = append(names, it.Name)
	}
	if len(names) == 0 {
		if len(lastServer) > 0 {
			logger.Warn("Status vocabulary is empty, keeping last server list", port.Fields{"group": group})
			return append([]string(nil), lastServer...), domain.VocabularyFromServer
		}
		logger.Warn("Status vocabulary is empty, using fallback", port.Fields{"group": group})
		return append([]string(nil), fallback...), domain.VocabularyFromFallback
	}
	return names, domain.VocabularyFromServer
}

// lastKnown - предыдущий список группы, если он пришел с сервера
func lastKnown(options []string, source domain.VocabularySource) []string {
	if source != domain.VocabularyFromServer {
		return nil
	}
	return options
}
