package usecase

import (
	"context"
	"fmt"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
	"strconv"
	"sync"
)

// Commit превращает черновик в примененный набор фильтров
func Commit(draft domain.FilterSet) domain.FilterSet {
	return draft.Normalize()
}

// FilterDialog держит черновик, пока диалог фильтров открыт.
// Примененные фильтры меняются только через Apply и Reset.
type FilterDialog struct {
	mu         sync.Mutex
	store      usecases_port.FilterStoreUseCasePort
	vocabulary usecases_port.VocabularyUseCasePort
	draft      *domain.FilterSet
}

func NewFilterDialog(store usecases_port.FilterStoreUseCasePort, vocabulary usecases_port.VocabularyUseCasePort) *FilterDialog {
	return &FilterDialog{store: store, vocabulary: vocabulary}
}

// Open снимает копию примененных фильтров в черновик
func (d *FilterDialog) Open(ctx context.Context) domain.FilterSet {
	applied := d.store.State().Applied

	d.mu.Lock()
	defer d.mu.Unlock()
	draft := applied.Clone()
	d.draft = &draft

	contextkeys.LoggerFromContext(ctx).Debug("Filter dialog opened", port.Fields{"active_count": domain.ActiveFilterCount(draft)})
	return draft.Clone()
}

func (d *FilterDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft != nil
}

func (d *FilterDialog) Draft() (domain.FilterSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draft == nil {
		return domain.FilterSet{}, domain.ErrDialogNotOpen
	}
	return d.draft.Clone(), nil
}

// Edit применяет правки к черновику по порядку. Ошибочная правка отменяет всю пачку.
func (d *FilterDialog) Edit(ctx context.Context, edits []domain.DraftEdit) (domain.FilterSet, error) {
	vocab := d.vocabulary.Vocabulary(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draft == nil {
		return domain.FilterSet{}, domain.ErrDialogNotOpen
	}

	next := d.draft.Clone()
	for _, e := range edits {
		var err error
		next, err = applyDraftEdit(next, e, vocab)
		if err != nil {
			return d.draft.Clone(), fmt.Errorf("edit %q: %w", e.Field, err)
		}
	}
	d.draft = &next
	return next.Clone(), nil
}

// Apply переносит черновик в примененные фильтры и закрывает диалог
func (d *FilterDialog) Apply(ctx context.Context) (domain.FilterState, error) {
	d.mu.Lock()
	if d.draft == nil {
		d.mu.Unlock()
		return domain.FilterState{}, domain.ErrDialogNotOpen
	}
	committed := Commit(*d.draft)
	d.draft = nil
	d.mu.Unlock()

	contextkeys.LoggerFromContext(ctx).Info("Filters applied from dialog", port.Fields{"active_count": domain.ActiveFilterCount(committed)})
	return d.store.HandleFiltersChange(ctx, committed), nil
}

// Reset сбрасывает и черновик, и примененные фильтры
func (d *FilterDialog) Reset(ctx context.Context) domain.FilterState {
	d.mu.Lock()
	d.draft = nil
	d.mu.Unlock()

	return d.store.ResetFilters(ctx)
}

// Cancel выбрасывает черновик
func (d *FilterDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft = nil
}

func applyDraftEdit(f domain.FilterSet, e domain.DraftEdit, vocab domain.FilterVocabulary) (domain.FilterSet, error) {
	switch e.Field {
	case domain.FieldSearchTerm:
		f.SearchTerm = e.Value

	case domain.FieldPriceMin, domain.FieldPriceMax, domain.FieldAreaMin, domain.FieldAreaMax:
		v, err := domain.ParseNumericInput(e.Value)
		if err != nil {
			return f, err
		}
		switch e.Field {
		case domain.FieldPriceMin:
			f.PriceRange = f.PriceRange.WithMin(v)
		case domain.FieldPriceMax:
			f.PriceRange = f.PriceRange.WithMax(v)
		case domain.FieldAreaMin:
			f.AreaRange = f.AreaRange.WithMin(v)
		case domain.FieldAreaMax:
			f.AreaRange = f.AreaRange.WithMax(v)
		}

	case domain.FieldPriceDisplayMode:
		mode := domain.PriceDisplayMode(e.Value)
		if !mode.Valid() {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.PriceDisplayMode = mode

	case domain.FieldCompletionTimeframe:
		tf := domain.CompletionTimeframe(e.Value)
		if !tf.Valid() {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.CompletionTimeframe = tf

	case domain.FieldDevelopmentStatus:
		if !vocab.HasDevelopmentStatus(e.Value) {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.DevelopmentStatus = domain.ToggleOption(f.DevelopmentStatus, e.Value)

	case domain.FieldSalesStatus:
		if !vocab.HasSalesStatus(e.Value) {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.SalesStatus = domain.ToggleOption(f.SalesStatus, e.Value)

	case domain.FieldUnitType:
		if !vocab.HasUnitType(e.Value) {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.UnitType = domain.ToggleOption(f.UnitType, e.Value)

	case domain.FieldBedrooms:
		if !vocab.HasBedrooms(e.Value) {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.Bedrooms = domain.ToggleOption(f.Bedrooms, e.Value)

	case domain.FieldFeatured:
		// пустое значение - "не важно"
		if e.Value == "" {
			f.Featured = nil
			break
		}
		v, err := strconv.ParseBool(e.Value)
		if err != nil {
			return f, fmt.Errorf("%w: %q", domain.ErrUnknownOption, e.Value)
		}
		f.Featured = &v

	default:
		return f, fmt.Errorf("%w: %q", domain.ErrUnknownField, e.Field)
	}
	return f, nil
}
