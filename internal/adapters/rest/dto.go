package rest

import (
	"property-browser-service/internal/core/domain"
	"time"
)

// SessionResponse - ответ на создание сессии
type SessionResponse struct {
	SessionID string             `json:"sessionId"`
	Filters   domain.FilterState `json:"filters"`
}

type SearchRequest struct {
	Text string `json:"text"`
}

type ActiveCountResponse struct {
	ActiveCount int `json:"activeCount"`
}

// DraftEditRequest - пачка правок черновика. Применяется целиком или никак.
type DraftEditRequest struct {
	Edits []domain.DraftEdit `json:"edits"`
}

type DraftResponse struct {
	Draft       domain.FilterSet `json:"draft"`
	ActiveCount int              `json:"activeCount"`
}

type SortRequest struct {
	Sort string `json:"sort"`
}

type PageRequest struct {
	Page int `json:"page"`
}

type FocusRequest struct {
	PropertyID string  `json:"property_id"`
	Zoom       float64 `json:"zoom"`
	Hover      bool    `json:"hover"`
}

// PropertyCardResponse - карточка объекта для фронтенда
type PropertyCardResponse struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Area                string             `json:"area"`
	Developer           string             `json:"developer"`
	MinPrice            float64            `json:"minPrice"`
	MaxPrice            float64            `json:"maxPrice"`
	PricePerSqFt        float64            `json:"pricePerSqFt"`
	DisplayPrice        float64            `json:"displayPrice"`
	Currency            string             `json:"currency"`
	DevelopmentStatus   string             `json:"developmentStatus"`
	SaleStatus          string             `json:"saleStatus"`
	UnitTypes           []string           `json:"unitTypes"`
	MinSize             float64            `json:"minSize"`
	ImageURL            string             `json:"imageUrl,omitempty"`
	Coordinates         domain.Coordinates `json:"coordinates"`
	ApproximateLocation bool               `json:"approximateLocation"`
	Featured            bool               `json:"featured"`
	CompletionDate      *time.Time         `json:"completionDate,omitempty"`
}

// ListingResponse - состояние страницы списка
type ListingResponse struct {
	Properties       []PropertyCardResponse  `json:"properties"`
	Pagination       domain.Pagination       `json:"pagination"`
	PageItems        []domain.PageItem       `json:"pageItems"`
	HasPrevious      bool                    `json:"hasPrevious"`
	HasNext          bool                    `json:"hasNext"`
	Loading          bool                    `json:"loading"`
	Error            string                  `json:"error,omitempty"`
	Sort             string                  `json:"sort"`
	PriceDisplayMode domain.PriceDisplayMode `json:"priceDisplayMode"`
	ScrollToTop      bool                    `json:"scrollToTop"`
	Dropped          bool                    `json:"dropped"`
	Initialized      bool                    `json:"initialized"`
}

type MapResponse struct {
	State   domain.MapLoadState `json:"state"`
	Markers []domain.Marker     `json:"markers"`
}

type InquiryRequest struct {
	PropertyID  string `json:"property_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	Note        string `json:"note"`
	Channel     string `json:"channel"`
}

type InquiryResponse struct {
	InquiryID string `json:"inquiry_id"`
	Link      string `json:"link"`
	Message   string `json:"message"`
}

func toPropertyCard(p domain.Property, mode domain.PriceDisplayMode) PropertyCardResponse {
	coords, approximate := domain.ResolveCoordinates(p.Coordinates)
	unitTypes := p.UnitTypes
	if unitTypes == nil {
		unitTypes = []string{}
	}
	return PropertyCardResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Area:                p.Area,
		Developer:           p.Developer,
		MinPrice:            p.MinPrice,
		MaxPrice:            p.MaxPrice,
		PricePerSqFt:        p.PricePerSqFt(),
		DisplayPrice:        p.DisplayPrice(mode),
		Currency:            p.Currency,
		DevelopmentStatus:   p.DevelopmentStatus,
		SaleStatus:          p.SaleStatus,
		UnitTypes:           unitTypes,
		MinSize:             p.MinSize,
		ImageURL:            p.ImageURL,
		Coordinates:         coords,
		ApproximateLocation: approximate,
		Featured:            p.Featured,
		CompletionDate:      p.CompletionDate,
	}
}

func toListingResponse(state domain.ListingState) ListingResponse {
	cards := make([]PropertyCardResponse, len(state.Properties))
	for i, p := range state.Properties {
		cards[i] = toPropertyCard(p, state.PriceDisplayMode)
	}
	return ListingResponse{
		Properties:       cards,
		Pagination:       state.Pagination,
		PageItems:        state.PageItems,
		HasPrevious:      state.HasPrevious,
		HasNext:          state.HasNext,
		Loading:          state.Loading,
		Error:            state.Error,
		Sort:             state.Sort,
		PriceDisplayMode: state.PriceDisplayMode,
		ScrollToTop:      state.ScrollToTop,
		Dropped:          state.Dropped,
		Initialized:      state.Initialized,
	}
}
