package constants

// Обменник и ключи маршрутизации для лидов
const (
	ExchangeLeads        = "leads"
	RoutingKeyInquiryNew = "leads.inquiry.created"
	EventTypeInquiry     = "PropertyInquiryEvent"
	EventVersionInquiry  = "1.0.0"
)
