package constants

// Очереди и обменники входящих событий
const (
	ListingsExchange         = "listings_exchange"
	QueueAnalyticsListings   = "analytics_listings"
	RoutingKeyListingsUpsert = "listings.upsert"
)

// Исходящие события
const (
	AnalyticsEventsExchange = "analytics_events"
	RoutingKeyDealsFlagged  = "deals.flagged"
)

const (
	FinalDLXExchange   = "analytics_listings_final_dlx"
	FinalDLQ           = "analytics_listings_final_dlq"
	FinalDLQRoutingKey = "analytics_listings.dlq.key"
)

// Типы событий (заголовки event-type / event-version)
const (
	EventListingUpserted    = "ListingUpsertedEvent"
	EventRentalCompObserved = "RentalCompObservedEvent"
	EventDealFlagged        = "DealFlaggedEvent"
	EventVersionV1          = "1.0.0"
)
