package models

// EventName is a member of the canonical event taxonomy. Every destination
// mapping and every scoring rule is keyed off these names; platform-specific
// vocabularies never appear outside internal/dispatch/destinations.
type EventName string

const (
	PageView             EventName = "PageView"
	ViewContent          EventName = "ViewContent"
	Search               EventName = "Search"
	AddToCart            EventName = "AddToCart"
	AddToWishlist        EventName = "AddToWishlist"
	InitiateCheckout     EventName = "InitiateCheckout"
	AddPaymentInfo       EventName = "AddPaymentInfo"
	Purchase             EventName = "Purchase"
	Lead                 EventName = "Lead"
	CompleteRegistration EventName = "CompleteRegistration"
	Subscribe            EventName = "Subscribe"
	StartTrial           EventName = "StartTrial"
	SubmitApplication    EventName = "SubmitApplication"
	Contact              EventName = "Contact"
)

// CanonicalEvents lists the full taxonomy in a stable order. Destination
// mapping tables must cover every entry.
var CanonicalEvents = []EventName{
	PageView,
	ViewContent,
	Search,
	AddToCart,
	AddToWishlist,
	InitiateCheckout,
	AddPaymentInfo,
	Purchase,
	Lead,
	CompleteRegistration,
	Subscribe,
	StartTrial,
	SubmitApplication,
	Contact,
}

// Valid reports whether e belongs to the canonical taxonomy.
func (e EventName) Valid() bool {
	for _, c := range CanonicalEvents {
		if e == c {
			return true
		}
	}
	return false
}
