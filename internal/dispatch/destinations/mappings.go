package destinations

import "github.com/shopmetrics/conversion-engine/internal/models"

// Platform registry keys.
const (
	PlatformMeta      = "meta"
	PlatformGoogle    = "google"
	PlatformTikTok    = "tiktok"
	PlatformPinterest = "pinterest"
	PlatformSnapchat  = "snapchat"
)

// mappings translates canonical event names into each platform's own
// vocabulary. Every table must cover the full canonical taxonomy; the
// package test enforces completeness so a new canonical event cannot ship
// half-translated.
var mappings = map[string]map[models.EventName]string{
	PlatformMeta: {
		models.PageView:             "PageView",
		models.ViewContent:          "ViewContent",
		models.Search:               "Search",
		models.AddToCart:            "AddToCart",
		models.AddToWishlist:        "AddToWishlist",
		models.InitiateCheckout:     "InitiateCheckout",
		models.AddPaymentInfo:       "AddPaymentInfo",
		models.Purchase:             "Purchase",
		models.Lead:                 "Lead",
		models.CompleteRegistration: "CompleteRegistration",
		models.Subscribe:            "Subscribe",
		models.StartTrial:           "StartTrial",
		models.SubmitApplication:    "SubmitApplication",
		models.Contact:              "Contact",
	},
	PlatformGoogle: {
		models.PageView:             "page_view",
		models.ViewContent:          "view_item",
		models.Search:               "search",
		models.AddToCart:            "add_to_cart",
		models.AddToWishlist:        "add_to_wishlist",
		models.InitiateCheckout:     "begin_checkout",
		models.AddPaymentInfo:       "add_payment_info",
		models.Purchase:             "purchase",
		models.Lead:                 "generate_lead",
		models.CompleteRegistration: "sign_up",
		models.Subscribe:            "subscribe",
		models.StartTrial:           "begin_trial",
		models.SubmitApplication:    "submit_application",
		models.Contact:              "contact",
	},
	PlatformTikTok: {
		models.PageView:             "Pageview",
		models.ViewContent:          "ViewContent",
		models.Search:               "Search",
		models.AddToCart:            "AddToCart",
		models.AddToWishlist:        "AddToWishlist",
		models.InitiateCheckout:     "InitiateCheckout",
		models.AddPaymentInfo:       "AddPaymentInfo",
		models.Purchase:             "CompletePayment",
		models.Lead:                 "SubmitForm",
		models.CompleteRegistration: "CompleteRegistration",
		models.Subscribe:            "Subscribe",
		models.StartTrial:           "StartTrial",
		models.SubmitApplication:    "SubmitForm",
		models.Contact:              "Contact",
	},
	PlatformPinterest: {
		models.PageView:             "pagevisit",
		models.ViewContent:          "viewcategory",
		models.Search:               "search",
		models.AddToCart:            "addtocart",
		models.AddToWishlist:        "custom",
		models.InitiateCheckout:     "custom",
		models.AddPaymentInfo:       "custom",
		models.Purchase:             "checkout",
		models.Lead:                 "lead",
		models.CompleteRegistration: "signup",
		models.Subscribe:            "signup",
		models.StartTrial:           "signup",
		models.SubmitApplication:    "lead",
		models.Contact:              "lead",
	},
	PlatformSnapchat: {
		models.PageView:             "PAGE_VIEW",
		models.ViewContent:          "VIEW_CONTENT",
		models.Search:               "SEARCH",
		models.AddToCart:            "ADD_CART",
		models.AddToWishlist:        "SAVE",
		models.InitiateCheckout:     "START_CHECKOUT",
		models.AddPaymentInfo:       "ADD_BILLING",
		models.Purchase:             "PURCHASE",
		models.Lead:                 "CUSTOM_EVENT_1",
		models.CompleteRegistration: "SIGN_UP",
		models.Subscribe:            "SUBSCRIBE",
		models.StartTrial:           "START_TRIAL",
		models.SubmitApplication:    "CUSTOM_EVENT_2",
		models.Contact:              "CUSTOM_EVENT_3",
	},
}
