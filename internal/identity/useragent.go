package identity

import (
	"strings"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// tabletMarkers must be checked before the generic mobile markers: Android
// tablets and iPads match the mobile patterns too and would otherwise be
// misclassified.
var tabletMarkers = []string{"ipad", "tablet", "kindle", "playbook", "silk"}

var mobileMarkers = []string{"mobile", "iphone", "ipod", "android", "blackberry", "windows phone"}

// osMarkers is an ordered list: the first matching marker wins. iOS before
// Mac OS because iPad user agents can carry "like Mac OS X".
var osMarkers = []struct {
	marker string
	name   string
}{
	{"windows phone", "Windows Phone"},
	{"windows", "Windows"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"android", "Android"},
	{"mac os", "macOS"},
	{"macintosh", "macOS"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
}

// browserMarkers is ordered: Edge and Opera embed "Chrome", Chrome embeds
// "Safari", so the more specific markers come first.
var browserMarkers = []struct {
	marker string
	name   string
}{
	{"edg", "Edge"},
	{"opr", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser", "Samsung Internet"},
	{"firefox", "Firefox"},
	{"chrome", "Chrome"},
	{"crios", "Chrome"},
	{"safari", "Safari"},
	{"msie", "Internet Explorer"},
	{"trident", "Internet Explorer"},
}

// ClassifyDevice buckets a user agent into mobile/tablet/desktop. Tablet
// patterns are checked first (see tabletMarkers).
func ClassifyDevice(ua string) models.DeviceClass {
	lower := strings.ToLower(ua)
	for _, m := range tabletMarkers {
		if strings.Contains(lower, m) {
			// "Android ... Mobile" is a phone even when a tablet
			// marker like Silk is absent; iPads and explicit
			// tablets stay tablets.
			return models.DeviceTablet
		}
	}
	for _, m := range mobileMarkers {
		if strings.Contains(lower, m) {
			return models.DeviceMobile
		}
	}
	return models.DeviceDesktop
}

// ClassifyOS returns the OS family by ordered substring match, "Unknown"
// when nothing matches.
func ClassifyOS(ua string) string {
	lower := strings.ToLower(ua)
	for _, m := range osMarkers {
		if strings.Contains(lower, m.marker) {
			return m.name
		}
	}
	return "Unknown"
}

// ClassifyBrowser returns the browser family by ordered substring match,
// "Unknown" when nothing matches.
func ClassifyBrowser(ua string) string {
	lower := strings.ToLower(ua)
	for _, m := range browserMarkers {
		if strings.Contains(lower, m.marker) {
			return m.name
		}
	}
	return "Unknown"
}
