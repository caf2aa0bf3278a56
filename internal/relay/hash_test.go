package relay

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestHashPIINormalizes(t *testing.T) {
	// Case and surrounding whitespace must not change the digest.
	want := sha("a@b.com")
	for _, in := range []string{"a@b.com", "A@B.com", "  A@b.COM  "} {
		if got := hashPII(in); got != want {
			t.Errorf("hashPII(%q) = %s, want normalized digest", in, got)
		}
	}
	if hashPII("   ") != "" {
		t.Error("blank input must hash to empty, not a digest of the empty string")
	}
}

func TestHashPhoneStripsFormatting(t *testing.T) {
	want := sha("15550101234")
	for _, in := range []string{"15550101234", "+1 (555) 010-1234", "1-555-010-1234"} {
		if got := hashPhone(in); got != want {
			t.Errorf("hashPhone(%q) = %s, want digit-only digest", in, got)
		}
	}
}

func TestBuildUserDataOmitsEmptyAndPassesCookies(t *testing.T) {
	req := models.ConversionRequest{
		Email: "a@b.com",
		FBC:   "fb.1.123.abc",
	}

	ud := buildUserData(req)
	if _, present := ud["ph"]; present {
		t.Error("empty phone must be omitted")
	}
	if ud["em"] != sha("a@b.com") {
		t.Errorf("em = %s, want email digest", ud["em"])
	}
	// Click ids are not PII and pass through unhashed.
	if ud["fbc"] != "fb.1.123.abc" {
		t.Errorf("fbc = %s, want raw passthrough", ud["fbc"])
	}
}

func TestBuildCustomDataDropsUnsetKeys(t *testing.T) {
	n := 2
	req := models.ConversionRequest{
		Currency:   "EUR",
		NumItems:   &n,
		ContentIDs: []string{"sku-1", "sku-2"},
	}

	cd := buildCustomData(req)
	if len(cd) != 3 {
		t.Fatalf("custom data keys = %d, want 3", len(cd))
	}
	if cd["currency"] != "EUR" || cd["num_items"] != 2 {
		t.Errorf("custom data = %v", cd)
	}
}
