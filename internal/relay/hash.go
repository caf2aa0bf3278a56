package relay

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shopmetrics/conversion-engine/internal/models"
)

// hashPII normalizes and one-way hashes a PII value. Raw PII never leaves
// the process: only these digests are transmitted, and nothing here is
// logged.
func hashPII(v string) string {
	norm := strings.ToLower(strings.TrimSpace(v))
	if norm == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// hashPhone strips formatting characters before hashing so "+1 (555) 010-1234"
// and "15550101234" produce the same digest.
func hashPhone(v string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(v) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return hashPII(b.String())
}

// buildUserData assembles the hashed user_data block for the outbound
// event. Click/cookie identifiers (fbc/fbp) are not PII and pass through
// unhashed. Empty fields are omitted entirely.
func buildUserData(req models.ConversionRequest) map[string]string {
	out := map[string]string{}

	set := func(key, hashed string) {
		if hashed != "" {
			out[key] = hashed
		}
	}
	set("em", hashPII(req.Email))
	set("ph", hashPhone(req.Phone))
	set("fn", hashPII(req.FirstName))
	set("ln", hashPII(req.LastName))
	set("ct", hashPII(req.City))
	set("st", hashPII(req.State))
	set("zp", hashPII(req.ZipCode))
	set("country", hashPII(req.Country))

	if req.FBC != "" {
		out["fbc"] = req.FBC
	}
	if req.FBP != "" {
		out["fbp"] = req.FBP
	}
	return out
}

// buildCustomData passes the value fields through, dropping unset keys so
// the outbound payload carries no empty placeholders.
func buildCustomData(req models.ConversionRequest) map[string]interface{} {
	out := map[string]interface{}{}

	if req.Value != nil {
		out["value"] = *req.Value
	}
	if req.Currency != "" {
		out["currency"] = req.Currency
	}
	if len(req.ContentIDs) > 0 {
		out["content_ids"] = req.ContentIDs
	}
	if req.ContentType != "" {
		out["content_type"] = req.ContentType
	}
	if req.ContentName != "" {
		out["content_name"] = req.ContentName
	}
	if req.ContentCategory != "" {
		out["content_category"] = req.ContentCategory
	}
	if len(req.Contents) > 0 {
		out["contents"] = req.Contents
	}
	if req.NumItems != nil {
		out["num_items"] = *req.NumItems
	}
	if req.OrderID != "" {
		out["order_id"] = req.OrderID
	}
	return out
}
