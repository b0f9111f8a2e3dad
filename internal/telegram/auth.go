package telegram

import (
	"crypto/hmac"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// ValidateInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is recent (within 1 hour) to mitigate replay attacks.
func ValidateInitData(initData, botToken string, now time.Time) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(dataHash(values, botToken), provided) {
		return nil, false
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	// allow small clock skew, but reject anything older than 1 hour
	if now.Unix()-authDate > 3600 || authDate-now.Unix() > 300 {
		return nil, false
	}

	return values, true
}
