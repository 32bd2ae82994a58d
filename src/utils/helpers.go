package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"cafe/src/config"

	"github.com/gosimple/slug"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// GenerateDiscountCode derives a shareable code from the campaign name plus a
// short random suffix, e.g. "Summer Opening" -> "SUMMER-OPENING-3F2A".
func GenerateDiscountCode(name string) string {
	suffix := make([]byte, 2)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%s", strings.ToUpper(slug.Make(name)), strings.ToUpper(hex.EncodeToString(suffix)))
}

// ParseBusinessDate reads a plain date in the business timezone, so midnight
// boundaries line up with the venue's calendar rather than the server's.
func ParseBusinessDate(value string) (time.Time, error) {
	loc, err := time.LoadLocation(config.BusinessTimezone())
	if err != nil {
		loc = time.UTC
	}
	return time.ParseInLocation(config.DATE_PARSE_FORMAT, value, loc)
}
