package watersync

import (
	"strings"

	"github.com/aquastream/collections_backend/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CleanNumeric repairs malformed decimal strings from the device API, which
// sometimes injects extra decimal separators ("2291.000.00", "0.0034.64").
// It never fails: invalid or empty input yields zero. Stored totals must be
// reproducible for these shapes:
//
//	"2291.000.00" -> 2291.00  (thousands-like noise segment dropped)
//	"0.0034.64"   -> 0.003464 (small decimal split apart by the API)
func CleanNumeric(raw string) decimal.Decimal {
	str := strings.TrimSpace(raw)
	if str == "" || str == "null" || str == "undefined" {
		return decimal.Zero
	}

	parts := strings.Split(str, ".")

	var cleaned string
	switch {
	case len(parts) == 1:
		cleaned = parts[0]
	case len(parts) == 2:
		cleaned = str
	case len(parts) == 3:
		first, middle, last := parts[0], parts[1], parts[2]
		if first == "0" && strings.HasPrefix(middle, "0") {
			// The API split a small decimal like 0.003464 into "0.0034.64":
			// the middle and last segments are both fractional digits.
			cleaned = first + "." + middle + last
		} else if middle == "000" || middle == "00" {
			// Thousands-like noise segment: "2291.000.00" -> "2291.00".
			cleaned = first + "." + last
		} else {
			cleaned = first + "." + middle + last
		}
	default:
		// More than three segments: keep the first and last, drop the rest.
		cleaned = parts[0] + "." + parts[len(parts)-1]
	}

	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}

	if cleaned != str {
		logSanitizationRepair(raw, parsed)
	}
	return parsed
}

func logSanitizationRepair(original string, repaired decimal.Decimal) {
	logger := config.GetLogger()
	if logger == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"module":   "watersync",
		"original": original,
		"repaired": repaired.String(),
	}).Warn("repaired malformed numeric value")
}

// SanitizedEntry is a CollectionEntry after numeric repair.
type SanitizedEntry struct {
	Banknotes decimal.Decimal
	Coins     decimal.Decimal
	TotalSum  decimal.Decimal
}

// SanitizeEntry cleans all numeric fields of one upstream entry. The upstream
// total is kept only when it survives repair as a positive value; otherwise
// it is recomputed from the components.
func SanitizeEntry(entry CollectionEntry) SanitizedEntry {
	banknotes := CleanNumeric(entry.Banknotes.String())
	coins := CleanNumeric(entry.Coins.String())
	total := CleanNumeric(entry.TotalSum.String())

	if total.Sign() <= 0 {
		total = banknotes.Add(coins)
	}

	return SanitizedEntry{
		Banknotes: banknotes,
		Coins:     coins,
		TotalSum:  total,
	}
}

// IsZero reports whether nothing was collected: both components are zero.
// Such entries represent "nothing collected yet" and are never persisted.
func (e SanitizedEntry) IsZero() bool {
	return e.Banknotes.IsZero() && e.Coins.IsZero()
}
