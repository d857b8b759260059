package marketdata

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// Option symbols follow the compact OCC-style encoding
// {UNDERLYING}{YYMMDD}{C|P}{STRIKE*1000, zero-padded to 8 digits},
// e.g. AAPL240621C00150000.
var optionSymbolRe = regexp.MustCompile(`^([A-Z][A-Z.]*)(\d{6})([CP])(\d{8})$`)

// ParsedSymbol holds the fields decoded from an option symbol.
type ParsedSymbol struct {
	Underlying string
	Expiration time.Time
	Type       models.OptionType
	Strike     float64
}

// ParseOptionSymbol decodes an option symbol, rejecting anything that
// does not match the exact encoding.
func ParseOptionSymbol(symbol string) (ParsedSymbol, error) {
	m := optionSymbolRe.FindStringSubmatch(symbol)
	if m == nil {
		return ParsedSymbol{}, errors.Wrapf(errors.ErrInvalidSymbol, "parsing %q", symbol)
	}

	expiration, err := time.Parse("060102", m[2])
	if err != nil {
		return ParsedSymbol{}, errors.Wrapf(errors.ErrInvalidSymbol, "parsing expiry of %q", symbol)
	}

	optType := models.Call
	if m[3] == "P" {
		optType = models.Put
	}

	milliStrike, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return ParsedSymbol{}, errors.Wrapf(errors.ErrInvalidSymbol, "parsing strike of %q", symbol)
	}

	return ParsedSymbol{
		Underlying: m[1],
		Expiration: expiration,
		Type:       optType,
		Strike:     float64(milliStrike) / 1000,
	}, nil
}

// BuildOptionSymbol encodes the fields into the compact symbol form,
// including zero padding.
func BuildOptionSymbol(underlying string, expiration time.Time, optType models.OptionType, strike float64) string {
	letter := "C"
	if optType == models.Put {
		letter = "P"
	}
	return fmt.Sprintf("%s%s%s%08d",
		underlying,
		expiration.Format("060102"),
		letter,
		int64(math.Round(strike*1000)))
}
