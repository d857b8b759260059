// Package dataload reads historical option-chain CSV files and
// materializes the per-date structures the backtester consumes.
package dataload

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"options-backtester/internal/errors"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

// DateKey is the calendar-date format keying the per-date maps.
const DateKey = "2006-01-02"

// impliedVolRate is the rate assumed when backing implied volatility
// out of a mid quote for rows that carry no IV column.
const impliedVolRate = 0.05

// Dataset is a fully materialized historical series for one underlying,
// ready to hand to the backtester. It is built once and never mutated.
type Dataset struct {
	Symbol            string
	ChainsByDate      map[string]*marketdata.OptionChain
	StockPricesByDate map[string]float64
	Dates             []string // sorted, deduplicated
}

// row mirrors one CSV record. Optional columns stay empty strings so a
// missing column is distinguishable from a malformed value.
type row struct {
	Timestamp  string `csv:"timestamp"`
	Symbol     string `csv:"optionsymbol"`
	Type       string `csv:"type"`
	Strike     string `csv:"strike"`
	Expiration string `csv:"expiration"`
	Bid        string `csv:"bid"`
	Ask        string `csv:"ask"`
	Underlying string `csv:"underlyingprice"`
	IV         string `csv:"iv"`
	Delta      string `csv:"delta"`
	Gamma      string `csv:"gamma"`
	Theta      string `csv:"theta"`
	Vega       string `csv:"vega"`
}

// headerSynonyms maps common column-name variants, already lowercased
// and stripped of separators, onto the canonical struct tags.
var headerSynonyms = map[string]string{
	"symbol":            "optionsymbol",
	"option":            "optionsymbol",
	"contract":          "optionsymbol",
	"optiontype":        "type",
	"callput":           "type",
	"strikeprice":       "strike",
	"expiry":            "expiration",
	"expirydate":        "expiration",
	"expirationdate":    "expiration",
	"date":              "timestamp",
	"quotedate":         "timestamp",
	"underlying":        "underlyingprice",
	"spot":              "underlyingprice",
	"spotprice":         "underlyingprice",
	"stockprice":        "underlyingprice",
	"impliedvol":        "iv",
	"impliedvolatility": "iv",
}

func normalizeHeader(h string) string {
	n := strings.ToLower(strings.TrimSpace(h))
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	if canonical, ok := headerSynonyms[n]; ok {
		return canonical
	}
	return n
}

func init() {
	gocsv.SetHeaderNormalizer(normalizeHeader)
}

// LoadCSV reads a historical option CSV file and groups its rows into
// one chain per calendar date. Malformed rows fail the load; partial
// data is never silently defaulted.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewDataError("csv", path, "unmarshalling rows", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewDataError("csv", path, "no rows", errors.ErrDataNotFound)
	}

	ds := &Dataset{
		ChainsByDate:      make(map[string]*marketdata.OptionChain),
		StockPricesByDate: make(map[string]float64),
	}

	for i, r := range rows {
		snap, ts, err := r.toSnapshot()
		if err != nil {
			return nil, errors.NewDataError("csv", path, fmt.Sprintf("row %d", i+2), err)
		}

		key := ts.Format(DateKey)
		chain, ok := ds.ChainsByDate[key]
		if !ok {
			chain = marketdata.NewOptionChain(ts)
			ds.ChainsByDate[key] = chain
			ds.Dates = append(ds.Dates, key)
			ds.StockPricesByDate[key] = snap.UnderlyingPrice
		}
		if err := chain.Add(snap); err != nil {
			return nil, errors.NewDataError("csv", path, fmt.Sprintf("row %d", i+2), err)
		}
	}
	sort.Strings(ds.Dates)

	if parsed, err := marketdata.ParseOptionSymbol(rows[0].Symbol); err == nil {
		ds.Symbol = parsed.Underlying
	}

	return ds, nil
}

func (r *row) toSnapshot() (*marketdata.OptionSnapshot, time.Time, error) {
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("timestamp %q: %w", r.Timestamp, err)
	}
	expiration, err := parseTime(r.Expiration)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("expiration %q: %w", r.Expiration, err)
	}

	optType, err := parseOptionType(r.Type)
	if err != nil {
		return nil, time.Time{}, err
	}

	strike, err := parseFloat("strike", r.Strike)
	if err != nil {
		return nil, time.Time{}, err
	}
	bid, err := parseFloat("bid", r.Bid)
	if err != nil {
		return nil, time.Time{}, err
	}
	ask, err := parseFloat("ask", r.Ask)
	if err != nil {
		return nil, time.Time{}, err
	}
	underlying, err := parseFloat("underlyingprice", r.Underlying)
	if err != nil {
		return nil, time.Time{}, err
	}

	snap := &marketdata.OptionSnapshot{
		Symbol:          strings.TrimSpace(r.Symbol),
		Type:            optType,
		Strike:          strike,
		Expiration:      expiration,
		Bid:             bid,
		Ask:             ask,
		UnderlyingPrice: underlying,
	}

	if r.IV != "" {
		iv, err := parseFloat("iv", r.IV)
		if err != nil {
			return nil, time.Time{}, err
		}
		snap.IV = &iv
	}
	if r.Delta != "" {
		greeks, err := r.parseGreeks()
		if err != nil {
			return nil, time.Time{}, err
		}
		snap.Greeks = greeks
	}

	// Rows without an IV column get one backed out of the mid quote.
	// Best effort: quotes the solver cannot invert stay nil.
	if snap.IV == nil {
		if dte := snap.DaysToExpiry(ts); dte > 0 && snap.Mid() > 0 {
			iv, err := pricing.ImpliedVolatility(snap.Type, snap.Mid(), snap.UnderlyingPrice, snap.Strike, float64(dte), impliedVolRate)
			if err == nil {
				snap.IV = &iv
			}
		}
	}

	return snap, ts, nil
}

func (r *row) parseGreeks() (*models.Greeks, error) {
	g := &models.Greeks{}
	fields := []struct {
		name  string
		raw   string
		field *float64
	}{
		{"delta", r.Delta, &g.Delta},
		{"gamma", r.Gamma, &g.Gamma},
		{"theta", r.Theta, &g.Theta},
		{"vega", r.Vega, &g.Vega},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := parseFloat(f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.field = v
	}
	return g, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func parseOptionType(s string) (models.OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return models.Call, nil
	case "P", "PUT":
		return models.Put, nil
	default:
		return "", fmt.Errorf("option type %q: %w", s, errors.ErrInvalidLeg)
	}
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("field %s %q: %w", field, s, err)
	}
	return v, nil
}
