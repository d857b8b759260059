package dataload

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const canonicalCSV = `timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice,iv,delta
2024-05-01,XYZ240614P00095000,put,95,2024-06-14,2.90,3.10,100.0,0.25,-0.30
2024-05-01,XYZ240614P00090000,put,90,2024-06-14,1.40,1.60,100.0,0.28,-0.18
2024-05-02,XYZ240614P00095000,put,95,2024-06-14,2.70,2.90,100.5,0.24,-0.28
`

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV(writeCSV(t, canonicalCSV))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}

	if ds.Symbol != "XYZ" {
		t.Errorf("symbol = %q, want XYZ", ds.Symbol)
	}
	if len(ds.Dates) != 2 || ds.Dates[0] != "2024-05-01" || ds.Dates[1] != "2024-05-02" {
		t.Fatalf("dates = %v, want two sorted dates", ds.Dates)
	}

	chain := ds.ChainsByDate["2024-05-01"]
	if chain.Len() != 2 {
		t.Fatalf("chain len = %d, want 2", chain.Len())
	}
	if ds.StockPricesByDate["2024-05-02"] != 100.5 {
		t.Errorf("stock price = %v, want 100.5", ds.StockPricesByDate["2024-05-02"])
	}

	snap, ok := chain.Get("XYZ240614P00095000")
	if !ok {
		t.Fatal("expected XYZ240614P00095000 in chain")
	}
	if snap.Type != models.Put || snap.IV == nil || *snap.IV != 0.25 {
		t.Errorf("snapshot = %+v, want put with IV 0.25", snap)
	}
	if snap.Greeks == nil || snap.Greeks.Delta != -0.30 {
		t.Errorf("greeks = %+v, want delta -0.30", snap.Greeks)
	}
}

func TestLoadCSVHeaderSynonyms(t *testing.T) {
	csv := `Quote_Date,Option_Symbol,Call_Put,Strike_Price,Expiry,BID,ASK,Spot_Price
2024-05-01,XYZ240614P00095000,P,95,2024-06-14,2.90,3.10,100.0
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV() with synonym headers error: %v", err)
	}

	chain := ds.ChainsByDate["2024-05-01"]
	if chain == nil || chain.Len() != 1 {
		t.Fatal("expected one contract")
	}
	snap, _ := chain.Get("XYZ240614P00095000")
	if snap.Type != models.Put || snap.Strike != 95 || snap.UnderlyingPrice != 100 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Greeks != nil {
		t.Error("absent greeks columns must stay nil")
	}
}

func TestLoadCSVBackfillsIVFromMid(t *testing.T) {
	csv := `timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice
2024-05-01,XYZ240614P00095000,put,95,2024-06-14,2.90,3.10,100.0
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}

	snap, _ := ds.ChainsByDate["2024-05-01"].Get("XYZ240614P00095000")
	if snap.IV == nil {
		t.Fatal("expected IV backed out of the mid quote")
	}

	// The backfilled volatility must reproduce the mid it was solved from.
	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	dte := float64(snap.DaysToExpiry(asOf))
	reprice := pricing.Price(snap.Type, snap.UnderlyingPrice, snap.Strike, dte, *snap.IV, impliedVolRate)
	if math.Abs(reprice-snap.Mid()) > 1e-4 {
		t.Errorf("Price at backfilled IV %.4f = %.4f, want mid %.4f", *snap.IV, reprice, snap.Mid())
	}
}

func TestLoadCSVFailsFast(t *testing.T) {
	bad := []string{
		// Unparseable strike
		"timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice\n2024-05-01,XYZ240614P00095000,put,abc,2024-06-14,2.9,3.1,100\n",
		// Unknown option type
		"timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice\n2024-05-01,XYZ240614P00095000,swap,95,2024-06-14,2.9,3.1,100\n",
		// Garbage timestamp
		"timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice\nsoon,XYZ240614P00095000,put,95,2024-06-14,2.9,3.1,100\n",
		// Crossed quote
		"timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice\n2024-05-01,XYZ240614P00095000,put,95,2024-06-14,3.1,2.9,100\n",
	}

	for i, csv := range bad {
		if _, err := LoadCSV(writeCSV(t, csv)); err == nil {
			t.Errorf("case %d: LoadCSV() succeeded, want error", i)
		}
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	csv := "timestamp,optionsymbol,type,strike,expiration,bid,ask,underlyingprice\n"
	if _, err := LoadCSV(writeCSV(t, csv)); err == nil {
		t.Error("LoadCSV() of empty file succeeded, want error")
	}
}
