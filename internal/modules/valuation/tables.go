package valuation

import "strings"

// StaticSectorLookup maps symbols to sectors from a fixed table.
// Unknown symbols land in "other".
type StaticSectorLookup struct {
	sectors map[string]string
}

// StaticBetaLookup maps symbols to market betas from a fixed table.
// Unknown symbols default to 1.0.
type StaticBetaLookup struct {
	betas map[string]float64
}

func NewStaticSectorLookup(sectors map[string]string) *StaticSectorLookup {
	m := make(map[string]string, len(sectors))
	for k, v := range sectors {
		m[strings.ToUpper(k)] = v
	}
	return &StaticSectorLookup{sectors: m}
}

func (l *StaticSectorLookup) Sector(symbol string) string {
	if s, ok := l.sectors[strings.ToUpper(symbol)]; ok {
		return s
	}
	return "other"
}

func NewStaticBetaLookup(betas map[string]float64) *StaticBetaLookup {
	m := make(map[string]float64, len(betas))
	for k, v := range betas {
		m[strings.ToUpper(k)] = v
	}
	return &StaticBetaLookup{betas: m}
}

func (l *StaticBetaLookup) Beta(symbol string) float64 {
	if b, ok := l.betas[strings.ToUpper(symbol)]; ok {
		return b
	}
	return 1.0
}

// DefaultSectors covers common dividend-paying names. Extend via
// NewStaticSectorLookup with a merged map if more coverage is needed.
func DefaultSectors() map[string]string {
	return map[string]string{
		"KO":   "consumer_staples",
		"PEP":  "consumer_staples",
		"PG":   "consumer_staples",
		"JNJ":  "healthcare",
		"ABBV": "healthcare",
		"PFE":  "healthcare",
		"XOM":  "energy",
		"CVX":  "energy",
		"T":    "telecom",
		"VZ":   "telecom",
		"O":    "real_estate",
		"MAIN": "financials",
		"JPM":  "financials",
		"MSFT": "technology",
		"AAPL": "technology",
		"IBM":  "technology",
		"MMM":  "industrials",
		"CAT":  "industrials",
		"NEE":  "utilities",
		"D":    "utilities",
		"SO":   "utilities",
	}
}

// DefaultBetas holds rough long-run betas for the same names.
func DefaultBetas() map[string]float64 {
	return map[string]float64{
		"KO":   0.55,
		"PEP":  0.55,
		"PG":   0.45,
		"JNJ":  0.55,
		"ABBV": 0.60,
		"PFE":  0.65,
		"XOM":  0.95,
		"CVX":  1.05,
		"T":    0.70,
		"VZ":   0.45,
		"O":    0.90,
		"MAIN": 1.10,
		"JPM":  1.10,
		"MSFT": 0.90,
		"AAPL": 1.20,
		"IBM":  0.75,
		"MMM":  0.95,
		"CAT":  1.10,
		"NEE":  0.55,
		"D":    0.60,
		"SO":   0.55,
	}
}
