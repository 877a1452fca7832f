package scraper

import (
	"vlr-pipeline/internal/normalize"
)

// StatLine is one player's per-map box score as scraped, before rounding.
// Missing cells stay nil.
type StatLine struct {
	Rating      *float64
	ACS         *float64
	Kills       *float64
	Deaths      *float64
	Assists     *float64
	KAST        *float64
	ADR         *float64
	HSPercent   *float64
	FirstKills  *float64
	FirstDeaths *float64
}

// statRule assigns one named field from the captured numeric cell run.
// Field identity in the source markup is positional, not named: the full
// layout is rating, acs, k, d, a, kast, adr, hs%, fk, fd. Some pages omit
// the leading rating cell, shifting everything left by one; the fallback
// index covers that layout without detecting the shift explicitly.
type statRule struct {
	field    string
	primary  int
	fallback int
	assign   func(*StatLine, *float64)
}

// fullLayoutCells is the cell count of the unshifted layout. Shorter runs
// are read through the fallback indices.
const fullLayoutCells = 10

var statRules = []statRule{
	{"rating", 0, -1, func(s *StatLine, v *float64) { s.Rating = v }},
	{"acs", 1, 0, func(s *StatLine, v *float64) { s.ACS = v }},
	{"kills", 2, 1, func(s *StatLine, v *float64) { s.Kills = v }},
	{"deaths", 3, 2, func(s *StatLine, v *float64) { s.Deaths = v }},
	{"assists", 4, 3, func(s *StatLine, v *float64) { s.Assists = v }},
	{"kast", 5, 4, func(s *StatLine, v *float64) { s.KAST = v }},
	{"adr", 6, 5, func(s *StatLine, v *float64) { s.ADR = v }},
	{"hs", 7, 6, func(s *StatLine, v *float64) { s.HSPercent = v }},
	{"fk", 8, 7, func(s *StatLine, v *float64) { s.FirstKills = v }},
	{"fd", 9, 8, func(s *StatLine, v *float64) { s.FirstDeaths = v }},
}

// AssignStats evaluates the rule table against a captured cell sequence.
// Indices outside the sequence yield nil, never an error.
func AssignStats(cells []string) StatLine {
	var line StatLine
	shifted := len(cells) < fullLayoutCells
	for _, rule := range statRules {
		idx := rule.primary
		if shifted {
			idx = rule.fallback
		}
		if idx < 0 || idx >= len(cells) {
			rule.assign(&line, nil)
			continue
		}
		rule.assign(&line, normalize.ParseNumber(cells[idx]))
	}
	return line
}
