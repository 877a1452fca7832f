// Package normalize parses the loosely formatted numbers, dates, and
// free-text labels the feed and the match pages carry into typed values.
// Every function here degrades to a missing value instead of failing.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"vlr-pipeline/internal/domain"
)

// ParseNumber parses a locale-formatted numeric cell. Thousands separators
// and percent signs are stripped. Empty strings, a lone dash, and anything
// that still fails to parse yield nil.
func ParseNumber(text string) *float64 {
	s := strings.TrimSpace(text)
	if s == "" || s == "-" || s == "–" || s == "—" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt is ParseNumber rounded half-up to the nearest integer.
func ParseInt(text string) *int {
	v := ParseNumber(text)
	if v == nil {
		return nil
	}
	n := int(*v + 0.5)
	if *v < 0 {
		n = int(*v - 0.5)
	}
	return &n
}

// DateRange is the partially parsed result of an event date label. Year
// survives even when the calendar dates could not be reconstructed.
type DateRange struct {
	Year  int
	Start *time.Time
	End   *time.Time
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// ParseDateRange accepts labels like "Jun 1 - Jun 12, 2024" or "Mar 2024".
// The four-digit year is pattern-extracted first; start/end dates are then
// rebuilt by recombining the split halves with that year. Any failure
// degrades to nil dates with the year kept.
func ParseDateRange(text string) DateRange {
	var dr DateRange

	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return dr
	}
	dr.Year, _ = strconv.Atoi(m[1])

	body := strings.TrimSpace(yearPattern.ReplaceAllString(text, ""))
	body = strings.TrimSuffix(body, ",")
	body = strings.TrimSpace(body)
	if body == "" {
		return dr
	}

	halves := strings.SplitN(body, "-", 2)
	start := parseDayWithYear(halves[0], dr.Year)
	dr.Start = start
	if len(halves) == 2 {
		end := parseDayWithYear(halves[1], dr.Year)
		// "Jun 1 - 12" style labels omit the month on the right half.
		if end == nil && start != nil {
			if day := ParseInt(halves[1]); day != nil {
				t := time.Date(dr.Year, start.Month(), *day, 0, 0, 0, 0, time.UTC)
				end = &t
			}
		}
		dr.End = end
	} else {
		dr.End = start
	}
	return dr
}

func parseDayWithYear(half string, year int) *time.Time {
	s := strings.TrimSpace(strings.Trim(half, ","))
	if s == "" {
		return nil
	}
	for _, layout := range []string{"Jan 2 2006", "Jan 2006", "January 2 2006", "January 2006"} {
		if t, err := time.Parse(layout, s+" "+strconv.Itoa(year)); err == nil {
			return &t
		}
	}
	return nil
}

var agoToken = regexp.MustCompile(`(\d+)\s*(mo|w|d|h|m|s)`)

// ParseTimeAgo resolves the feed's relative completion labels
// ("3h 27m ago", "1mo 2w ago") against a reference clock. The labels carry
// no absolute timestamp, so the result is only as precise as the coarsest
// unit present. Labels without an "ago" suffix or without any duration
// token (live matches report "Ongoing") yield nil.
func ParseTimeAgo(text string, now time.Time) *time.Time {
	s := strings.ToLower(strings.TrimSpace(text))
	if !strings.HasSuffix(s, "ago") {
		return nil
	}

	tokens := agoToken.FindAllStringSubmatch(s, -1)
	if len(tokens) == 0 {
		return nil
	}

	var d time.Duration
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok[1])
		if err != nil {
			return nil
		}
		switch tok[2] {
		case "mo":
			d += time.Duration(n) * 30 * 24 * time.Hour
		case "w":
			d += time.Duration(n) * 7 * 24 * time.Hour
		case "d":
			d += time.Duration(n) * 24 * time.Hour
		case "h":
			d += time.Duration(n) * time.Hour
		case "m":
			d += time.Duration(n) * time.Minute
		case "s":
			d += time.Duration(n) * time.Second
		}
	}

	t := now.Add(-d)
	return &t
}

// InferTier classifies an event by keyword, first match wins.
func InferTier(eventName string) domain.Tier {
	name := strings.ToLower(eventName)
	switch {
	case strings.Contains(name, "champions"):
		return domain.TierS
	case strings.Contains(name, "masters"):
		return domain.TierA
	case strings.Contains(name, "challengers"), strings.Contains(name, "ascension"):
		return domain.TierB
	default:
		return domain.TierC
	}
}

var agentRoles = map[domain.Role][]string{
	domain.RoleDuelist:    {"jett", "raze", "reyna", "phoenix", "yoru", "neon", "iso", "waylay"},
	domain.RoleInitiator:  {"sova", "breach", "skye", "kay/o", "kayo", "fade", "gekko", "tejo"},
	domain.RoleController: {"brimstone", "omen", "viper", "astra", "harbor", "clove"},
	domain.RoleSentinel:   {"killjoy", "cypher", "sage", "chamber", "deadlock", "vyse"},
}

// InferAgentRole maps an agent name onto its role roster. Names outside
// every roster default to duelist, matching the upstream convention.
func InferAgentRole(agentName string) domain.Role {
	name := strings.ToLower(strings.TrimSpace(agentName))
	for role, roster := range agentRoles {
		for _, a := range roster {
			if a == name {
				return role
			}
		}
	}
	return domain.RoleDuelist
}

// MapPool is the fixed vocabulary of competitive maps.
var MapPool = []string{
	"Bind", "Haven", "Split", "Ascent", "Icebox", "Breeze", "Fracture",
	"Pearl", "Lotus", "Sunset", "Abyss", "Corrode",
}

// UnknownMap is the sentinel used for labels outside the map pool; callers
// surface a warning instead of silently mislabeling the map.
const UnknownMap = "Unknown"

// CanonicalMapName matches a scraped label against the map pool,
// case-insensitively. Unmatched labels return (UnknownMap, false).
func CanonicalMapName(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, m := range MapPool {
		if strings.ToLower(m) == l {
			return m, true
		}
	}
	return UnknownMap, false
}
