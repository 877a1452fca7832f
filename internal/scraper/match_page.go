// Package scraper extracts per-map, per-player statistics from a match
// detail page. The markup has no machine-readable schema, so extraction is
// a layered fallback pipeline over loosely patterned CSS-class markers;
// every layer degrades field-by-field instead of failing the page.
package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vlr-pipeline/internal/constants"
	"vlr-pipeline/internal/normalize"
)

const (
	teamHeaderSelector = "div.wf-title-med"
	mapNavSelector     = "div.vm-stats-gamesnav-item"
	mapBlockSelector   = "div.vm-stats-game"
	mapLabelSelector   = "div.map"
	roundScoreSelector = "div.score"
	playerRowSelector  = "table tbody tr"
	playerNameSelector = "td.mod-player div.text-of"
	agentImgSelector   = "td.mod-agents img"
	statCellSelector   = "td.mod-stat span.mod-both"

	gameIDAttr = "data-game-id"
	// aggregateGameID marks the all-maps summary block, not a real map.
	aggregateGameID = "all"

	minStatCells = 6
	maxStatCells = 12
)

type MatchPage struct {
	Team1    string
	Team2    string
	Maps     []ScrapedMap
	Warnings []string
}

type ScrapedMap struct {
	// GameID is the source's per-map identifier from the block marker.
	GameID string
	// Number is the ordinal position of the map within the match.
	Number int
	// Name is the canonical map name, a "Map {id}" placeholder when both
	// resolution strategies failed, or the Unknown sentinel.
	Name string
	// NameKnown is false for placeholders and unrecognized labels.
	NameKnown   bool
	Team1Rounds *int
	Team2Rounds *int
	Players     []PlayerRow
}

type PlayerRow struct {
	Name string
	// TeamNum is 1 or 2, assigned positionally: the first five rows of a
	// block are team 1's roster, the rest team 2's.
	TeamNum int
	Agent   string
	Stats   StatLine
}

// ScrapeMatchPage runs the full extraction pipeline over one page. The
// only hard failure is unparseable HTML; thereafter everything degrades.
// Zero extracted maps is the caller's failure signal.
func ScrapeMatchPage(html []byte) (*MatchPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse match page: %w", err)
	}

	page := &MatchPage{}
	page.Team1, page.Team2 = extractTeams(doc)
	navNames := extractMapNav(doc)

	blocks := doc.Find(mapBlockSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, ok := s.Attr(gameIDAttr)
		return ok && id != "" && id != aggregateGameID
	})

	blocks.Each(func(i int, block *goquery.Selection) {
		gameID, _ := block.Attr(gameIDAttr)
		number := i + 1

		label, resolved := navNames[gameID]
		if !resolved {
			// positional fallback: the i-th block's own map label
			label = mapLabel(block)
			resolved = label != ""
		}

		m := ScrapedMap{GameID: gameID, Number: number}
		switch {
		case !resolved:
			m.Name = fmt.Sprintf("Map %s", gameID)
			page.Warnings = append(page.Warnings,
				fmt.Sprintf("map %s: no name resolved by either strategy", gameID))
		default:
			canonical, known := normalize.CanonicalMapName(label)
			m.Name = canonical
			m.NameKnown = known
			if !known {
				page.Warnings = append(page.Warnings,
					fmt.Sprintf("map %s: label %q not in map pool", gameID, label))
			}
		}

		m.Team1Rounds, m.Team2Rounds = extractRoundScores(block)
		m.Players = extractPlayerRows(block)
		page.Maps = append(page.Maps, m)
	})

	return page, nil
}

// extractTeams takes the first two header-title markers as team 1 and
// team 2. Fewer than two matches leave the names empty; the rest of the
// scrape proceeds regardless.
func extractTeams(doc *goquery.Document) (string, string) {
	var names []string
	doc.Find(teamHeaderSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		names = append(names, cleanText(s.Text()))
		return len(names) < 2
	})
	var t1, t2 string
	if len(names) > 0 {
		t1 = names[0]
	}
	if len(names) > 1 {
		t2 = names[1]
	}
	return t1, t2
}

var leadingOrdinal = regexp.MustCompile(`^\d+\s*`)

// extractMapNav reads the map navigation strip, pairing each per-map
// identifier with its label. Labels carry the ordinal as embedded markup,
// stripped here.
func extractMapNav(doc *goquery.Document) map[string]string {
	names := make(map[string]string)
	doc.Find(mapNavSelector).Each(func(_ int, s *goquery.Selection) {
		gameID, ok := s.Attr(gameIDAttr)
		if !ok || gameID == "" || gameID == aggregateGameID {
			return
		}
		label := leadingOrdinal.ReplaceAllString(cleanText(s.Text()), "")
		if label != "" {
			names[gameID] = label
		}
	})
	return names
}

// mapLabel reads the in-block map label. The cell decorates the name with
// pick markers and durations after it, so only the leading token is kept.
func mapLabel(block *goquery.Selection) string {
	text := cleanText(block.Find(mapLabelSelector).First().Text())
	if text == "" {
		return ""
	}
	return strings.Fields(text)[0]
}

// extractRoundScores takes the first two round-score markers of a block as
// team 1's and team 2's round counts. Missing markers leave counts nil.
func extractRoundScores(block *goquery.Selection) (*int, *int) {
	var scores []*int
	block.Find(roundScoreSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		scores = append(scores, normalize.ParseInt(s.Text()))
		return len(scores) < 2
	})
	var t1, t2 *int
	if len(scores) > 0 {
		t1 = scores[0]
	}
	if len(scores) > 1 {
		t2 = scores[1]
	}
	return t1, t2
}

// extractPlayerRows pulls every player row of a block: name label, agent
// from the image title attribute, and the trailing run of numeric stat
// cells, assigned positionally by the rule table.
func extractPlayerRows(block *goquery.Selection) []PlayerRow {
	var rows []PlayerRow
	block.Find(playerRowSelector).Each(func(_ int, tr *goquery.Selection) {
		name := cleanText(tr.Find(playerNameSelector).First().Text())
		if name == "" {
			return
		}

		var cells []string
		tr.Find(statCellSelector).Each(func(_ int, cell *goquery.Selection) {
			if len(cells) < maxStatCells {
				cells = append(cells, cleanText(cell.Text()))
			}
		})
		if len(cells) < minStatCells {
			return
		}

		agent, _ := tr.Find(agentImgSelector).First().Attr("title")

		teamNum := 1
		if len(rows) >= constants.RosterSize {
			teamNum = 2
		}

		rows = append(rows, PlayerRow{
			Name:    name,
			TeamNum: teamNum,
			Agent:   strings.TrimSpace(agent),
			Stats:   AssignStats(cells),
		})
	})
	return rows
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}
