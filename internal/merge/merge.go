package merge

import (
	"cmp"
	"slices"
	"sort"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// RegionOdds is one region's response for a (sport, markets) request
type RegionOdds struct {
	Region string
	Events []models.EventOdds
}

// RegionProps is one region's player props response for an event
type RegionProps struct {
	Region string
	Props  *models.PlayerProps
}

// Odds merges per-region snapshots into one view per event. Bookmakers
// appearing in several regions become a single quote carrying the union of
// their markets, de-duplicated by (market key, alternate flag). Apart from
// the Region tag, where the last region in the slice wins, the result does
// not depend on region order.
func Odds(results []RegionOdds) []models.EventOdds {
	byID := make(map[string]*models.EventOdds)

	for _, r := range results {
		for _, e := range r.Events {
			merged, ok := byID[e.ID]
			if !ok {
				merged = &models.EventOdds{Event: e.Event}
				byID[e.ID] = merged
			} else {
				mergeEvent(&merged.Event, e.Event)
			}
			merged.Bookmakers = mergeBookmakers(merged.Bookmakers, e.Bookmakers, r.Region)
		}
	}

	events := make([]models.EventOdds, 0, len(byID))
	for _, e := range byID {
		sortQuotes(e.Bookmakers)
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CommenceTime.Equal(events[j].CommenceTime) {
			return events[i].CommenceTime.Before(events[j].CommenceTime)
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// Props merges per-region player props for one event. Nil responses are skipped;
// nil is returned when no region produced data.
func Props(results []RegionProps) *models.PlayerProps {
	var merged *models.PlayerProps

	for _, r := range results {
		if r.Props == nil {
			continue
		}
		if merged == nil {
			merged = &models.PlayerProps{EventOdds: models.EventOdds{Event: r.Props.Event}}
		} else {
			mergeEvent(&merged.Event, r.Props.Event)
		}
		merged.Bookmakers = mergeBookmakers(merged.Bookmakers, r.Props.Bookmakers, r.Region)
	}

	if merged != nil {
		sortQuotes(merged.Bookmakers)
	}
	return merged
}

// mergeEvent fills state that only some regions reported
func mergeEvent(dst *models.Event, src models.Event) {
	if dst.Completed == nil && src.Completed != nil {
		dst.Completed = src.Completed
	}
	if len(dst.Scores) == 0 && len(src.Scores) > 0 {
		dst.Scores = src.Scores
	}
	if dst.SportTitle == "" {
		dst.SportTitle = src.SportTitle
	}
}

func mergeBookmakers(dst, src []models.BookmakerQuote, region string) []models.BookmakerQuote {
	for _, book := range src {
		idx := -1
		for i := range dst {
			if dst[i].Key == book.Key {
				idx = i
				break
			}
		}

		if idx < 0 {
			quote := book
			quote.Markets = mergeMarkets(nil, book.Markets)
			quote.Regions = nil
			tagRegion(&quote, region)
			dst = append(dst, quote)
			continue
		}

		existing := &dst[idx]
		existing.Markets = mergeMarkets(existing.Markets, book.Markets)
		if book.LastUpdate.After(existing.LastUpdate) {
			existing.LastUpdate = book.LastUpdate
		}
		if existing.Title == "" {
			existing.Title = book.Title
		}
		tagRegion(existing, region)
	}
	return dst
}

func tagRegion(book *models.BookmakerQuote, region string) {
	if region == "" {
		return
	}
	book.Region = region
	for _, r := range book.Regions {
		if r == region {
			return
		}
	}
	book.Regions = append(book.Regions, region)
}

type marketKey struct {
	key         string
	isAlternate bool
}

// mergeMarkets unions src into dst. On a collision the fresher market wins;
// equal timestamps fall back to the larger outcome list, then to the
// lexicographically smaller outcome list, so the choice is independent of
// arrival order.
func mergeMarkets(dst, src []models.Market) []models.Market {
	index := make(map[marketKey]int, len(dst))
	for i, m := range dst {
		index[marketKey{m.Key, m.IsAlternate}] = i
	}

	for _, m := range src {
		k := marketKey{m.Key, m.IsAlternate}
		i, ok := index[k]
		if !ok {
			index[k] = len(dst)
			dst = append(dst, m)
			continue
		}
		if preferMarket(m, dst[i]) {
			dst[i] = m
		}
	}

	sort.SliceStable(dst, func(i, j int) bool {
		if dst[i].Key != dst[j].Key {
			return dst[i].Key < dst[j].Key
		}
		return !dst[i].IsAlternate && dst[j].IsAlternate
	})
	return dst
}

func preferMarket(candidate, current models.Market) bool {
	if !candidate.LastUpdate.Equal(current.LastUpdate) {
		return candidate.LastUpdate.After(current.LastUpdate)
	}
	if len(candidate.Outcomes) != len(current.Outcomes) {
		return len(candidate.Outcomes) > len(current.Outcomes)
	}
	return slices.CompareFunc(candidate.Outcomes, current.Outcomes, compareOutcome) < 0
}

func compareOutcome(a, b models.Outcome) int {
	if c := cmp.Compare(a.Description, b.Description); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := comparePoint(a.Point, b.Point); c != 0 {
		return c
	}
	return cmp.Compare(a.Price, b.Price)
}

// comparePoint orders a missing point before any line
func comparePoint(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

func sortQuotes(books []models.BookmakerQuote) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Key < books[j].Key
	})
}
