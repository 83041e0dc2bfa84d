package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TTL defaults per resource type
const (
	SportsTTL  = 24 * time.Hour
	EventsTTL  = 15 * time.Minute
	OddsTTL    = 5 * time.Minute
	PropsTTL   = 5 * time.Minute
	EVTTL      = 5 * time.Minute
	CounterTTL = 48 * time.Hour
)

// TTLPolicy holds the expiration used for each resource type
type TTLPolicy struct {
	Sports  time.Duration
	Events  time.Duration
	Odds    time.Duration
	Props   time.Duration
	EV      time.Duration
	Counter time.Duration
}

// DefaultTTLPolicy returns the engine defaults
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Sports:  SportsTTL,
		Events:  EventsTTL,
		Odds:    OddsTTL,
		Props:   PropsTTL,
		EV:      EVTTL,
		Counter: CounterTTL,
	}
}

// Key prefixes
const (
	SportsKey      = "sports:list"
	eventsPrefix   = "events"
	oddsPrefix     = "odds"
	propsPrefix    = "props"
	evPrefix       = "ev"
	requestsPrefix = "api_requests"
	counterDateFmt = "2006-01-02"
)

// EventsKey returns the key for a sport's event list
func EventsKey(sportKey string) string {
	return fmt.Sprintf("%s:%s", eventsPrefix, sportKey)
}

// OddsKey returns the key for merged game odds. Lists are sorted so that
// request order does not fragment the cache.
func OddsKey(sportKey string, markets, regions, bookmakers []string) string {
	key := fmt.Sprintf("%s:%s:%s:%s", oddsPrefix, sportKey, joinSorted(markets), joinSorted(regions))
	if len(bookmakers) > 0 {
		key += ":" + joinSorted(bookmakers)
	}
	return key
}

// PropsKey returns the key for an event's merged player props
func PropsKey(eventID string, markets, regions []string) string {
	return fmt.Sprintf("%s:%s:%s:%s", propsPrefix, eventID, joinSorted(markets), joinSorted(regions))
}

// EVKey identifies a computed opportunity set
func EVKey(sportKey string, markets []string, threshold float64, includeLive bool, regions []string, method string, sharpBooks []string) string {
	key := fmt.Sprintf("%s:%s:%s:%s:%t:%s:%s",
		evPrefix,
		sportKey,
		joinSorted(markets),
		strconv.FormatFloat(threshold, 'f', -1, 64),
		includeLive,
		joinSorted(regions),
		method,
	)
	if len(sharpBooks) > 0 {
		key += ":" + joinSorted(sharpBooks)
	}
	return key
}

// RequestCounterKey returns the daily upstream request counter key for t's UTC date
func RequestCounterKey(t time.Time) string {
	return fmt.Sprintf("%s:%s", requestsPrefix, t.UTC().Format(counterDateFmt))
}

func joinSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
