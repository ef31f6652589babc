package tzresolve

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"carepilot/internal/localclock"
)

// Converter renders an absolute instant as wall-clock fields in a zone,
// truncated to the minute.
//
// The resolver issues thousands of conversions per Resolve call, so
// implementations should cache per-zone state.
type Converter interface {
	Convert(instant time.Time, zone string) (localclock.DateTime, error)
}

// LocationCache is a Converter backed by the platform tzdata via
// time.LoadLocation, with an explicitly owned per-zone cache.
//
// The cache is plain state handed to whoever needs it, not a hidden
// process-wide singleton, so independent resolvers stay isolated and tests
// stay trivial.
type LocationCache struct {
	mu   sync.Mutex
	locs map[string]*time.Location
}

func NewLocationCache() *LocationCache {
	return &LocationCache{locs: map[string]*time.Location{}}
}

func (c *LocationCache) Convert(instant time.Time, zone string) (localclock.DateTime, error) {
	loc, err := c.location(zone)
	if err != nil {
		return localclock.DateTime{}, err
	}
	lt := instant.In(loc)
	return localclock.DateTime{
		Date: localclock.Date{Year: lt.Year(), Month: int(lt.Month()), Day: lt.Day()},
		Time: localclock.Time{Hour: lt.Hour(), Minute: lt.Minute()},
	}, nil
}

func (c *LocationCache) location(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, fmt.Errorf("%w: blank zone", ErrInvalidTimezone)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if loc, ok := c.locs[zone]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, zone, err)
	}
	c.locs[zone] = loc
	return loc, nil
}
