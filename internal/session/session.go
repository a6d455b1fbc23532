// Package session implements the interactive mapcode controller: one
// location, its address and mapcodes, kept up to date through two coalescing
// request queues.
//
// All state is owned by the goroutine running Run. Commands and request
// completions are posted to it as closures; views are published on a
// channel of capacity one where a new view replaces an unread one.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hightemp/mapcode/internal/coalesce"
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/geocode"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/source"
	"github.com/hightemp/mapcode/internal/territory"
)

const (
	// DefaultGeocodeInterval is the minimum time between reverse geocodes.
	DefaultGeocodeInterval = time.Second
	// DefaultMapcodeInterval is the minimum time between mapcode lookups.
	DefaultMapcodeInterval = time.Second
	// DefaultOnlineInterval is how often an offline fallback retries the API.
	DefaultOnlineInterval = 30 * time.Second

	commandBuffer = 16
)

// Geocoder converts between addresses and coordinates.
type Geocoder interface {
	Reverse(ctx context.Context, c geo.Coordinate) (*geocode.Address, error)
	Search(ctx context.Context, query string) (geo.Coordinate, error)
}

// onlineProber is implemented by sources that can switch back to the API.
type onlineProber interface {
	TryOnline(ctx context.Context) bool
}

// Options configures a Session.
type Options struct {
	Start           geo.Coordinate
	GeocodeInterval time.Duration
	MapcodeInterval time.Duration
	OnlineInterval  time.Duration
	NumberFirst     bool

	// Now replaces time.Now for the rate limiters.
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.Start == (geo.Coordinate{}) {
		o.Start = geo.Default
	}
	if o.GeocodeInterval <= 0 {
		o.GeocodeInterval = DefaultGeocodeInterval
	}
	if o.MapcodeInterval <= 0 {
		o.MapcodeInterval = DefaultMapcodeInterval
	}
	if o.OnlineInterval <= 0 {
		o.OnlineInterval = DefaultOnlineInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Session is the mapcode controller.
type Session struct {
	id       string
	src      source.Source
	geocoder Geocoder
	opts     Options
	logger   *slog.Logger

	cmds    chan func()
	updates chan View
	done    chan struct{}
	wg      sync.WaitGroup

	// ctx is the context of Run, used by spawned work.
	ctx   context.Context
	spawn func(work func() func())

	// State below is owned by the loop.
	location    geo.Coordinate
	address     string
	result      *mapcode.Result
	selection   mapcode.Selection
	territories territory.Table
	fetching    bool
	probing     bool
	alert       *Alert
	changed     bool

	geocodeQ *coalesce.Queue
	mapcodeQ *coalesce.Queue
}

// New creates a session. Call Run to start it.
func New(src source.Source, gc Geocoder, opts Options, logger *slog.Logger) *Session {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()

	s := &Session{
		id:       id,
		src:      src,
		geocoder: gc,
		opts:     opts,
		logger:   logger.With("session", id),
		cmds:     make(chan func(), commandBuffer),
		updates:  make(chan View, 1),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		location: geo.New(opts.Start.Lat, opts.Start.Lon),
	}
	s.spawn = s.spawnAsync
	s.geocodeQ = coalesce.New(opts.GeocodeInterval, s.reverseGeocode, coalesce.WithClock(opts.Now))
	s.mapcodeQ = coalesce.New(opts.MapcodeInterval, s.lookupMapcode, coalesce.WithClock(opts.Now))
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Updates returns the channel views are published on.
func (s *Session) Updates() <-chan View {
	return s.updates
}

// Run processes commands, completions and timer ticks until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer func() {
		close(s.done)
		s.wg.Wait()
	}()

	geocodeTicker := time.NewTicker(s.opts.GeocodeInterval)
	defer geocodeTicker.Stop()
	mapcodeTicker := time.NewTicker(s.opts.MapcodeInterval)
	defer mapcodeTicker.Stop()
	onlineTicker := time.NewTicker(s.opts.OnlineInterval)
	defer onlineTicker.Stop()

	s.logger.Info("session started", "location", s.location.String(), "mode", s.src.Mode())
	s.enqueue(s.location)
	s.flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return nil
		case f := <-s.cmds:
			f()
		case <-geocodeTicker.C:
			s.check(s.geocodeQ)
		case <-mapcodeTicker.C:
			s.check(s.mapcodeQ)
		case <-onlineTicker.C:
			s.tryOnline()
		}
		s.flush()
	}
}

// post runs f on the loop. It returns false if the session has stopped.
func (s *Session) post(f func()) bool {
	select {
	case s.cmds <- f:
		return true
	case <-s.done:
		return false
	}
}

// spawnAsync runs work in a goroutine and applies the closure it returns on
// the loop.
func (s *Session) spawnAsync(work func() func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		apply := work()
		if apply == nil {
			return
		}
		select {
		case s.cmds <- apply:
		case <-s.ctx.Done():
		}
	}()
}

// SetLocation moves to c, as a tap on the map or a device location update
// would. Coordinates next to (0,0) are ignored.
func (s *Session) SetLocation(c geo.Coordinate) {
	s.post(func() { s.setLocation(c) })
}

// UseLatLon moves to a typed latitude and longitude.
func (s *Session) UseLatLon(lat, lon string) {
	s.post(func() { s.useLatLon(lat, lon) })
}

// UseMapcode moves to the location of a mapcode. Short codes without a
// territory are taken relative to the selected context.
func (s *Session) UseMapcode(code string) {
	s.post(func() { s.useMapcode(code) })
}

// UseAddress moves to the location of an address.
func (s *Session) UseAddress(address string) {
	s.post(func() { s.useAddress(address) })
}

// Submit interprets text as a mapcode, a "lat,lon" pair or an address.
func (s *Session) Submit(text string) {
	s.post(func() { s.submit(text) })
}

// NextContext selects the next territory of the current result.
func (s *Session) NextContext() {
	s.post(func() { s.nextContext() })
}

// NextMapcode selects the next alternative mapcode.
func (s *Session) NextMapcode() {
	s.post(func() { s.nextMapcode() })
}

func (s *Session) setLocation(c geo.Coordinate) {
	if !c.IsPlausible() {
		s.logger.Debug("ignoring implausible location", "location", c.String())
		return
	}
	s.moveTo(c)
}

func (s *Session) moveTo(c geo.Coordinate) {
	s.location = geo.New(c.Lat, c.Lon)
	s.changed = true
	s.enqueue(s.location)
}

func (s *Session) enqueue(c geo.Coordinate) {
	s.geocodeQ.Enqueue(c)
	s.mapcodeQ.Enqueue(c)
	s.changed = true
}

func (s *Session) useLatLon(lat, lon string) {
	c, err := geo.ParseLatLon(lat, lon)
	if err != nil {
		s.logger.Debug("invalid coordinate", "lat", lat, "lon", lon, "error", err)
		s.setAlert("Incorrect coordinate", fmt.Sprintf("'%s, %s' is not a valid latitude and longitude", lat, lon))
		return
	}
	s.moveTo(c)
}

func (s *Session) submit(text string) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return
	case mapcode.IsMapcode(text):
		s.useMapcode(text)
	default:
		if c, err := geo.Parse(text); err == nil {
			s.moveTo(c)
			return
		}
		s.useAddress(text)
	}
}

func (s *Session) useMapcode(code string) {
	code = strings.TrimSpace(code)
	full := mapcode.Qualify(code, s.selection.ContextCode(s.result))
	s.logger.Debug("mapcode lookup", "mapcode", full)

	s.spawn(func() func() {
		c, err := s.src.Decode(s.ctx, full)
		return func() {
			if err == nil {
				s.moveTo(c)
				return
			}
			if source.Retryable(err) {
				s.logger.Warn("mapcode decode failed", "mapcode", full, "error", err)
				s.setAlert("Mapcode service unavailable", fmt.Sprintf("Can't look up '%s' right now", code))
			} else {
				s.logger.Info("incorrect mapcode", "mapcode", full, "error", err)
				s.setAlert("Incorrect mapcode", fmt.Sprintf("Mapcode '%s' does not exist", code))
			}
			s.forceReverseGeocode()
		}
	})
}

func (s *Session) useAddress(address string) {
	address = strings.TrimSpace(address)
	s.spawn(func() func() {
		c, err := s.geocoder.Search(s.ctx, address)
		return func() {
			if err != nil {
				s.logger.Info("geocode failed", "address", address, "error", err)
				s.setAlert("Incorrect address", fmt.Sprintf("Can't find a location for\n'%s'", address))
				s.forceReverseGeocode()
				return
			}
			s.moveTo(c)
		}
	})
}

// forceReverseGeocode re-fetches the address of the current location, which
// restores the address after a failed lookup replaced it.
func (s *Session) forceReverseGeocode() {
	s.geocodeQ.Force()
	s.geocodeQ.Enqueue(s.location)
	s.changed = true
}

func (s *Session) nextContext() {
	if s.result == nil {
		return
	}
	s.selection.NextContext(s.result)
	s.changed = true
}

func (s *Session) nextMapcode() {
	if s.result == nil {
		return
	}
	s.selection.NextMapcode(s.result)
	s.changed = true
}

func (s *Session) setAlert(title, message string) {
	s.alert = &Alert{Title: title, Message: message}
	s.changed = true
}

func (s *Session) check(q *coalesce.Queue) {
	waiting := q.Waiting()
	if q.Check() || q.Waiting() != waiting {
		s.changed = true
	}
}

// reverseGeocode is the geocode queue's dispatch function.
func (s *Session) reverseGeocode(c geo.Coordinate) {
	s.logger.Debug("reverse geocode", "location", c.String())
	s.spawn(func() func() {
		addr, err := s.geocoder.Reverse(s.ctx, c)
		return func() { s.applyAddress(c, addr, err) }
	})
}

func (s *Session) applyAddress(c geo.Coordinate, addr *geocode.Address, err error) {
	s.geocodeQ.Done()
	s.changed = true
	if !c.Equal(s.location) {
		s.logger.Debug("dropping address for old location", "location", c.String())
		return
	}
	if err != nil {
		s.logger.Info("no reverse geocode info", "location", c.String(), "error", err)
		if errors.Is(err, geocode.ErrNoResults) {
			s.address = ""
		}
		return
	}
	s.address = addr.Format(s.opts.NumberFirst)
}

// lookupMapcode is the mapcode queue's dispatch function.
func (s *Session) lookupMapcode(c geo.Coordinate) {
	if s.territories == nil && !s.fetching {
		s.fetchTerritories()
	}

	s.logger.Debug("mapcode lookup", "location", c.String())
	s.spawn(func() func() {
		r, err := s.src.Encode(s.ctx, c)
		return func() { s.applyMapcode(c, r, err) }
	})
}

func (s *Session) applyMapcode(c geo.Coordinate, r *mapcode.Result, err error) {
	s.changed = true
	if err != nil {
		if source.Retryable(err) {
			s.logger.Warn("mapcode lookup failed, will retry", "location", c.String(), "error", err)
			s.mapcodeQ.Restore(c)
			s.geocodeQ.Restore(c)
			return
		}
		s.mapcodeQ.Done()
		s.logger.Info("no mapcode for location", "location", c.String(), "error", err)
		if c.Equal(s.location) {
			s.result = nil
			s.selection = mapcode.Selection{}
			if errors.Is(err, source.ErrUnavailable) {
				s.setAlert("Offline", "No mapcodes are available offline for this location")
			}
		}
		return
	}

	s.mapcodeQ.Done()
	if !c.Equal(s.location) {
		s.logger.Debug("dropping mapcodes for old location", "location", c.String())
		return
	}
	s.selection = s.selection.Rebase(s.result, r)
	s.result = r
}

func (s *Session) fetchTerritories() {
	s.fetching = true
	s.spawn(func() func() {
		table, err := s.src.Territories(s.ctx)
		return func() {
			s.fetching = false
			if err != nil {
				s.logger.Warn("failed to fetch territory names", "error", err)
				return
			}
			s.logger.Debug("territory names loaded", "count", table.Len())
			s.territories = table
			s.changed = true
		}
	})
}

func (s *Session) tryOnline() {
	prober, ok := s.src.(onlineProber)
	if !ok || s.probing || s.src.Mode() != source.ModeOffline {
		return
	}
	s.probing = true
	s.spawn(func() func() {
		online := prober.TryOnline(s.ctx)
		return func() {
			s.probing = false
			if !online {
				return
			}
			// Names from the API replace the local table, and the current
			// location is looked up again with the API.
			s.territories = nil
			s.mapcodeQ.Force()
			s.mapcodeQ.Enqueue(s.location)
			s.changed = true
		}
	})
}

// view builds the current view.
func (s *Session) view() View {
	v := View{
		Session:        s.id,
		Location:       s.location,
		Address:        s.address,
		AddressWaiting: s.geocodeQ.Waiting(),
		Result:         s.result,
		MapcodeWaiting: s.mapcodeQ.Waiting(),
		Mode:           s.src.Mode(),
		Alert:          s.alert,
	}
	if s.result != nil {
		v.Mapcode = s.selection.Current(s.result)
		v.MapcodeLabel = s.selection.Label(s.result)
		v.Context = s.selection.ContextCode(s.result)
		v.ContextLabel = s.selection.ContextLabel(s.result)
		if v.Context != "" {
			v.TerritoryName = s.territories.Name(v.Context)
		}
	}
	return v
}

// flush publishes a view if anything changed. Alerts are shown once.
func (s *Session) flush() {
	if !s.changed {
		return
	}
	s.changed = false
	v := s.view()
	s.alert = nil

	select {
	case <-s.updates:
	default:
	}
	s.updates <- v
}
