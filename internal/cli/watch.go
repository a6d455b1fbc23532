package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/geocode"
	"github.com/hightemp/mapcode/internal/output"
	"github.com/hightemp/mapcode/internal/session"
	"github.com/hightemp/mapcode/internal/source"
)

const settleGrace = 300 * time.Millisecond

var (
	startFlag  string
	lingerFlag time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive session: follow a location, its address and mapcodes",
	Long: `Starts an interactive session that keeps a location, its address and
its mapcodes up to date. Each line read from stdin is a command:

  52.376514,4.908543      move to a coordinate
  NLD 49.4V               move to a mapcode (local codes use the current territory)
  Oosterdokskade 5, Ams   move to an address
  tap LAT,LON             move like a tap on the map (ignored near 0,0)
  latlon LAT LON          move to separately entered latitude and longitude
  mapcode CODE            move to a mapcode
  address TEXT            move to an address
  n, next                 show the next mapcode alternative
  c, context              show the next territory
  q, quit                 stop

A status line is printed whenever the view changes. When stdin ends,
pending lookups get --linger to finish.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&startFlag, "start", "", "start location LAT,LON (default Amsterdam)")
	watchCmd.Flags().DurationVar(&lingerFlag, "linger", 5*time.Second, "time to wait for pending lookups after end of input")
}

// noGeocoder answers every geocoding request with no results; used offline.
type noGeocoder struct{}

func (noGeocoder) Reverse(context.Context, geo.Coordinate) (*geocode.Address, error) {
	return nil, geocode.ErrNoResults
}

func (noGeocoder) Search(context.Context, string) (geo.Coordinate, error) {
	return geo.Coordinate{}, geocode.ErrNoResults
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	start := geo.Default
	if startFlag != "" {
		if start, err = geo.Parse(startFlag); err != nil {
			return withCode(ExitInvalidInput, err)
		}
	}

	var gc session.Geocoder = noGeocoder{}
	if a.mode != source.ModeOffline {
		gc = geocode.NewClient(geocode.Options{
			BaseURL:   a.cfg.Geocoder.URL,
			UserAgent: a.cfg.Geocoder.UserAgent,
			Language:  a.cfg.Geocoder.Language,
		}, a.logger)
	}

	sess := session.New(a.src, gc, session.Options{
		Start:           start,
		GeocodeInterval: a.cfg.Limits.Geocode,
		MapcodeInterval: a.cfg.Limits.Mapcode,
		OnlineInterval:  a.cfg.Limits.Online,
		NumberFirst:     geocode.NumberFirst(a.cfg.Geocoder.Country),
	}, a.logger)

	return watch(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout(), lingerFlag)
}

// watch runs sess, feeding it commands read from r and printing views to w
// until ctx is done, a quit command is read, or input has ended and the
// session has settled.
func watch(ctx context.Context, sess *session.Session, r io.Reader, w io.Writer, linger time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var deadline <-chan time.Time
	var timer *time.Timer
	resetDeadline := func(d time.Duration) {
		if timer == nil {
			timer = time.NewTimer(d)
			deadline = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}

	eof := false
	for {
		select {
		case err := <-runErr:
			return err

		case v := <-sess.Updates():
			if err := printView(w, v); err != nil {
				return err
			}
			if eof {
				if v.AddressWaiting || v.MapcodeWaiting {
					resetDeadline(linger)
				} else {
					resetDeadline(settleGrace)
				}
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				eof = true
				resetDeadline(linger)
				continue
			}
			if !dispatch(sess, line) {
				cancel()
				return <-runErr
			}

		case <-deadline:
			cancel()
			return <-runErr
		}
	}
}

// dispatch sends one input line to the session. It returns false for quit.
func dispatch(sess *session.Session, line string) bool {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
	case "q", "quit", "exit":
		return false
	case "n", "next":
		sess.NextMapcode()
	case "c", "context":
		sess.NextContext()
	case "tap":
		if c, err := geo.Parse(rest); err == nil {
			sess.SetLocation(c)
		} else {
			sess.Submit(rest)
		}
	case "latlon":
		lat, lon, _ := strings.Cut(strings.ReplaceAll(rest, ",", " "), " ")
		sess.UseLatLon(lat, lon)
	case "mapcode":
		sess.UseMapcode(rest)
	case "address":
		sess.UseAddress(rest)
	default:
		sess.Submit(line)
	}
	return true
}

func printView(w io.Writer, v session.View) error {
	if jsonOutput {
		s, err := output.FormatViewJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
	_, err := fmt.Fprintln(w, output.FormatView(v))
	return err
}
