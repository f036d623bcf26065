package options

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/olekukonko/tablewriter"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd      = errors.New("event start time is after end time")
	ErrUnsetTime          = errors.New("unset event start or end time")
	ErrNoEventName        = errors.New("no event name")
	ErrUnsupportedCountry = errors.New("unsupported holiday country")
)

var countryHolidays = map[string][]*cal.Holiday{
	"US": {
		us.NewYear,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
}

// Event represents a time span expected to shift the series, e.g. a holiday. Events sharing
// a name are fit with a single coefficient.
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

func Christmas(start, end time.Time, durBefore, durAfter time.Duration) []Event {
	return Holiday(us.ChristmasDay, start, end, durBefore, durAfter)
}

func Thanksgiving(start, end time.Time, durBefore, durAfter time.Duration) []Event {
	return Holiday(us.ThanksgivingDay, start, end, durBefore, durAfter)
}

// Holiday returns a day long event for every observed occurrence of the holiday between start
// and end inclusive, widened by durBefore and durAfter. The day is expressed in the location of
// start.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()
	name := strings.ReplaceAll(hol.Name, " ", "_")

	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		_, observed := hol.Calc(i)
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, loc)
		if !day.Add(24*time.Hour).After(start) || day.After(end) {
			continue
		}
		events = append(events, Event{
			Name:  name,
			Start: day.Add(-durBefore),
			End:   day.Add(24 * time.Hour).Add(durAfter),
		})
	}
	return events
}

// CountryHolidays returns the holiday events of a country between start and end
func CountryHolidays(country string, start, end time.Time) ([]Event, error) {
	hols, exists := countryHolidays[strings.ToUpper(country)]
	if !exists {
		return nil, fmt.Errorf("%q, %w", country, ErrUnsupportedCountry)
	}
	var events []Event
	for _, hol := range hols {
		events = append(events, Holiday(hol, start, end, 0, 0)...)
	}
	return events, nil
}

// EventOptions holds explicit events along with an optional country whose holidays are
// generated for any requested time range.
type EventOptions struct {
	Events  []Event `json:"events"`
	Country string  `json:"country"`
}

func (e EventOptions) Validate() error {
	if e.Country == "" {
		return nil
	}
	if _, exists := countryHolidays[strings.ToUpper(e.Country)]; !exists {
		return fmt.Errorf("%q, %w", e.Country, ErrUnsupportedCountry)
	}
	return nil
}

// GenerateFeatures creates a 1.0 or 0.0 mask per event name over the input times
func (e EventOptions) GenerateFeatures(t []time.Time) *feature.Set {
	eFeat := feature.NewSet()
	if len(t) == 0 {
		return eFeat
	}

	events := e.Events
	if e.Country != "" {
		start, end := t[0], t[len(t)-1]
		for _, tPnt := range t {
			if tPnt.Before(start) {
				start = tPnt
			}
			if tPnt.After(end) {
				end = tPnt
			}
		}
		hols, err := CountryHolidays(e.Country, start.Add(-24*time.Hour), end)
		if err != nil {
			slog.Warn("not modelling holidays", "country", e.Country, "error", err.Error())
		}
		events = append(append([]Event{}, events...), hols...)
	}

	masks := make(map[string][]float64)
	var names []string
	for _, ev := range events {
		if err := ev.Valid(); err != nil {
			slog.Warn("not separately modelling invalid event", "name", ev.Name, "error", err.Error())
			continue
		}
		name := strings.ReplaceAll(ev.Name, " ", "_")
		mask, exists := masks[name]
		if !exists {
			mask = make([]float64, len(t))
			masks[name] = mask
			names = append(names, name)
		}
		for i, tPnt := range t {
			if !tPnt.Before(ev.Start) && tPnt.Before(ev.End) {
				mask[i] = 1.0
			}
		}
	}

	for _, name := range names {
		eFeat.Set(feature.NewEvent(name), masks[name])
	}
	return eFeat
}

func (e EventOptions) TablePrint(w io.Writer) error {
	if e.Country != "" {
		if _, err := fmt.Fprintf(w, "Holidays: %s\n", strings.ToUpper(e.Country)); err != nil {
			return err
		}
	}
	if len(e.Events) == 0 {
		_, err := fmt.Fprintln(w, "Events: None")
		return err
	}
	if _, err := fmt.Fprintln(w, "Events:"); err != nil {
		return err
	}
	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"Name", "Start", "End"})
	rows := make([][]string, 0, len(e.Events))
	for _, ev := range e.Events {
		rows = append(rows, []string{ev.Name, ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339)})
	}
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	return tbl.Render()
}
