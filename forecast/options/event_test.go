package options

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/aouyang1/forecast-studio/timedataset"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoliday(t *testing.T) {
	testData := map[string]struct {
		hol       *cal.Holiday
		start     time.Time
		end       time.Time
		durBefore time.Duration
		durAfter  time.Duration
		expected  []Event
	}{
		"no coverage": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.UTC),
			end:       time.Date(2024, 12, 12, 1, 0, 0, 0, time.UTC),
			durBefore: 0,
			durAfter:  0,
			expected:  []Event{},
		},
		"simple": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.UTC),
			durBefore: 0,
			durAfter:  0,
			expected: []Event{
				{
					"Christmas_Day",
					time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC),
				},
				{
					"Christmas_Day",
					time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
					time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"non utc tz": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
			durBefore: 0,
			durAfter:  0,
			expected: []Event{
				{
					"Christmas_Day",
					time.Date(2024, 12, 25, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
					time.Date(2024, 12, 26, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
				},
				{
					"Christmas_Day",
					time.Date(2025, 12, 25, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
					time.Date(2025, 12, 26, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
				},
			},
		},
		"with buffer": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.UTC),
			durBefore: time.Duration(24 * time.Hour),
			durAfter:  time.Duration(2 * 24 * time.Hour),
			expected: []Event{
				{
					"Christmas_Day",
					time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC),
				},
				{
					"Christmas_Day",
					time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := Holiday(td.hol, td.start, td.end, td.durBefore, td.durAfter)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestValid(t *testing.T) {
	testData := map[string]struct {
		name  string
		start time.Time
		end   time.Time
		err   error
	}{
		"unset start": {
			name: "e",
			end:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			err:  ErrUnsetTime,
		},
		"start after end": {
			name:  "e",
			start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			err:   ErrStartAfterEnd,
		},
		"no name": {
			start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			err:   ErrNoEventName,
		},
		"valid": {
			name:  "e",
			start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ev := NewEvent(td.name, td.start, td.end)
			err := ev.Valid()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestGenerateEventFeatures(t *testing.T) {
	start := time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC)
	tSeries := timedataset.GenerateTFrom(start, 14, 24*time.Hour)

	opt := EventOptions{
		Events: []Event{
			NewEvent("promo", start, start.Add(2*24*time.Hour)),
			NewEvent("promo", start.Add(10*24*time.Hour), start.Add(11*24*time.Hour)),
			NewEvent("", start, start.Add(time.Hour)),
		},
		Country: "us",
	}
	res := opt.GenerateFeatures(tSeries)

	promo, exists := res.Get(feature.NewEvent("promo"))
	require.True(t, exists)
	assert.Equal(t, []float64{1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, promo)

	christmas, exists := res.Get(feature.NewEvent("Christmas_Day"))
	require.True(t, exists)
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, christmas)

	// promo, christmas and new years day
	assert.Equal(t, 3, res.Len())

	assert.Equal(t, 0, EventOptions{}.GenerateFeatures(nil).Len())
}

func TestEventValidate(t *testing.T) {
	assert.Nil(t, EventOptions{}.Validate())
	assert.Nil(t, EventOptions{Country: "US"}.Validate())
	assert.ErrorIs(t, EventOptions{Country: "XX"}.Validate(), ErrUnsupportedCountry)

	_, err := CountryHolidays("XX", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUnsupportedCountry)
}

func TestEventTablePrint(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, EventOptions{}.TablePrint(&buf))
	assert.Equal(t, "Events: None\n", buf.String())

	buf.Reset()
	opt := EventOptions{
		Events: []Event{
			NewEvent("promo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		},
		Country: "us",
	}
	require.Nil(t, opt.TablePrint(&buf))
	assert.Contains(t, buf.String(), "Holidays: US")
	assert.Contains(t, buf.String(), "promo")
}
