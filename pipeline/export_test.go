package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyTable(start time.Time, end time.Time) ForecastTable {
	var rows ForecastTable
	for t, i := start, 0; !t.After(end); t, i = t.Add(24*time.Hour), i+1 {
		v := float64(i) * 1.25
		rows = append(rows, ForecastRow{DS: t, YHat: v, YHatLower: v - 0.1, YHatUpper: v + 1.0/3.0})
	}
	return rows
}

func TestFilter(t *testing.T) {
	rows := dailyTable(
		time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
	)
	maxT := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	res := Filter(rows, maxT)
	require.Len(t, res, 30)
	for _, row := range res {
		assert.True(t, row.DS.After(maxT))
	}
	assert.Equal(t, time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC), res[0].DS)

	intraday := ForecastTable{
		{DS: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
		{DS: time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	assert.Len(t, Filter(intraday, maxT), 1)
	assert.Empty(t, Filter(nil, maxT))
}

func TestExportRoundTrip(t *testing.T) {
	testData := map[string]struct {
		rows         ForecastTable
		expectedHead string
	}{
		"daily": {
			rows: Filter(dailyTable(
				time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
			), time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)),
			expectedHead: "ds,yhat,yhat_lower,yhat_upper\n2020-06-02,",
		},
		"hourly": {
			rows: ForecastTable{
				{DS: time.Date(2020, 6, 1, 1, 0, 0, 0, time.UTC), YHat: 1, YHatLower: 0.5, YHatUpper: 1.5},
				{DS: time.Date(2020, 6, 1, 2, 0, 0, 0, time.UTC), YHat: -2e-9, YHatLower: -3, YHatUpper: 1e21},
			},
			expectedHead: "ds,yhat,yhat_lower,yhat_upper\n2020-06-01 01:00:00,1,0.5,1.5\n",
		},
		"empty": {
			rows:         ForecastTable{},
			expectedHead: "ds,yhat,yhat_lower,yhat_upper\n",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			csvBytes, err := EncodeCSV(td.rows)
			require.Nil(t, err)
			assert.True(t, strings.HasPrefix(string(csvBytes), td.expectedHead))

			uri := DataURI(csvBytes)
			assert.True(t, strings.HasPrefix(uri, "data:file/csv;base64,"))

			decoded, err := DecodeDataURI(uri)
			require.Nil(t, err)
			assert.Equal(t, csvBytes, decoded)

			rows, err := DecodeCSV(decoded)
			require.Nil(t, err)
			require.Len(t, rows, len(td.rows))
			for i := range rows {
				assert.True(t, td.rows[i].DS.Equal(rows[i].DS))
				assert.Equal(t, td.rows[i].YHat, rows[i].YHat)
				assert.Equal(t, td.rows[i].YHatLower, rows[i].YHatLower)
				assert.Equal(t, td.rows[i].YHatUpper, rows[i].YHatUpper)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeDataURI("data:text/plain;base64,AAAA")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	_, err = DecodeDataURI("data:file/csv;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	_, err = DecodeCSV([]byte("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrUnexpectedHeader)

	_, err = DecodeCSV([]byte("ds,yhat,yhat_lower,yhat_upper\nbad,1,2,3\n"))
	assert.ErrorIs(t, err, ErrNullTimestamp)
}
