package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-06-01"},
		{in: "2024-02-29"},
		{in: "2023-02-29", wantErr: true},
		{in: "2024-6-1", wantErr: true},
		{in: "", wantErr: true},
		{in: "2024-06-01T00:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, d.String())
		})
	}
}

func TestDate_StartOfWeek(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2024-06-03", want: "2024-06-03"}, // Monday
		{in: "2024-06-05", want: "2024-06-03"},
		{in: "2024-06-09", want: "2024-06-03"}, // Sunday
		{in: "2024-06-10", want: "2024-06-10"},
		{in: "2024-01-01", want: "2024-01-01"},
		{in: "2023-12-31", want: "2023-12-25"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MustParseDate(tt.in).StartOfWeek()
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := MustParseDate("2024-02-28")

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.Equal(t, -1, d.DaysUntil(d.AddDays(-1)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.Equal(NewDate(2024, time.February, 28)))
	assert.Equal(t, 0, d.Compare(MustParseDate("2024-02-28")))
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	ts := time.Date(2024, 6, 1, 2, 0, 0, 0, loc) // still May 31 in UTC

	assert.Equal(t, "2024-06-01", DateOf(ts).String())
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(wrapper{Date: MustParseDate("2024-06-01")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-01"}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-12-31"}`), &w))
	assert.Equal(t, "2024-12-31", w.Date.String())

	require.Error(t, json.Unmarshal([]byte(`{"date":20240601}`), &w))
	require.ErrorIs(t, json.Unmarshal([]byte(`{"date":"06/01/2024"}`), &w), ErrMalformedInput)
}
