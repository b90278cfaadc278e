package stash

import (
	"testing"
	"time"
)

func TestNextDueDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		freq  Frequency
		today time.Time
		want  time.Time
		ok    bool
	}{
		{"never", Never(), Date(2024, 1, 1), time.Time{}, false},
		{"once future", Once(Date(2024, 6, 1)), Date(2024, 1, 1), Date(2024, 6, 1), true},
		{"once elapsed", Once(Date(2020, 1, 1)), Date(2024, 1, 1), time.Time{}, false},
		{"once today elapses", Once(Date(2024, 1, 1)), Date(2024, 1, 1), time.Time{}, false},
		{"weekly mid-week", Weekly(time.Friday), Date(2024, 1, 10), Date(2024, 1, 12), true},
		{"weekly on the day skips ahead", Weekly(time.Friday), Date(2024, 1, 12), Date(2024, 1, 19), true},
		{"biweekly on anchor", Biweekly(Date(2024, 1, 1)), Date(2024, 1, 1), Date(2024, 1, 15), true},
		{"biweekly one week in", Biweekly(Date(2024, 1, 1)), Date(2024, 1, 8), Date(2024, 1, 15), true},
		{"biweekly second period", Biweekly(Date(2024, 1, 1)), Date(2024, 1, 15), Date(2024, 1, 29), true},
		{"monthly later this month", Monthly(5), Date(2024, 1, 1), Date(2024, 1, 5), true},
		{"monthly rolls over", Monthly(5), Date(2024, 1, 10), Date(2024, 2, 5), true},
		{"monthly on the day rolls over", Monthly(5), Date(2024, 1, 5), Date(2024, 2, 5), true},
		{"monthly clamps to leap february", Monthly(31), Date(2024, 2, 1), Date(2024, 2, 29), true},
		{"monthly clamps to february", Monthly(31), Date(2023, 2, 5), Date(2023, 2, 28), true},
		{"bimonthly before anchor", Bimonthly(Date(2024, 1, 10)), Date(2024, 1, 5), Date(2024, 1, 10), true},
		{"bimonthly after anchor", Bimonthly(Date(2024, 1, 10)), Date(2024, 1, 10), Date(2024, 3, 10), true},
		{"annually this year", Annually(Date(2020, 2, 20)), Date(2024, 1, 1), Date(2024, 2, 20), true},
		{"annually next year", Annually(Date(2020, 2, 20)), Date(2024, 3, 1), Date(2025, 2, 20), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.freq.NextDueDate(tc.today)
			if ok != tc.ok {
				t.Fatalf("NextDueDate(%v) ok = %v, want %v", tc.today, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("NextDueDate(%v) = %v, want %v", tc.today, got, tc.want)
			}
		})
	}
}

func TestLastDueDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		freq  Frequency
		today time.Time
		want  time.Time
		ok    bool
	}{
		{"never", Never(), Date(2024, 1, 1), time.Time{}, false},
		{"once future has no previous period", Once(Date(2024, 6, 1)), Date(2024, 1, 1), time.Time{}, false},
		{"once elapsed", Once(Date(2020, 1, 1)), Date(2024, 1, 1), Date(2020, 1, 1), true},
		{"weekly", Weekly(time.Friday), Date(2024, 1, 12), Date(2024, 1, 12), true},
		{"biweekly", Biweekly(Date(2024, 1, 1)), Date(2024, 1, 8), Date(2024, 1, 1), true},
		{"monthly", Monthly(5), Date(2024, 1, 10), Date(2024, 1, 5), true},
		{"monthly clamps backward", Monthly(31), Date(2024, 3, 5), Date(2024, 2, 29), true},
		{"annually", Annually(Date(2020, 2, 20)), Date(2024, 1, 1), Date(2023, 2, 20), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.freq.LastDueDate(tc.today)
			if ok != tc.ok {
				t.Fatalf("LastDueDate(%v) ok = %v, want %v", tc.today, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("LastDueDate(%v) = %v, want %v", tc.today, got, tc.want)
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()
	starting := Date(2024, 6, 1)
	tests := []struct {
		name        string
		in          string
		hasStarting bool
		want        Frequency
		wantErr     bool
	}{
		{"no date", "no date", false, Never(), false},
		{"weekly", "every friday", false, Weekly(time.Friday), false},
		{"weekly short", "every fri", false, Weekly(time.Friday), false},
		{"monthly", "every 5th", false, Monthly(5), false},
		{"monthly bare number", "every 23", false, Monthly(23), false},
		{"biweekly", "every other friday", true, Biweekly(starting), false},
		{"bimonthly", "every other 5th", true, Bimonthly(starting), false},
		{"annually", "every year", true, Annually(starting), false},
		{"literal date", "2024/06/01", false, Once(starting), false},
		{"annually without starting", "every year", false, Frequency{}, true},
		{"biweekly without starting", "every other friday", false, Frequency{}, true},
		{"gibberish", "every fortnight", false, Frequency{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFrequency(tc.in, "2006/01/02", starting, tc.hasStarting)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFrequency(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseFrequency(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFrequencyString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		freq Frequency
		want string
	}{
		{Never(), "no date"},
		{Weekly(time.Monday), "due every monday"},
		{Monthly(1), "due every 1st"},
		{Monthly(22), "due every 22nd"},
		{Monthly(13), "due every 13th"},
		{Once(Date(2024, 6, 1)), "due 2024/06/01"},
	}
	for _, tc := range tests {
		if got := tc.freq.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
