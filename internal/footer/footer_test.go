package footer

import (
	"reflect"
	"testing"

	"github.com/ginjaninja78/excel-to-txt/internal/types"
)

func body(amounts ...int64) types.CanonicalTable {
	rows := make(types.CanonicalTable, len(amounts))
	for i, a := range amounts {
		rows[i] = types.CanonicalRow{Date: "2024010" + string(rune('1'+i)), Amount1: a}
	}
	return rows
}

func withFooter(rows types.CanonicalTable, a1, a2 int64) types.CanonicalTable {
	out := append(types.CanonicalTable{}, rows...)
	return append(out, types.CanonicalRow{Amount1: a1, Amount2: a2})
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name        string
		rows        types.CanonicalTable
		wantRemoved bool
		wantLen     int
	}{
		{
			name:        "exact total is removed",
			rows:        withFooter(body(100, 200, 300), 600, 0),
			wantRemoved: true,
			wantLen:     3,
		},
		{
			name:        "total within one centavo is removed",
			rows:        withFooter(body(100, 200, 300), 601, 0),
			wantRemoved: true,
			wantLen:     3,
		},
		{
			name:        "outlier is removed",
			rows:        withFooter(body(100, 200, 300), 50000, 0),
			wantRemoved: true,
			wantLen:     3,
		},
		{
			name:        "ordinary row is kept",
			rows:        withFooter(body(100, 200, 300), 250, 7),
			wantRemoved: false,
			wantLen:     4,
		},
		{
			name:        "second amount total is enough",
			rows:        append(types.CanonicalTable{{Date: "20240101", Amount1: 1, Amount2: 40}, {Date: "20240102", Amount1: 1, Amount2: 60}}, types.CanonicalRow{Amount1: 4, Amount2: 100}),
			wantRemoved: true,
			wantLen:     2,
		},
		{
			name:        "no blank date row",
			rows:        body(100, 200),
			wantRemoved: false,
			wantLen:     2,
		},
		{
			name:        "only row is never stripped",
			rows:        types.CanonicalTable{{Amount1: 600}},
			wantRemoved: false,
			wantLen:     1,
		},
		{
			name:        "empty table",
			rows:        types.CanonicalTable{},
			wantRemoved: false,
			wantLen:     0,
		},
		{
			name:        "zero median disables outlier rule",
			rows:        withFooter(body(0, 0, 0, 5), 1000, 9),
			wantRemoved: false,
			wantLen:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := Strip(tt.rows)
			if removed != tt.wantRemoved {
				t.Errorf("Strip() removed = %v, want %v", removed, tt.wantRemoved)
			}
			if len(got) != tt.wantLen {
				t.Errorf("Strip() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestStrip_LastBlankRowIsCandidate(t *testing.T) {
	// The first blank-date row stays in the body and counts toward the sum.
	rows := types.CanonicalTable{
		{Date: "20240101", Amount1: 100},
		{Date: "", Amount1: 50},
		{Date: "20240102", Amount1: 200},
		{Date: "", Amount1: 350},
	}

	got, removed := Strip(rows)
	if !removed {
		t.Fatal("Strip() did not remove the footer")
	}

	want := types.CanonicalTable{
		{Date: "20240101", Amount1: 100},
		{Date: "", Amount1: 50},
		{Date: "20240102", Amount1: 200},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Strip() = %+v, want %+v", got, want)
	}
}

func TestStrip_FooterNotLastRow(t *testing.T) {
	// A blank-date total in the middle is still the last blank-date row.
	rows := types.CanonicalTable{
		{Date: "20240101", Amount1: 100},
		{Date: "", Amount1: 300},
		{Date: "20240102", Amount1: 200},
	}

	got, removed := Strip(rows)
	if !removed || len(got) != 2 || got[1].Date != "20240102" {
		t.Errorf("Strip() = %+v, %v", got, removed)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		values []int64
		want   float64
	}{
		{[]int64{300, 100, 200}, 200},
		{[]int64{100, 200, 300, 400}, 250},
		{[]int64{-5}, -5},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := median(tt.values); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}
