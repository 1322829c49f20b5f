package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func exclusiveMode() CapacityMode {
	return CapacityMode{Kind: CapacityExclusive}
}

func pooledMode(max int) CapacityMode {
	return CapacityMode{Kind: CapacityPooled, MaxConcurrent: max}
}

func keys(from string, n int) []string {
	d, err := ParseDate(from)
	if err != nil {
		panic(err)
	}
	return HeldDateKeys(d, d.AddDate(0, 0, n), 0)
}

// Existing confirmed stay [Jun 1, Jun 5) blocks a request for [Jun 4, Jun 6)
// on an exclusive site: the ranges meet at Jun 4.
func TestExclusiveOverlapRejected(t *testing.T) {
	entry := &CalendarEntry{Booked: keys("2026-06-01", 4)}

	if entry.CanHold(exclusiveMode(), keys("2026-06-04", 2)) {
		t.Error("overlapping request must not be holdable")
	}
	// [Jun 5, Jun 7) touches only the check-out boundary and is fine.
	if !entry.CanHold(exclusiveMode(), keys("2026-06-05", 2)) {
		t.Error("adjacent request must be holdable")
	}
}

// Pooled capacity 3 with two holds over [Jun 1, Jun 3): a third overlapping
// request fits, a fourth does not.
func TestPooledCapacityCounting(t *testing.T) {
	entry := &CalendarEntry{Counts: map[string]int{
		"2026-06-01": 2,
		"2026-06-02": 2,
	}}
	mode := pooledMode(3)

	request := keys("2026-06-02", 2) // [Jun 2, Jun 4)
	if !entry.CanHold(mode, request) {
		t.Error("third reservation must fit under capacity 3")
	}

	// Simulate the third hold landing.
	for _, d := range request {
		entry.Counts[d]++
	}
	if entry.CanHold(mode, request) {
		t.Error("fourth reservation must exceed capacity 3")
	}
}

func TestLoadCountsBookedAndCounters(t *testing.T) {
	entry := &CalendarEntry{
		Booked: []string{"2026-06-01"},
		Counts: map[string]int{"2026-06-02": 2},
	}
	if got := entry.Load(keys("2026-06-01", 2)); got != 2 {
		t.Errorf("Load = %d, want 2", got)
	}
	if got := entry.Load(keys("2026-06-03", 2)); got != 0 {
		t.Errorf("Load on free dates = %d, want 0", got)
	}
}

func TestEmptyCalendarHoldsAnything(t *testing.T) {
	entry := &CalendarEntry{}
	if !entry.CanHold(exclusiveMode(), keys("2026-06-01", 30)) {
		t.Error("empty exclusive calendar must accept any window")
	}
	if !entry.CanHold(pooledMode(1), keys("2026-06-01", 30)) {
		t.Error("empty pooled calendar must accept any window")
	}
}

// The conditional-write filter must re-assert availability for the exact
// dates being claimed, so check and claim are one store-level operation.
func TestReserveFilterShape(t *testing.T) {
	siteID := primitive.NewObjectID()
	dates := keys("2026-06-01", 2)

	f := reserveFilter(siteID, exclusiveMode(), dates)
	nin, ok := f["booked"].(bson.M)
	if !ok {
		t.Fatal("exclusive filter must constrain the booked array")
	}
	if got, ok := nin["$nin"].([]string); !ok || len(got) != len(dates) {
		t.Fatalf("exclusive filter $nin = %v, want the %d claimed dates", nin["$nin"], len(dates))
	}

	f = reserveFilter(siteID, pooledMode(5), dates)
	conds, ok := f["$and"].([]bson.M)
	if !ok {
		t.Fatal("pooled filter must carry per-date conditions under $and")
	}
	if len(conds) != len(dates) {
		t.Fatalf("pooled filter has %d conditions, want one per date (%d)", len(conds), len(dates))
	}
}

func TestDateHelpers(t *testing.T) {
	ts := time.Date(2026, 6, 1, 23, 45, 0, 0, time.FixedZone("X", 3*3600))
	if got := DateKey(ts); got != "2026-06-01" {
		t.Errorf("DateKey = %s, want 2026-06-01 (UTC date of the instant)", got)
	}

	d, err := ParseDate("2026-06-01")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if !d.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", d)
	}
}
