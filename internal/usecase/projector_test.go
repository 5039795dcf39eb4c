package usecase

import (
	"testing"
	"time"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
)

func TestOrderedViewNewestFirst(t *testing.T) {
	p := NewProjector()
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	items := []domain.FeedItem{
		{Kind: herdline.KindCasualty, Report: report(herdline.KindCasualty, "one", t1)},
		{Kind: herdline.KindDonation, Report: report(herdline.KindDonation, "two", t2)},
		{Kind: herdline.KindGarbage, Report: report(herdline.KindGarbage, "three", t3)},
	}

	ordered := p.OrderedView(items)
	got := []string{ordered[0].Report.ID, ordered[1].Report.ID, ordered[2].Report.ID}
	want := []string{"three", "two", "one"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], got[i])
		}
	}

	// A new item created between t2 and t3 lands between them on the next
	// recomputation.
	items = append(items, domain.FeedItem{
		Kind:   herdline.KindFlocking,
		Report: report(herdline.KindFlocking, "between", t2.Add(30*time.Minute)),
	})
	ordered = p.OrderedView(items)
	if ordered[1].Report.ID != "between" {
		t.Fatalf("expected new item at position 1, got %s", ordered[1].Report.ID)
	}
}

func TestOrderedViewStableOnEqualTimestamps(t *testing.T) {
	p := NewProjector()
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	items := []domain.FeedItem{
		{Kind: herdline.KindAdoption, Report: report(herdline.KindAdoption, "a", ts)},
		{Kind: herdline.KindAdoption, Report: report(herdline.KindAdoption, "b", ts)},
		{Kind: herdline.KindAdoption, Report: report(herdline.KindAdoption, "c", ts)},
	}

	first := p.OrderedView(items)
	second := p.OrderedView(items)
	for i := range first {
		if first[i].Report.ID != second[i].Report.ID {
			t.Fatalf("equal-timestamp ordering not stable at %d", i)
		}
	}
}

func TestOrderedViewDoesNotMutateInput(t *testing.T) {
	p := NewProjector()
	older := report(herdline.KindCasualty, "older", time.Now().Add(-time.Hour))
	newer := report(herdline.KindCasualty, "newer", time.Now())

	items := []domain.FeedItem{
		{Kind: herdline.KindCasualty, Report: older},
		{Kind: herdline.KindCasualty, Report: newer},
	}
	p.OrderedView(items)

	if items[0].Report.ID != "older" || items[1].Report.ID != "newer" {
		t.Fatalf("OrderedView mutated its input")
	}
}

func TestFormatFieldLocationEncodingsAgree(t *testing.T) {
	p := NewProjector()
	jsonForm := p.FormatField("location", `{"latitude":12.34,"longitude":56.78}`)
	commaForm := p.FormatField("location", "12.34,56.78")

	if jsonForm != commaForm {
		t.Fatalf("encodings disagree: %q vs %q", jsonForm, commaForm)
	}
	if jsonForm != "12.340000, 56.780000" {
		t.Fatalf("unexpected location rendering: %q", jsonForm)
	}
}

func TestFormatFieldPlaceholders(t *testing.T) {
	p := NewProjector()

	cases := []struct {
		key   string
		value any
		want  string
	}{
		{"description", nil, "N/A"},
		{"date", "not-a-date", "Invalid date"},
		{"date", "2025-03-01T10:00:00Z", "Mar 1, 2025, 10:00:00 AM"},
		{"location", "garbage-in", "Invalid location"},
		{"location", "12.5", "Invalid location"},
		{"isAccepted", true, "✅ Yes"},
		{"agreedToTerms", false, "❌ No"},
		{"herdSize", 12, "12"},
	}

	for _, c := range cases {
		if got := p.FormatField(c.key, c.value); got != c.want {
			t.Fatalf("FormatField(%q, %v): expected %q got %q", c.key, c.value, got, c.want)
		}
	}
}

func TestFieldProjectionGroups(t *testing.T) {
	p := NewProjector()
	address := "near the old market"
	r := report(herdline.KindCasualty, "c1", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	r.ManualAddress = &address
	r.Fields = map[string]any{
		"description":  "injured calf by the road",
		"incidentType": "road_accident",
		// date and imageUri absent on purpose
	}

	proj := p.FieldProjection(domain.FeedItem{Kind: herdline.KindCasualty, Report: r})

	if len(proj.Primary) != 2 {
		t.Fatalf("expected 2 primary fields, got %v", proj.Primary.Keys())
	}
	if _, ok := proj.Secondary["date"]; ok {
		t.Fatalf("absent fields must be omitted, not rendered empty")
	}
	if _, ok := proj.Secondary["isAccepted"]; !ok {
		t.Fatalf("isAccepted must appear even when false")
	}

	system := proj.System.Keys()
	want := []string{"id", "createdAt", "updatedAt", "owner"}
	if len(system) != len(want) {
		t.Fatalf("unexpected system fields: %v", system)
	}
	for i := range want {
		if system[i] != want[i] {
			t.Fatalf("system field order: expected %v got %v", want, system)
		}
	}

	// Groups are disjoint.
	for key := range proj.Primary {
		if _, ok := proj.Secondary[key]; ok {
			t.Fatalf("field %s appears in two groups", key)
		}
		if _, ok := proj.System[key]; ok {
			t.Fatalf("field %s appears in two groups", key)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	p := NewProjector()
	cases := map[string]string{
		"manualAddress": "Manual Address",
		"isAccepted":    "Is Accepted",
		"herdSize":      "Herd Size",
		"ownerId":       "Owner ID",
		"id":            "ID",
	}
	for key, want := range cases {
		if got := p.DisplayLabel(key); got != want {
			t.Fatalf("DisplayLabel(%q): expected %q got %q", key, want, got)
		}
	}
}
