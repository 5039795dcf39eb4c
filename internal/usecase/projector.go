package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
	"github.com/herdline/herdline/internal/utils"
)

const displayTimeLayout = "Jan 2, 2006, 3:04:05 PM"

// fieldGroups is the fixed per-kind display mapping: which kind-specific
// fields are headline ("primary") and which are supporting ("secondary").
var fieldGroups = map[herdline.Kind]struct {
	primary   []string
	secondary []string
}{
	herdline.KindCasualty: {
		primary:   []string{"manualAddress", "description"},
		secondary: []string{"incidentType", "date", "imageUri", "isAccepted"},
	},
	herdline.KindDonation: {
		primary:   []string{"manualAddress", "contactName", "contactPhone"},
		secondary: []string{"foodType", "quantity", "unit", "pickupTime", "isAccepted"},
	},
	herdline.KindFlocking: {
		primary:   []string{"manualAddress", "description"},
		secondary: []string{"herdSize", "dateTime", "imageUri", "isAccepted"},
	},
	herdline.KindGarbage: {
		primary:   []string{"manualAddress", "description"},
		secondary: []string{"garbageType", "cattleCount", "imageUri", "isAccepted"},
	},
	herdline.KindAdoption: {
		primary:   []string{"manualAddress", "name", "phone"},
		secondary: []string{"occupation", "purpose", "experience", "agreedToTerms", "isAccepted"},
	},
}

var systemFields = []string{"id", "createdAt", "updatedAt", "owner"}

// FieldProjection is the display-ready view of one feed item, split into
// three disjoint groups. Group maps marshal in display order.
type FieldProjection struct {
	Primary   utils.OrderedKVMap[string] `json:"primary"`
	Secondary utils.OrderedKVMap[string] `json:"secondary"`
	System    utils.OrderedKVMap[string] `json:"system"`
}

// Projector derives read-only display views over the aggregated feed. It
// never mutates the underlying reports.
type Projector struct{}

func NewProjector() *Projector {
	return &Projector{}
}

// OrderedView returns the feed sorted newest first by creation time. The
// sort is stable so equal-timestamp items keep their relative order across
// recomputations. The input is not modified.
func (p *Projector) OrderedView(items []domain.FeedItem) []domain.FeedItem {
	out := make([]domain.FeedItem, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Report.CreatedAt.After(out[j].Report.CreatedAt)
	})
	return out
}

// FieldProjection splits an item's fields into primary, secondary and
// system groups per the fixed mapping for its kind. Fields absent on the
// report are omitted rather than rendered empty.
func (p *Projector) FieldProjection(item domain.FeedItem) FieldProjection {
	groups := fieldGroups[item.Kind]

	return FieldProjection{
		Primary:   p.project(item.Report, groups.primary, true),
		Secondary: p.project(item.Report, groups.secondary, false),
		System:    p.project(item.Report, systemFields, false),
	}
}

func (p *Projector) project(r domain.Report, keys []string, skipEmpty bool) utils.OrderedKVMap[string] {
	out := make(utils.OrderedKVMap[string], len(keys))

	for i, key := range keys {
		value, ok := fieldValue(r, key)
		if !ok {
			continue
		}
		if s, isStr := value.(string); isStr && s == "" && skipEmpty {
			continue
		}
		out[key] = utils.OrderedKV[string]{
			Value: p.FormatField(key, value),
			Order: int64(i),
		}
	}
	return out
}

// FormatField renders a single field value for display. Decode failures
// stay local: an unparseable date or location becomes an explicit
// placeholder and never blocks the rest of the item.
func (p *Projector) FormatField(key string, value any) string {
	if value == nil {
		return "N/A"
	}

	if isDateKey(key) {
		return formatDate(value)
	}

	if b, ok := value.(bool); ok {
		if b {
			return "✅ Yes"
		}
		return "❌ No"
	}

	if key == "location" {
		s, ok := value.(string)
		if !ok {
			return "Invalid location"
		}
		coords, err := herdline.ParseLocation(s)
		if err != nil {
			return "Invalid location"
		}
		return coords.String()
	}

	return fmt.Sprintf("%v", value)
}

// DisplayLabel turns a camelCase field key into a human-readable label.
func (p *Projector) DisplayLabel(key string) string {
	if key == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	label := b.String()
	if strings.HasSuffix(label, "Id") {
		label = strings.TrimSuffix(label, "Id") + "ID"
	}
	return label
}

func isDateKey(key string) bool {
	return strings.Contains(key, "date") ||
		strings.Contains(key, "Time") ||
		key == "createdAt" || key == "updatedAt"
}

func formatDate(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format(displayTimeLayout)
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return "Invalid date"
		}
		return t.Format(displayTimeLayout)
	default:
		return "Invalid date"
	}
}

// fieldValue resolves a display key against the report: typed common
// columns first, then the kind-specific field map.
func fieldValue(r domain.Report, key string) (any, bool) {
	switch key {
	case "id":
		return r.ID, r.ID != ""
	case "owner":
		return r.Owner, r.Owner != ""
	case "createdAt":
		return r.CreatedAt, !r.CreatedAt.IsZero()
	case "updatedAt":
		return r.UpdatedAt, !r.UpdatedAt.IsZero()
	case "isAccepted":
		return r.IsAccepted, true
	case "manualAddress":
		if r.ManualAddress == nil {
			return nil, false
		}
		return *r.ManualAddress, true
	case "location":
		if r.Location == nil {
			return nil, false
		}
		return *r.Location, true
	}

	value, ok := r.Fields[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}
