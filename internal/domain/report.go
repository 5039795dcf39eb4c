package domain

import (
	"time"

	"github.com/herdline/herdline"
)

// Report is the server-side view of a submitted report. The common columns
// shared by all five tables are typed; kind-specific columns travel in
// Fields keyed by their wire names.
type Report struct {
	ID            string         `json:"id"`
	Kind          herdline.Kind  `json:"kind"`
	Owner         string         `json:"owner"`
	IsAccepted    bool           `json:"isAccepted"`
	Location      *string        `json:"location,omitempty"`
	ManualAddress *string        `json:"manualAddress,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Status renders the acceptance state for display.
func (r Report) Status() string {
	if r.IsAccepted {
		return "Accepted"
	}
	return "Pending"
}

// FeedItem pairs a report with its kind tag so heterogeneous reports can sit
// in one ordered collection without losing type information.
type FeedItem struct {
	Kind   herdline.Kind `json:"type"`
	Report Report        `json:"data"`
}

// Key is the dedupe identity of a feed item: at most one item per
// (kind, id) pair exists in the aggregated feed.
func (f FeedItem) Key() string {
	return f.Kind.String() + "/" + f.Report.ID
}
