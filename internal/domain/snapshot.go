package domain

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotGroup holds the records of one source, ordered by that source's
// priority list.
type SnapshotGroup struct {
	Name    string        `json:"name"`
	Records []QuoteRecord `json:"records"`
	Error   string        `json:"error,omitempty"`
}

// Record returns the record with the given label.
func (g SnapshotGroup) Record(label string) (QuoteRecord, bool) {
	for _, r := range g.Records {
		if r.Label == label {
			return r, true
		}
	}
	return QuoteRecord{}, false
}

// Failed reports whether the whole group was replaced by placeholders.
func (g SnapshotGroup) Failed() bool {
	return g.Error != ""
}

// Snapshot is one point-in-time bundle of records from all configured
// sources.
type Snapshot struct {
	ID      string          `json:"id"`
	TakenAt time.Time       `json:"taken_at"`
	Groups  []SnapshotGroup `json:"groups"`
}

func NewSnapshot(groups []SnapshotGroup) Snapshot {
	return Snapshot{
		ID:      uuid.New().String(),
		TakenAt: time.Now(),
		Groups:  groups,
	}
}

func (s Snapshot) Group(name string) (SnapshotGroup, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return SnapshotGroup{}, false
}

// FailedGroups returns the names of groups whose source failed as a whole.
func (s Snapshot) FailedGroups() []string {
	var names []string
	for _, g := range s.Groups {
		if g.Failed() {
			names = append(names, g.Name)
		}
	}
	return names
}

// Placeholders counts the records shown without a value.
func (s Snapshot) Placeholders() int {
	n := 0
	for _, g := range s.Groups {
		for _, r := range g.Records {
			if r.IsPlaceholder() {
				n++
			}
		}
	}
	return n
}
