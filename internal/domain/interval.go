package domain

import (
	"fmt"
	"strings"
	"time"
)

// RefreshInterval is one of the auto-refresh options offered to the
// presenter. A zero Every means refresh is off.
type RefreshInterval struct {
	Name  string        `json:"name"`
	Every time.Duration `json:"every_ns"`
}

var (
	RefreshOff = RefreshInterval{Name: "off"}
	Refresh10s = RefreshInterval{Name: "10s", Every: 10 * time.Second}
	Refresh30s = RefreshInterval{Name: "30s", Every: 30 * time.Second}
	Refresh60s = RefreshInterval{Name: "60s", Every: 60 * time.Second}
)

// RefreshIntervals lists the recognized options in display order.
var RefreshIntervals = []RefreshInterval{RefreshOff, Refresh10s, Refresh30s, Refresh60s}

// ParseRefreshInterval accepts "off", "10s", "30s" or "60s". An empty string
// means off.
func ParseRefreshInterval(s string) (RefreshInterval, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return RefreshOff, nil
	}
	for _, ri := range RefreshIntervals {
		if ri.Name == name {
			return ri, nil
		}
	}
	return RefreshInterval{}, fmt.Errorf("%w: %q (want off, 10s, 30s or 60s)", ErrInvalidInterval, s)
}

func (r RefreshInterval) Enabled() bool {
	return r.Every > 0
}
