package domain

import (
	"encoding/json"
	"time"
)

// QuotaSnapshot is the derived allowance of a user in the trailing window.
type QuotaSnapshot struct {
	Limit        int
	Used         int
	Remaining    int
	NextRefillAt *time.Time
	Window       time.Duration
}

// Exhausted reports whether no job may be started.
func (q QuotaSnapshot) Exhausted() bool {
	return q.Remaining <= 0
}

type quotaJSON struct {
	Limit        int    `json:"limit"`
	Used         int    `json:"used"`
	Remaining    int    `json:"remaining"`
	NextRefillAt *int64 `json:"nextRefillAt"`
	WindowMs     int64  `json:"windowMs"`
}

// MarshalJSON renders instants and durations as milliseconds.
func (q QuotaSnapshot) MarshalJSON() ([]byte, error) {
	out := quotaJSON{
		Limit:     q.Limit,
		Used:      q.Used,
		Remaining: q.Remaining,
		WindowMs:  q.Window.Milliseconds(),
	}
	if q.NextRefillAt != nil {
		ms := q.NextRefillAt.UnixMilli()
		out.NextRefillAt = &ms
	}
	return json.Marshal(out)
}
