package models

import "time"

// LiftRecord is one appended observation of a single lift while the resort
// is inside its operating window. Lines are never rewritten.
type LiftRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	LiftID      string    `json:"liftId,omitempty"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Type        string    `json:"type,omitempty"`
	WaitMinutes *int      `json:"waitMinutes,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	OpenTime    string    `json:"openTime,omitempty"`
	CloseTime   string    `json:"closeTime,omitempty"`
}

// OperatingWindow is the resort's effective lift-operating interval: the
// union of all per-lift schedules.
type OperatingWindow struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
