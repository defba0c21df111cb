package models

import "encoding/json"

// TerrainPayload is the nested status object pulled from a resort page:
// grooming areas, each carrying trails and lifts. Field presence varies by
// resort, so optional flags are pointers and consumers go through the
// derivation helpers below instead of reading raw fields.
type TerrainPayload struct {
	ResortName string         `json:"resortName,omitempty"`
	Areas      []GroomingArea `json:"areas"`
}

type GroomingArea struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Trails []Trail `json:"trails,omitempty"`
	Lifts  []Lift  `json:"lifts,omitempty"`
}

type Trail struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Difficulty     string  `json:"difficulty,omitempty"`
	Type           string  `json:"type,omitempty"`
	Status         string  `json:"status,omitempty"`
	IsOpen         *bool   `json:"isOpen,omitempty"`
	Groomed        *bool   `json:"groomed,omitempty"`
	GroomingStatus *string `json:"groomingStatus,omitempty"`
	GroomingType   string  `json:"groomingType,omitempty"`
}

type Lift struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	IsOpen    *bool  `json:"isOpen,omitempty"`
	WaitTime  *int   `json:"waitTime,omitempty"`
	Capacity  int    `json:"capacity,omitempty"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
}

// EffectiveStatus derives a status string from the explicit field, falling
// back to the open/closed flag when the feed omits it.
func (t *Trail) EffectiveStatus() string {
	if t.Status != "" {
		return t.Status
	}
	if t.IsOpen != nil {
		if *t.IsOpen {
			return "open"
		}
		return "closed"
	}
	return ""
}

// EffectiveGrooming derives the grooming status, falling back to the
// groomed boolean. Nil means the feed reported nothing for the day.
func (t *Trail) EffectiveGrooming() *string {
	if t.GroomingStatus != nil && *t.GroomingStatus != "" {
		return t.GroomingStatus
	}
	if t.Groomed != nil && *t.Groomed {
		s := "groomed"
		return &s
	}
	return nil
}

func (l *Lift) EffectiveStatus() string {
	if l.Status != "" {
		return l.Status
	}
	if l.IsOpen != nil {
		if *l.IsOpen {
			return "open"
		}
		return "closed"
	}
	return ""
}

// MarshalItem returns the lossless original payload stored alongside each
// flattened row for replay.
func MarshalItem(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
