package tokenbucket

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the storage representation of a BucketState shared by gateways
// that persist JSON documents.
type Record struct {
	Quantity   int64     `json:"quantity"`
	WindowNS   int64     `json:"window_ns"`
	Remaining  int64     `json:"remaining"`
	LastRefill time.Time `json:"last_refill"`
}

// RecordFromState converts a state into its storage form.
func RecordFromState(s BucketState) Record {
	return Record{
		Quantity:   s.Limit.Quantity,
		WindowNS:   int64(s.Limit.Window),
		Remaining:  s.Remaining,
		LastRefill: s.LastRefill.UTC(),
	}
}

// State converts the record back into a BucketState.
func (r Record) State() BucketState {
	return BucketState{
		Limit: Limit{
			Quantity: r.Quantity,
			Window:   time.Duration(r.WindowNS),
		},
		Remaining:  r.Remaining,
		LastRefill: r.LastRefill,
	}
}

// MarshalState encodes a state as JSON.
func MarshalState(s BucketState) ([]byte, error) {
	data, err := json.Marshal(RecordFromState(s))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bucket state: %w", err)
	}
	return data, nil
}

// UnmarshalState decodes a state previously produced by MarshalState.
func UnmarshalState(data []byte) (BucketState, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return BucketState{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return r.State(), nil
}
