package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/util"
)

// Date is a timestamp that also accepts plain YYYY-MM-DD strings, which is
// what date pickers send.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 and YYYY-MM-DD.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := util.ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

// Ptr returns the time as a pointer, nil for a nil Date.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
