package validation

import (
	"fmt"
	"strings"
	"time"
)

// Date accepts either a plain calendar date or a full ISO-8601
// timestamp on the wire. Zero value means "not provided".
type Date struct {
	time.Time
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}
