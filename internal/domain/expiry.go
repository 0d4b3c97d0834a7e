package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const permanentLiteral = "permanent"

// Expiry is a premium grant: either permanent or valid until an epoch second.
type Expiry struct {
	Permanent bool
	Until     int64
}

func PermanentExpiry() Expiry {
	return Expiry{Permanent: true}
}

func ExpiresAt(t time.Time) Expiry {
	return Expiry{Until: t.Unix()}
}

// Active reports whether the grant is permanent or ends strictly after now.
func (e Expiry) Active(now time.Time) bool {
	return e.Permanent || e.Until > now.Unix()
}

func (e Expiry) Time() time.Time {
	return time.Unix(e.Until, 0)
}

// Extend adds d starting from the later of now and the current expiry.
// Permanent grants are returned unchanged.
func (e Expiry) Extend(now time.Time, d time.Duration) Expiry {
	if e.Permanent {
		return e
	}
	base := now
	if e.Until > now.Unix() {
		base = e.Time()
	}
	return ExpiresAt(base.Add(d))
}

func (e Expiry) MarshalJSON() ([]byte, error) {
	if e.Permanent {
		return json.Marshal(permanentLiteral)
	}
	return []byte(strconv.FormatInt(e.Until, 10)), nil
}

func (e *Expiry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == permanentLiteral {
			*e = PermanentExpiry()
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("premium expiry %q: %w", s, err)
		}
		*e = Expiry{Until: n}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("premium expiry: %w", err)
	}
	*e = Expiry{Until: int64(f)}
	return nil
}
