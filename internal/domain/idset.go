package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// IDSet is an ordered set of Telegram ids. On disk members may be numbers
// or numeric strings.
type IDSet []int64

func (s IDSet) Contains(id int64) bool {
	return lo.Contains(s, id)
}

// Add appends id unless present and reports whether the set changed.
func (s *IDSet) Add(id int64) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *IDSet) Remove(id int64) bool {
	if !s.Contains(id) {
		return false
	}
	*s = lo.Without(*s, id)
	return true
}

func (s IDSet) normalized() IDSet {
	if s == nil {
		return IDSet{}
	}
	return lo.Uniq(s)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("id set: %w", err)
	}

	out := make(IDSet, 0, len(raw))
	for _, item := range raw {
		id, err := parseID(item)
		if err != nil {
			return err
		}
		out = append(out, id)
	}
	*s = out
	return nil
}

func parseID(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.ParseInt(n.String(), 10, 64)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("id %s: %w", raw, err)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", s, err)
	}
	return id, nil
}
