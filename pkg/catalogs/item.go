package catalogs

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ItemID is the canonical, source-independent identifier of a catalog item.
// Numeric IDs are stored in their decimal text form so that 1042, 1042.0 and
// "1042" all name the same item.
type ItemID string

// SourceName names the origin of one result batch, e.g. "search_3".
type SourceName string

// Record is an opaque item payload as decoded from JSON.
type Record map[string]any

// Item pairs an ID with the payload of the first source that produced it.
type Item struct {
	ID      ItemID
	Payload Record
}

// ParseItemID normalizes a raw decoded value into an ItemID.
// It accepts JSON numbers, Go integer and integral float types, and
// non-blank strings. Anything else reports false.
func ParseItemID(v any) (ItemID, bool) {
	switch id := v.(type) {
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return ItemID(strconv.FormatInt(n, 10)), true
		}
		if f, err := id.Float64(); err == nil {
			return floatID(f)
		}
		return "", false
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return "", false
		}
		return ItemID(s), true
	case int:
		return ItemID(strconv.Itoa(id)), true
	case int64:
		return ItemID(strconv.FormatInt(id, 10)), true
	case int32:
		return ItemID(strconv.FormatInt(int64(id), 10)), true
	case uint64:
		return ItemID(strconv.FormatUint(id, 10)), true
	case float64:
		return floatID(id)
	default:
		return "", false
	}
}

func floatID(f float64) (ItemID, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return ItemID(strconv.FormatInt(int64(f), 10)), true
	}
	return ItemID(strconv.FormatFloat(f, 'f', -1, 64)), true
}

// Less orders IDs: integers first in numeric order, then everything else
// lexicographically.
func (id ItemID) Less(other ItemID) bool {
	a, aErr := strconv.ParseInt(string(id), 10, 64)
	b, bErr := strconv.ParseInt(string(other), 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return a < b
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return id < other
	}
}

// String implements fmt.Stringer.
func (id ItemID) String() string {
	return string(id)
}

// SortItemIDs sorts ids in place using ItemID.Less.
func SortItemIDs(ids []ItemID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

// SortSources sorts names in place lexicographically.
func SortSources(names []SourceName) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}

// ID extracts and normalizes the identifier stored under field.
func (r Record) ID(field string) (ItemID, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return ParseItemID(v)
}
