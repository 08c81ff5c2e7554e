package field

import (
	"reflect"
	"sort"
)

// Diff compares two payloads produced by the same ToData call shape and
// returns the old value of every key whose value changed. Keys present in
// only one payload are reported with the old value, nil when the key is new.
func Diff(old, new Data) Data {
	changed := Data{}
	for key, oldValue := range old {
		newValue, ok := new[key]
		if !ok || !reflect.DeepEqual(oldValue, newValue) {
			changed[key] = oldValue
		}
	}
	for key := range new {
		if _, ok := old[key]; !ok {
			changed[key] = nil
		}
	}
	return changed
}

// Keys returns the keys of data in sorted order.
func Keys(data Data) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
