package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/TFMV/OrganMatchPro/internal/standardizer"
)

// OrganSet is a sorted, duplicate-free list of canonical organ tags.
type OrganSet []string

// NewOrganSet canonicalizes tags, dropping blanks and duplicates.
func NewOrganSet(tags ...string) OrganSet {
	seen := make(map[string]struct{}, len(tags))
	out := make(OrganSet, 0, len(tags))
	for _, t := range tags {
		t = standardizer.Organ(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ParseOrgans normalizes the shapes organ lists are stored in: a list of
// tags, a mapping, a comma-separated string, or JSON bytes holding any of
// those. For mappings, string values are the tags; otherwise a key counts
// when its value is truthy. Unsupported shapes and invalid UTF-8 yield an
// empty set.
func ParseOrgans(raw interface{}) OrganSet {
	switch v := raw.(type) {
	case nil:
		return OrganSet{}
	case OrganSet:
		return NewOrganSet(v...)
	case []string:
		return NewOrganSet(v...)
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			tags = append(tags, fmt.Sprint(item))
		}
		return NewOrganSet(tags...)
	case map[string]interface{}:
		tags := make([]string, 0, len(v))
		for key, val := range v {
			switch x := val.(type) {
			case string:
				if strings.TrimSpace(x) != "" {
					tags = append(tags, x)
				}
			case bool:
				if x {
					tags = append(tags, key)
				}
			case nil:
			default:
				tags = append(tags, key)
			}
		}
		return NewOrganSet(tags...)
	case map[string]bool:
		tags := make([]string, 0, len(v))
		for key, ok := range v {
			if ok {
				tags = append(tags, key)
			}
		}
		return NewOrganSet(tags...)
	case []byte:
		if !utf8.Valid(v) {
			return OrganSet{}
		}
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return ParseOrgans(string(v))
		}
		return ParseOrgans(decoded)
	case string:
		if !utf8.ValidString(v) {
			return OrganSet{}
		}
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded interface{}
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return ParseOrgans(decoded)
			}
		}
		parts := strings.Split(trimmed, ",")
		for i, p := range parts {
			parts[i] = strings.Trim(p, "[]{}\"' \t")
		}
		return NewOrganSet(parts...)
	}
	return OrganSet{}
}

// Contains reports whether tag is in the set.
func (s OrganSet) Contains(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersect returns the tags present in both sets.
func (s OrganSet) Intersect(other OrganSet) OrganSet {
	out := OrganSet{}
	for _, tag := range s {
		if other.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// UnmarshalJSON accepts any shape ParseOrgans understands.
func (s *OrganSet) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseOrgans(raw)
	return nil
}
