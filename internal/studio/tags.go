package studio

import "strings"

// Tags is an ordered tag list capped at MaxTags, deduplicated by exact match.
type Tags []string

// NewTags builds a tag list from raw input, applying Add to every element.
func NewTags(raw []string) Tags {
	t := Tags{}
	for _, tag := range raw {
		t, _ = t.Add(tag)
	}
	return t
}

// Add returns the list with tag appended. Empty, duplicate or overflowing
// tags leave the list unchanged and report false.
func (t Tags) Add(tag string) (Tags, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" || len(t) >= MaxTags || t.Contains(tag) {
		return t, false
	}
	out := make(Tags, len(t), len(t)+1)
	copy(out, t)
	return append(out, tag), true
}

// Remove returns the list without the first entry equal to tag.
func (t Tags) Remove(tag string) (Tags, bool) {
	for i, existing := range t {
		if existing == tag {
			out := make(Tags, 0, len(t)-1)
			out = append(out, t[:i]...)
			return append(out, t[i+1:]...), true
		}
	}
	return t, false
}

// Contains reports an exact, case-sensitive match.
func (t Tags) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

// Strings returns the tags as a plain slice.
func (t Tags) Strings() []string {
	return append([]string{}, t...)
}
