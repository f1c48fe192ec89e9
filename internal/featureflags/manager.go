// Package featureflags evaluates FEATURE_FLAGS rollout rules.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// rule is either a switch or a deterministic per-user percentage.
type rule struct {
	raw     string
	on      bool
	percent int // -1 for a plain switch
}

// Manager evaluates flags parsed from "name=value" pairs, for example
// "engagement_notifications=on,suggested_users=25%". Values are
// on/true/1, off/false/0 or N%. Malformed pairs are ignored.
type Manager struct {
	rules map[string]rule
}

func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[name] = r
		}
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, on: true, percent: -1}, true
	case "off", "false", "0":
		return rule{raw: value, percent: -1}, true
	}
	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(n, 0), 100)}, true
}

// Enabled evaluates name for a user. Unset known flags take their default;
// unknown flags are off. A partial rollout never includes the anonymous user.
func (m *Manager) Enabled(name string, userID uuid.UUID) bool {
	name = normalize(name)
	var r rule
	found := false
	if m != nil {
		r, found = m.rules[name]
	}
	if !found {
		return defaults[name]
	}

	switch {
	case r.percent < 0:
		return r.on
	case r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == uuid.Nil:
		return false
	default:
		return bucket(name, userID) < r.percent
	}
}

// Raw returns the configured values by flag name.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured and every known flag for one user.
func (m *Manager) Snapshot(userID uuid.UUID) map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name, userID)
	}
	if m != nil {
		for name := range m.rules {
			out[name] = m.Enabled(name, userID)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket places a user in [0,100) independently per flag.
func bucket(name string, userID uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write(userID[:])
	return int(h.Sum32() % 100)
}
