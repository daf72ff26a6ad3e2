// Package featureflags evaluates per-viewer feature switches from config.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// Recommendations gates the ranking oracle per viewer.
	Recommendations = "recommendations"
	// LivePush gates the marketplace websocket.
	LivePush = "live_push"
)

// defaults apply when FEATURE_FLAGS does not mention a flag.
var defaults = map[string]string{
	Recommendations: "on",
	LivePush:        "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "recommendations=25%,live_push=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a viewer.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic viewer rollout, e.g. 25%)
func (m *Manager) Enabled(name string, viewerID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if viewerID == 0 {
		return false
	}
	return rolloutBucket(name, viewerID) < pct
}

// Gate returns a per-viewer predicate for one flag.
func (m *Manager) Gate(name string) func(viewerID uint) bool {
	return func(viewerID uint) bool { return m.Enabled(name, viewerID) }
}

// Snapshot returns evaluated flag status for one viewer.
func (m *Manager) Snapshot(viewerID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, viewerID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, viewerID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), viewerID)))
	return int(h.Sum32() % 100)
}
