// Package metrics2 is a small counter/gauge facade over prometheus's
// client library, mirroring the GetCounter(name, tags) shape used
// throughout the device-agent code this tool is modeled on.
package metrics2

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is an increment-only metric identified by name and tags.
type Counter interface {
	Inc(delta int64)
	Dec(delta int64)
	Reset()
	Get() int64
}

type counter struct {
	mu  sync.Mutex
	val int64
	vec prometheus.Counter
}

func (c *counter) Inc(delta int64) {
	c.mu.Lock()
	c.val += delta
	c.mu.Unlock()
	c.vec.Add(float64(delta))
}

func (c *counter) Dec(delta int64) { c.Inc(-delta) }

func (c *counter) Reset() {
	c.mu.Lock()
	c.val = 0
	c.mu.Unlock()
}

func (c *counter) Get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

var (
	registryMu sync.Mutex
	counters   = map[string]*counter{}
)

// GetCounter returns the process-wide counter for name+tags, creating it
// (and registering it with the default prometheus registry) on first use.
// Subsequent calls with the same name and tags return the same Counter.
func GetCounter(name string, tags map[string]string) Counter {
	key := metricKey(name, tags)

	registryMu.Lock()
	defer registryMu.Unlock()
	if c, ok := counters[key]; ok {
		return c
	}

	labels := prometheus.Labels{}
	for k, v := range tags {
		labels[k] = v
	}
	vec := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        sanitize(name),
		Help:        name,
		ConstLabels: labels,
	})
	// Ignore duplicate-registration errors: tests routinely reconstruct
	// counters with the same name across cases.
	_ = prometheus.Register(vec)

	c := &counter{vec: vec}
	counters[key] = c
	return c
}

func metricKey(name string, tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}

func sanitize(name string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return r.Replace(name)
}
