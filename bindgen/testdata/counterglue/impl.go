package counter

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/wippyai/bindgen/boundary"
)

const maxValue = 1000

func init() { Register(native{}) }

type native struct{}

type counterObj struct {
	released atomic.Bool
	value    uint64
	incs     uint32
	mode     Mode
}

func (c *counterObj) Release() { c.released.Store(true) }

func (c *counterObj) Increment(by uint32) (uint64, error) {
	if c.released.Load() {
		panic("increment on a released counter")
	}
	next := c.value + uint64(by)
	if c.mode == ModeChecked && next > maxValue {
		return 0, boundary.Errorf(CounterErrorOverflow, "counter at %d", c.value)
	}
	c.value = next
	c.incs++
	return c.value, nil
}

func (c *counterObj) Stats() Stats {
	return Stats{Value: c.value, Increments: c.incs, Mode: c.mode}
}

func (c *counterObj) Label(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, c.value)
}

func (native) NewCounter(start uint64, mode Mode) Counter {
	return &counterObj{value: start, mode: mode}
}

func (native) CounterMaxValue() uint64 { return maxValue }

func (native) Merge(into Counter, from Counter) error {
	dst, src := into.(*counterObj), from.(*counterObj)
	dst.value += src.value
	return nil
}

func (native) Parse(text string, payload []byte) (Counter, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return nil, boundary.Errorf(CounterErrorInvalidInput, "parse %q", text)
	}
	return &counterObj{value: v + uint64(len(payload))}, nil
}

func (native) ApplyStats(stats Stats) bool {
	return stats.Value >= uint64(stats.Increments)
}

func (native) UnitSquare() Shape { return square{} }

func (native) Authenticate(provider TokenProvider, service string) (bool, error) {
	tok, err := provider.GetToken(service)
	if err != nil {
		return false, err
	}
	return tok == "tok:"+service && provider.TTL() > 0, nil
}

type square struct{}

func (square) Area([]byte) ([]byte, error) { return []byte("1"), nil }

func (square) Describe(args []byte) ([]byte, error) {
	return append([]byte("square:"), args...), nil
}
