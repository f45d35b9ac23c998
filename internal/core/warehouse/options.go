package warehouse

import (
	"fmt"
	"strings"

	"github.com/zeusync/warehouse/internal/core/observability/log"
)

// Growth selects when storages catch up with the registry capacity.
type Growth uint8

const (
	// GrowthLazy defers slot growth to the next checkout of each storage.
	GrowthLazy Growth = iota
	// GrowthEager grows every storage under exclusive access inside GrowAll.
	GrowthEager
)

func (g Growth) String() string {
	switch g {
	case GrowthLazy:
		return "lazy"
	case GrowthEager:
		return "eager"
	default:
		return fmt.Sprintf("growth(%d)", uint8(g))
	}
}

func ParseGrowth(s string) (Growth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lazy":
		return GrowthLazy, nil
	case "eager":
		return GrowthEager, nil
	default:
		return GrowthLazy, fmt.Errorf("%w: %q", ErrUnknownGrowth, s)
	}
}

func (g Growth) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Growth) UnmarshalText(text []byte) error {
	parsed, err := ParseGrowth(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

type options struct {
	logger   log.Log
	growth   Growth
	capacity uint64
	reserve  int
}

type Option func(*options)

func WithLogger(logger log.Log) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithGrowth(growth Growth) Option {
	return func(o *options) {
		o.growth = growth
	}
}

// WithCapacity sets the initial slot count of every storage.
func WithCapacity(capacity uint64) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// WithReserve preallocates room for n slots in every new storage.
func WithReserve(n int) Option {
	return func(o *options) {
		o.reserve = n
	}
}
