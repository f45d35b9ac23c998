package access

import (
	"sync/atomic"
	"time"
)

// Metrics contains acquisition counters for one accessor.
type Metrics struct {
	Reads  uint64 // granted shared acquisitions
	Writes uint64 // granted exclusive acquisitions

	ContendedReads  uint64 // shared acquisitions that had to wait
	ContendedWrites uint64 // exclusive acquisitions that had to wait

	ReadWait  time.Duration // cumulative time spent blocked in AcquireRead
	WriteWait time.Duration // cumulative time spent blocked in AcquireWrite
}

type counters struct {
	reads, writes                   atomic.Uint64
	contendedReads, contendedWrites atomic.Uint64
	readWait, writeWait             atomic.Int64
}

// observe records a granted acquisition. A zero start means the caller never blocked.
func (c *counters) observe(mode Mode, start time.Time) {
	blocked := !start.IsZero()
	var waited time.Duration
	if blocked {
		waited = time.Since(start)
	}

	switch mode {
	case Shared:
		c.reads.Add(1)
		if blocked {
			c.contendedReads.Add(1)
			c.readWait.Add(int64(waited))
		}
	case Exclusive:
		c.writes.Add(1)
		if blocked {
			c.contendedWrites.Add(1)
			c.writeWait.Add(int64(waited))
		}
	}
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Reads:           c.reads.Load(),
		Writes:          c.writes.Load(),
		ContendedReads:  c.contendedReads.Load(),
		ContendedWrites: c.contendedWrites.Load(),
		ReadWait:        time.Duration(c.readWait.Load()),
		WriteWait:       time.Duration(c.writeWait.Load()),
	}
}
