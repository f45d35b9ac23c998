package main

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/zeusync/warehouse/internal/core/entity"
	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/warehouse"
	"github.com/zeusync/warehouse/internal/core/world"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Sprite struct {
	Frame uint16
}

const (
	inputTick    = 20 * time.Millisecond
	respawnTick  = 100 * time.Millisecond
	statsTick    = time.Second
	respawnBatch = 8
)

// workload renders at full speed and applies input at a fixed low rate.
// Storages are always requested in the order Position, Sprite, Velocity.
type workload struct {
	entities int
	readers  int
	writers  int
}

type counters struct {
	frames   atomic.Uint64
	drawn    atomic.Uint64
	updates  atomic.Uint64
	respawns atomic.Uint64
}

func (wl workload) run(ctx context.Context, w *world.World) (*counters, error) {
	world.Register[Position](w)
	world.Register[Sprite](w)
	world.Register[Velocity](w)
	for range wl.entities {
		spawn(w)
	}

	c := &counters{}
	systems := []world.System{respawnSystem{c}, reportSystem{c}}
	for range wl.readers {
		systems = append(systems, renderSystem{c})
	}
	for range wl.writers {
		systems = append(systems, inputSystem{c})
	}
	return c, w.Run(ctx, systems...)
}

func spawn(w *world.World) entity.ID {
	b := w.Build()
	world.With(b, Position{X: rand.Float64() * 100, Y: rand.Float64() * 100})
	world.With(b, Sprite{Frame: uint16(rand.IntN(8))})
	world.With(b, Velocity{DX: rand.Float64() - 0.5, DY: rand.Float64() - 0.5})
	return b.Entity()
}

// renderSystem reads positions and sprites as fast as it can.
type renderSystem struct{ c *counters }

func (renderSystem) Name() string { return "render" }

func (s renderSystem) Run(ctx context.Context, w *world.World) error {
	c := s.c
	for ctx.Err() == nil {
		gs := w.Warehouse().CheckoutMany(warehouse.Read[Position](), warehouse.Read[Sprite]())
		positions := warehouse.SharedOf[Position](gs)
		sprites := warehouse.SharedOf[Sprite](gs)

		var drawn int
		for id, pos := range positions.Values() {
			if _, ok := sprites.Get(id); ok && pos.X >= 0 {
				drawn++
			}
		}
		gs.Release()
		c.frames.Add(1)
		c.drawn.Add(uint64(drawn))
	}
	return nil
}

// inputSystem moves entities by their velocity at a fixed rate.
type inputSystem struct{ c *counters }

func (inputSystem) Name() string { return "input" }

func (s inputSystem) Run(ctx context.Context, w *world.World) error {
	c := s.c
	ticker := time.NewTicker(inputTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		gs := w.Warehouse().CheckoutMany(warehouse.Write[Position](), warehouse.Read[Velocity]())
		positions := warehouse.ExclusiveOf[Position](gs)
		velocities := warehouse.SharedOf[Velocity](gs)
		for id, vel := range velocities.Values() {
			if pos := positions.GetMut(id); pos != nil {
				pos.X += vel.DX
				pos.Y += vel.DY
			}
		}
		gs.Release()
		c.updates.Add(1)
	}
}

// respawnSystem removes random entities, maintains the world and refills it.
type respawnSystem struct{ c *counters }

func (respawnSystem) Name() string { return "respawn" }

func (s respawnSystem) Run(ctx context.Context, w *world.World) error {
	c := s.c
	ticker := time.NewTicker(respawnTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		capacity := w.Warehouse().Capacity()
		if capacity == 0 {
			continue
		}
		for range respawnBatch {
			if w.RemoveEntity(entity.ID(rand.Uint64N(capacity))) {
				c.respawns.Add(1)
			}
		}
		w.Maintain()
		for w.EntityCount() < int(capacity) {
			spawn(w)
		}
	}
}

// reportSystem logs throughput once per statsTick.
type reportSystem struct{ c *counters }

func (reportSystem) Name() string { return "report" }

func (s reportSystem) Run(ctx context.Context, w *world.World) error {
	c, logger := s.c, w.Logger()
	ticker := time.NewTicker(statsTick)
	defer ticker.Stop()

	var lastFrames, lastUpdates uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frames, updates := c.frames.Load(), c.updates.Load()
		logger.Info("throughput",
			log.Uint64("frames_per_second", frames-lastFrames),
			log.Uint64("updates_per_second", updates-lastUpdates),
		)
		lastFrames, lastUpdates = frames, updates
	}
}
