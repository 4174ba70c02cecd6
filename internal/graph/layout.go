package graph

import (
	"math"
	"math/rand/v2"
)

// Force constants of the simulation.
const (
	centering     = 0.001
	springLength  = 150.0
	springK       = 0.01
	repelDistance = 100.0
	repelK        = 0.02
	damping       = 0.9
	margin        = 50.0
)

// LayoutOptions sizes the canvas and drives the simulation.
type LayoutOptions struct {
	Width      float64
	Height     float64
	Iterations int
	Seed       uint64
}

// DefaultLayoutOptions is an 800x600 canvas settled over 300 steps.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{Width: 800, Height: 600, Iterations: 300, Seed: 1}
}

// Layout positions the nodes of g in place. The same graph and options
// always give the same positions.
func Layout(g *Graph, opts LayoutOptions) {
	def := DefaultLayoutOptions()
	if opts.Width <= 2*margin {
		opts.Width = def.Width
	}
	if opts.Height <= 2*margin {
		opts.Height = def.Height
	}
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	n := len(g.Nodes)
	vx := make([]float64, n)
	vy := make([]float64, n)
	index := make(map[string]int, n)
	for i := range g.Nodes {
		// Start inside the canvas, clear of the margins.
		g.Nodes[i].X = margin*2 + rng.Float64()*(opts.Width-margin*4)
		g.Nodes[i].Y = margin*2 + rng.Float64()*(opts.Height-margin*4)
		index[g.Nodes[i].ID] = i
	}

	cx, cy := opts.Width/2, opts.Height/2
	for range opts.Iterations {
		for i := range g.Nodes {
			node := &g.Nodes[i]
			vx[i] += (cx - node.X) * centering
			vy[i] += (cy - node.Y) * centering

			for _, e := range g.Edges {
				if e.Source != node.ID {
					continue
				}
				j, ok := index[e.Target]
				if !ok {
					continue
				}
				dx, dy := g.Nodes[j].X-node.X, g.Nodes[j].Y-node.Y
				dist := math.Hypot(dx, dy)
				if dist == 0 {
					continue
				}
				f := (dist - springLength) * springK
				vx[i] += dx / dist * f
				vy[i] += dy / dist * f
			}

			for j := range g.Nodes {
				if j == i {
					continue
				}
				dx, dy := node.X-g.Nodes[j].X, node.Y-g.Nodes[j].Y
				dist := math.Hypot(dx, dy)
				if dist >= repelDistance {
					continue
				}
				if dist == 0 {
					dx, dy, dist = rng.Float64()-0.5, rng.Float64()-0.5, 1
				}
				f := (repelDistance - dist) * repelK
				vx[i] += dx / dist * f
				vy[i] += dy / dist * f
			}

			vx[i] *= damping
			vy[i] *= damping
			node.X = clamp(node.X+vx[i], margin, opts.Width-margin)
			node.Y = clamp(node.Y+vy[i], margin, opts.Height-margin)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
