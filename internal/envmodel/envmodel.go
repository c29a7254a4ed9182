// Package envmodel implements the multi-layer environment grid described in
// spec.md §4.1, grounded on
// original_source/prot-2-env-sfml/src/model/EnvModel.{hpp,cpp}.
package envmodel

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Cell is a single grid element: a freshness value in [0,1] and the
// simulation time it was last stamped (negative means never stamped).
type Cell struct {
	Value float64
	Time  float64
}

// UpdateFunc recomputes a cell's value given the current cell state. It is
// invoked for every cell on a layer when that layer is refreshed.
type UpdateFunc func(Cell) Cell

// Layer is one 2D array of cells plus its optional update function.
type Layer struct {
	Cells  [][]Cell // Cells[x][y]
	Update UpdateFunc
}

// Model is a rectangular grid of mw x mh cells covering a world of ww x wh,
// with one or more independently updatable layers.
type Model struct {
	ModelW, ModelH int
	WorldW, WorldH float64
	ratioW, ratioH float64
	Layers         []Layer
}

// New creates a Model with n layers, each sized mw x mh, covering a world of
// ww x wh. Invalid dimensions (mw/mh <= 0, or bigger than the world) are
// clamped to a 1:1 model/world mapping and logged, matching the original's
// recovery behavior rather than failing construction.
func New(mw, mh int, ww, wh float64, nLayers int) *Model {
	m := &Model{WorldW: ww, WorldH: wh}
	if mw <= 0 || mh <= 0 || float64(mw) > ww || float64(mh) > wh {
		log.Warn().Int("mw", mw).Int("mh", mh).Float64("ww", ww).Float64("wh", wh).
			Msg("envmodel: invalid model dimensions, falling back to 1:1 world mapping")
		mw = int(ww)
		mh = int(wh)
		if mw <= 0 {
			mw = 1
		}
		if mh <= 0 {
			mh = 1
		}
		m.ratioW, m.ratioH = 1, 1
	} else {
		m.ratioW = ww / float64(mw)
		m.ratioH = wh / float64(mh)
	}
	m.ModelW, m.ModelH = mw, mh
	if nLayers < 1 {
		nLayers = 1
	}
	m.Layers = make([]Layer, nLayers)
	for i := range m.Layers {
		m.Layers[i].Cells = make([][]Cell, mw)
		for x := 0; x < mw; x++ {
			m.Layers[i].Cells[x] = make([]Cell, mh)
			for y := 0; y < mh; y++ {
				m.Layers[i].Cells[x][y] = Cell{Value: 0, Time: -1}
			}
		}
	}
	return m
}

// SetLayerFunction installs the per-cell update function for a layer.
func (m *Model) SetLayerFunction(layer int, f UpdateFunc) {
	if layer < 0 || layer >= len(m.Layers) {
		log.Warn().Int("layer", layer).Msg("envmodel: setting function on unknown layer")
		return
	}
	m.Layers[layer].Update = f
}

// UpdateAll applies every layer's update function to every one of its cells.
func (m *Model) UpdateAll() {
	for i := range m.Layers {
		m.updateLayer(i)
	}
}

func (m *Model) updateLayer(l int) {
	layer := &m.Layers[l]
	if layer.Update == nil {
		return
	}
	for x := range layer.Cells {
		for y := range layer.Cells[x] {
			layer.Cells[x][y] = layer.Update(layer.Cells[x][y])
		}
	}
}

// worldToModel maps a world coordinate to a model cell coordinate, rounding
// up, per the EnvModel invariant in spec.md §3.
func (m *Model) worldToModel(x, y float64) (int, int) {
	ox := int(math.Ceil(x / m.ratioW))
	oy := int(math.Ceil(y / m.ratioH))
	return ox, oy
}

func (m *Model) inBounds(ox, oy int) bool {
	return ox >= 0 && ox < m.ModelW && oy >= 0 && oy < m.ModelH
}

// GetValue returns the cell value at the given world coordinate on the given
// layer. Out-of-bounds coordinates or an unknown layer are a logged no-op
// that returns 0.
func (m *Model) GetValue(x, y float64, layer int) float64 {
	if x < 0 || y < 0 || x > m.WorldW || y > m.WorldH {
		log.Warn().Float64("x", x).Float64("y", y).Msg("envmodel: get value out of world bounds")
		return 0
	}
	if layer < 0 || layer >= len(m.Layers) {
		log.Warn().Int("layer", layer).Msg("envmodel: get value on unknown layer")
		return 0
	}
	ox, oy := m.worldToModel(x, y)
	if !m.inBounds(ox, oy) {
		return 0
	}
	return m.Layers[layer].Cells[ox][oy].Value
}

// SetValue stamps v (and the current time t) into every cell within world
// radius r of world coordinate (x, y) on the given layer. r == 0 stamps only
// the single cell at (x, y). Out-of-bounds coordinates or an unknown layer
// are a logged no-op.
//
// The stamping walk is a bounding-box spiral from the center, exactly as in
// EnvModel::setValue: it terminates after a full revolution touches no
// in-radius cell, so it never scans the whole grid.
func (m *Model) SetValue(t, x, y, v, r float64, layer int) {
	if x < 0 || y < 0 || x > m.WorldW || y > m.WorldH {
		log.Warn().Float64("x", x).Float64("y", y).Msg("envmodel: set value out of world bounds")
		return
	}
	if layer < 0 || layer >= len(m.Layers) {
		log.Warn().Int("layer", layer).Msg("envmodel: set value on unknown layer")
		return
	}
	ox, oy := m.worldToModel(x, y)
	if !m.inBounds(ox, oy) {
		return
	}
	cells := m.Layers[layer].Cells
	cells[ox][oy] = Cell{Value: v, Time: t}
	if r <= 0 {
		return
	}

	xx, yy, dx, dy := 0, 0, 0, -1
	span := m.ModelW
	if m.ModelH > span {
		span = m.ModelH
	}
	maxIter := (2 * span) * (2 * span)
	ring, atR := 0, false
	for i := 0; i < maxIter; i++ {
		// Each revolution of the spiral is one square ring around the center.
		if k := int(math.Max(math.Abs(float64(xx)), math.Abs(float64(yy)))); k != ring {
			if !atR {
				break
			}
			ring, atR = k, false
		}
		cx, cy := xx+ox, yy+oy
		if m.inBounds(cx, cy) && math.Hypot(float64(xx)*m.ratioW, float64(yy)*m.ratioH) <= r {
			cells[cx][cy] = Cell{Value: v, Time: t}
			atR = true
		}
		if xx == yy || (xx < 0 && xx == -yy) || (xx > 0 && xx == 1-yy) {
			dx, dy = -dy, dx
		}
		xx += dx
		yy += dy
	}
}

// AddLayers appends nl freshly-initialized layers (value 0, never stamped)
// to the model.
func (m *Model) AddLayers(nl int) {
	for i := 0; i < nl; i++ {
		l := Layer{Cells: make([][]Cell, m.ModelW)}
		for x := 0; x < m.ModelW; x++ {
			l.Cells[x] = make([]Cell, m.ModelH)
			for y := 0; y < m.ModelH; y++ {
				l.Cells[x][y] = Cell{Value: 0, Time: -1}
			}
		}
		m.Layers = append(m.Layers, l)
	}
}

// RemoveLayer deletes the layer at index l.
func (m *Model) RemoveLayer(l int) {
	if l < 0 || l >= len(m.Layers) {
		log.Warn().Int("layer", l).Msg("envmodel: removing unknown layer")
		return
	}
	m.Layers = append(m.Layers[:l], m.Layers[l+1:]...)
}

// FreshnessUpdate builds the default layer-0 update function described in
// spec.md §4.1: freshness decays linearly from 1 (just stamped) to 0 over
// maxRevisitTime, and never-stamped cells are left unchanged. now is read at
// call time via the nowFn closure so the same UpdateFunc value keeps working
// as simulation time advances.
func FreshnessUpdate(nowFn func() float64, maxRevisitTime float64) UpdateFunc {
	return func(c Cell) Cell {
		if c.Time < 0 {
			return c
		}
		dt := nowFn() - c.Time
		switch {
		case dt <= 0:
			c.Value = 1
		case dt > maxRevisitTime:
			c.Value = 0
		default:
			c.Value = 1 - dt/maxRevisitTime
		}
		return c
	}
}
