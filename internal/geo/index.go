package geo

import "math"

// gridCells is the number of cells along each axis of the index. At the
// scale of the national IRIS layer this keeps candidate lists to a handful
// of polygons per query.
const gridCells = 256

// gridIndex buckets zone indices by the grid cells their bounding boxes
// cover. Candidate lists preserve zone insertion order, which is what makes
// first-match tie-breaking deterministic.
type gridIndex struct {
	minX, minY float64
	cellW      float64
	cellH      float64
	cells      map[[2]int][]int
}

func newGridIndex(zones []Zone) *gridIndex {
	idx := &gridIndex{cells: make(map[[2]int][]int)}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range zones {
		b := zones[i].bounds
		if b == nil {
			continue
		}
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
	}
	if math.IsInf(minX, 1) {
		// empty layer
		return idx
	}

	idx.minX, idx.minY = minX, minY
	idx.cellW = (maxX - minX) / gridCells
	idx.cellH = (maxY - minY) / gridCells
	if idx.cellW <= 0 {
		idx.cellW = 1
	}
	if idx.cellH <= 0 {
		idx.cellH = 1
	}

	for i := range zones {
		b := zones[i].bounds
		if b == nil {
			continue
		}
		c0, r0 := idx.cellOf(b.Min(0), b.Min(1))
		c1, r1 := idx.cellOf(b.Max(0), b.Max(1))
		for c := c0; c <= c1; c++ {
			for r := r0; r <= r1; r++ {
				key := [2]int{c, r}
				idx.cells[key] = append(idx.cells[key], i)
			}
		}
	}
	return idx
}

func (g *gridIndex) cellOf(x, y float64) (int, int) {
	c := int((x - g.minX) / g.cellW)
	r := int((y - g.minY) / g.cellH)
	if c < 0 {
		c = 0
	}
	if c >= gridCells {
		c = gridCells - 1
	}
	if r < 0 {
		r = 0
	}
	if r >= gridCells {
		r = gridCells - 1
	}
	return c, r
}

// candidates returns the zone indices whose bounding boxes cover the cell
// of (x, y), in ascending insertion order.
func (g *gridIndex) candidates(x, y float64) []int {
	if len(g.cells) == 0 {
		return nil
	}
	c, r := g.cellOf(x, y)
	return g.cells[[2]int{c, r}]
}
