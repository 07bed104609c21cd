package connectivity

import (
	"log"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

// Networks maps every conductive position of a region to its network id.
// Ids are assigned in visitation order starting at 0.
type Networks struct {
	ByPos map[voxel.Pos]int
	Order []voxel.Pos
	Count int
}

func (n *Networks) Group(p voxel.Pos) (int, bool) {
	id, ok := n.ByPos[p]
	return id, ok
}

// Members returns the positions of network id in visitation order.
func (n *Networks) Members(id int) []voxel.Pos {
	var out []voxel.Pos
	for _, p := range n.Order {
		if n.ByPos[p] == id {
			out = append(out, p)
		}
	}
	return out
}

// neighborOffsets lists every position that can possibly connect: the four
// horizontal neighbours on the same level, one level down and one level up.
var neighborOffsets = func() []voxel.Pos {
	out := make([]voxel.Pos, 0, 12)
	for _, dy := range []int{0, -1, 1} {
		for _, d := range voxel.Horizontal() {
			v := d.Vec()
			out = append(out, voxel.Pos{X: v.X, Y: dy, Z: v.Z})
		}
	}
	return out
}()

// Analyze flood-fills region and partitions its conductive voxels into
// networks. The store is only read.
func Analyze(s voxel.Store, region voxel.Box, transparent voxel.MaterialSet) *Networks {
	nets := &Networks{ByPos: map[voxel.Pos]int{}}

	queue := make([]voxel.Pos, 0, 64)
	region.Each(func(start voxel.Pos) {
		if _, seen := nets.ByPos[start]; seen {
			return
		}
		if !s.Block(start).IsConductive() {
			return
		}

		id := nets.Count
		nets.ByPos[start] = id
		nets.Order = append(nets.Order, start)
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			p := queue[head]
			for _, off := range neighborOffsets {
				np := p.Add(off)
				if !region.Contains(np) {
					continue
				}
				if _, seen := nets.ByPos[np]; seen {
					continue
				}
				if !Connected(s, p, np, transparent) {
					continue
				}
				nets.ByPos[np] = id
				nets.Order = append(nets.Order, np)
				queue = append(queue, np)
			}
		}
		nets.Count++
	})
	return nets
}

// Painter marks the voxel beneath an analyzed position with its group.
type Painter func(s voxel.Store, beneath voxel.Pos, group int)

// MarkerPainter writes marker with data group % 16.
func MarkerPainter(marker uint16) Painter {
	return func(s voxel.Store, beneath voxel.Pos, group int) {
		s.SetBlock(beneath, voxel.B(marker, uint8(group%16)))
	}
}

// Recolor paints beneath every analyzed position in visitation order,
// skipping positions whose below material is in skip. It returns the
// number of painted and skipped positions.
func Recolor(s voxel.Store, nets *Networks, paint Painter, skip voxel.MaterialSet) (painted, skipped int) {
	if nets == nil || paint == nil {
		return 0, 0
	}
	for _, p := range nets.Order {
		below := p.Down()
		if skip.Has(s.Block(below).Material) {
			skipped++
			continue
		}
		paint(s, below, nets.ByPos[p])
		painted++
	}
	return painted, skipped
}

type Options struct {
	Transparent voxel.MaterialSet
	SkipBeneath voxel.MaterialSet
	// Paint defaults to MarkerPainter(voxel.Wool).
	Paint Painter
	Log   *log.Logger
}

type Result struct {
	Networks *Networks
	Painted  int
	Skipped  int
}

// AnalyzeConnectivity runs the flood fill to completion and only then
// applies the recoloring pass.
func AnalyzeConnectivity(s voxel.Store, region voxel.Box, opts Options) Result {
	nets := Analyze(s, region, opts.Transparent)
	paint := opts.Paint
	if paint == nil {
		paint = MarkerPainter(voxel.Wool)
	}
	painted, skipped := Recolor(s, nets, paint, opts.SkipBeneath)
	if opts.Log != nil {
		opts.Log.Printf("connectivity: region=%s networks=%d elements=%d painted=%d skipped=%d",
			region, nets.Count, len(nets.Order), painted, skipped)
	}
	return Result{Networks: nets, Painted: painted, Skipped: skipped}
}
