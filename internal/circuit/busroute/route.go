package busroute

import (
	"log"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

// RepeaterInterval is the power count at which a repeater replaces the
// next wire.
const RepeaterInterval = 15

type Options struct {
	Log *log.Logger
}

type ColorReport struct {
	Color     uint8
	Start     voxel.Pos
	End       voxel.Pos
	Guides    int // guides selected into the path
	Reached   int // path points reached, end terminal included
	Placed    int // wires and repeaters written
	Repeaters int
	Complete  bool
	// DeadEnd is where construction stopped when Complete is false.
	DeadEnd voxel.Pos
}

type Report struct {
	Colors []ColorReport
	// Unpaired lists colors that have only one of their two terminals.
	Unpaired []uint8
}

func (r *Report) Partial() []uint8 {
	var out []uint8
	for _, c := range r.Colors {
		if !c.Complete {
			out = append(out, c.Color)
		}
	}
	return out
}

// RouteBuses discovers terminals and guides inside region and builds one
// bus per color, in ascending color order. Terminal conflicts fail the
// whole call before anything is written; a bus that runs into a dead end
// is left partial and routing continues with the next color.
func RouteBuses(s voxel.Store, region voxel.Box, opts Options) (*Report, error) {
	ts, err := discoverTerminals(s, region)
	if err != nil {
		return nil, err
	}
	guides := discoverGuides(s, region, ts)

	rep := &Report{}
	for c := 0; c < numColors; c++ {
		start, end := ts.start[c], ts.end[c]
		if start == nil && end == nil {
			continue
		}
		if start == nil || end == nil || start.Pos == end.Pos {
			rep.Unpaired = append(rep.Unpaired, uint8(c))
			if opts.Log != nil {
				opts.Log.Printf("busroute: color %d (%s): missing terminal pair, skipped", c, voxel.ColorName(uint8(c)))
			}
			continue
		}

		path := SelectPath(start.Pos, end.Pos, guides[c])
		b := &builder{
			s:        s,
			region:   region,
			color:    uint8(c),
			final:    end.Pos,
			maxSteps: region.Volume(),
		}
		cr := b.build(start, path)
		rep.Colors = append(rep.Colors, cr)
		if opts.Log != nil {
			if cr.Complete {
				opts.Log.Printf("busroute: color %d (%s): routed guides=%d placed=%d repeaters=%d",
					c, voxel.ColorName(uint8(c)), cr.Guides, cr.Placed, cr.Repeaters)
			} else {
				opts.Log.Printf("busroute: color %d (%s): dead end at %v after %d/%d points",
					c, voxel.ColorName(uint8(c)), cr.DeadEnd.ToArray(), cr.Reached, cr.Guides+1)
			}
		}
	}
	return rep, nil
}

type leftBehind uint8

const (
	leftWire leftBehind = iota
	leftTerminal
	leftRepeater
)

// builder walks one color's path, writing into the store as it goes so
// every legality check sees the bus built so far.
type builder struct {
	s        voxel.Store
	region   voxel.Box
	color    uint8
	final    voxel.Pos
	maxSteps int

	power   int
	left    leftBehind
	prev    voxel.Pos
	heading voxel.Dir
	pending map[voxel.Pos]bool

	placed    int
	repeaters int
}

func (b *builder) build(start *Terminal, guides []voxel.Pos) ColorReport {
	cr := ColorReport{Color: b.color, Start: start.Pos, End: b.final, Guides: len(guides)}

	b.power = 1
	b.left = leftTerminal
	b.prev = start.Pos
	b.heading, _ = voxel.DirBetween(start.Repeater, start.Pos)
	b.pending = make(map[voxel.Pos]bool, len(guides))
	for _, g := range guides {
		b.pending[g] = true
	}

	points := append(append([]voxel.Pos{}, guides...), b.final)
	cur := start.Pos
	for _, next := range points {
		at, ok := b.segment(cur, next)
		if !ok {
			cr.DeadEnd = at
			break
		}
		cr.Reached++
		delete(b.pending, next)
		cur = next
	}
	cr.Complete = cr.Reached == len(points)
	cr.Placed = b.placed
	cr.Repeaters = b.repeaters
	return cr
}

// segment extends the bus from cur until it reaches to. It returns the last
// position reached and whether to was reached.
func (b *builder) segment(cur, to voxel.Pos) (voxel.Pos, bool) {
	for steps := 0; cur != to; steps++ {
		if steps >= b.maxSteps {
			return cur, false
		}
		st := Step{
			From:            cur,
			Prev:            b.prev,
			To:              to,
			Final:           b.final,
			Heading:         b.heading,
			Pending:         b.pending,
			AfterTerminal:   b.left == leftTerminal,
			AfterRepeater:   b.left == leftRepeater,
			PlacingRepeater: b.power+1 >= RepeaterInterval,
		}
		next, ok := b.pick(st)
		if !ok {
			return cur, false
		}
		dir, _ := voxel.DirBetween(cur, next)
		b.place(next, dir)
		b.prev, b.heading = cur, dir
		cur = next
	}
	return cur, true
}

func (b *builder) pick(st Step) (voxel.Pos, bool) {
	for _, cand := range Candidates(st.From, st.To, st.Heading) {
		if CanPlace(b.s, b.region, cand, st) {
			return cand, true
		}
	}
	return voxel.Pos{}, false
}

func (b *builder) place(p voxel.Pos, dir voxel.Dir) {
	b.power++
	if p == b.final {
		// The end terminal stays as built.
		b.left = leftWire
		return
	}
	if b.power >= RepeaterInterval {
		b.s.SetBlock(p, voxel.B(voxel.Repeater, voxel.RepeaterData(dir)))
		b.power = 0
		b.left = leftRepeater
		b.repeaters++
	} else {
		b.s.SetBlock(p, voxel.B(voxel.Wire, 0))
		b.left = leftWire
	}
	b.s.SetBlock(p.Down(), voxel.B(voxel.Wool, b.color))
	b.placed++
}
