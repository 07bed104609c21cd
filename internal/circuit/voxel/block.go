package voxel

// Classic block ids used by the circuit tools.
const (
	Air        uint16 = 0
	Stone      uint16 = 1
	Glass      uint16 = 20
	Wool       uint16 = 35
	Wire       uint16 = 55
	Repeater   uint16 = 93
	RepeaterOn uint16 = 94
)

// MaxData is the largest auxiliary data value a voxel can carry.
const MaxData = 15

type Block struct {
	Material uint16
	Data     uint8
}

func B(material uint16, data uint8) Block { return Block{Material: material, Data: data & MaxData} }

func (b Block) IsAir() bool { return b.Material == Air }

func (b Block) IsWire() bool { return b.Material == Wire }

func (b Block) IsRepeater() bool { return b.Material == Repeater || b.Material == RepeaterOn }

func (b Block) IsConductive() bool { return b.IsWire() || b.IsRepeater() }

func (b Block) IsWool() bool { return b.Material == Wool }

// Packed folds the block into 16 bits (12 bits material, 4 bits data).
func (b Block) Packed() uint16 { return b.Material<<4 | uint16(b.Data&MaxData) }

func Unpack(v uint16) Block { return Block{Material: v >> 4, Data: uint8(v & MaxData)} }

// RepeaterOrientation returns the direction a repeater outputs towards,
// derived from data % 4.
func RepeaterOrientation(data uint8) Dir {
	return horizontal[data%4]
}

// RepeaterData is the data value for a repeater outputting towards d.
func RepeaterData(d Dir) uint8 {
	if !d.IsHorizontal() {
		return 0
	}
	return uint8(d)
}

// PointsTowards reports whether a repeater at r with output direction d
// feeds p, comparing horizontal projections only.
func PointsTowards(r Pos, d Dir, p Pos) bool {
	v := d.Vec()
	return r.X+v.X == p.X && r.Z+v.Z == p.Z
}

// PointsAwayFrom reports whether p sits on the input side of a repeater at r.
func PointsAwayFrom(r Pos, d Dir, p Pos) bool {
	v := d.Vec()
	return r.X-v.X == p.X && r.Z-v.Z == p.Z
}

// AlignedWith reports whether the offset between a and b lies on the axis
// of d (either sense).
func AlignedWith(d Dir, a, b Pos) bool {
	return PointsTowards(a, d, b) || PointsAwayFrom(a, d, b)
}

// MaterialSet is a small set of material ids.
type MaterialSet map[uint16]struct{}

func NewMaterialSet(ids ...uint16) MaterialSet {
	s := make(MaterialSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s MaterialSet) Has(id uint16) bool {
	_, ok := s[id]
	return ok
}

// Store is the voxel access the circuit engines run against. Reads and
// writes are visible immediately to later reads.
type Store interface {
	Block(p Pos) Block
	SetBlock(p Pos, b Block)
}
