package busroute

import "voxelcraft.ai/redstone/internal/circuit/voxel"

// bitset tracks consumed guide indexes.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

// discoverGuides collects, per color, the cell above every wool marker in
// region that is not part of a terminal pair. Guides keep region scan
// order, which is also the tie break during selection.
func discoverGuides(s voxel.Store, region voxel.Box, ts *terminalSet) [numColors][]voxel.Pos {
	var out [numColors][]voxel.Pos
	region.Each(func(p voxel.Pos) {
		b := s.Block(p)
		if !b.IsWool() {
			return
		}
		c := b.Data & voxel.MaxData
		if ts.claimed[c][p] {
			return
		}
		g := p.Up()
		if st := ts.start[c]; st != nil && st.Pos == g {
			return
		}
		if en := ts.end[c]; en != nil && en.Pos == g {
			return
		}
		out[c] = append(out[c], g)
	})
	return out
}

// SelectPath orders guides greedily: starting at start it repeatedly takes
// the unconsumed guide nearest (Manhattan) to the current point, stopping
// once the current point is adjacent to end or no guide is left. Equal
// distances resolve to the lower index.
func SelectPath(start, end voxel.Pos, guides []voxel.Pos) []voxel.Pos {
	consumed := newBitset(len(guides))
	cur := start
	var path []voxel.Pos
	for left := len(guides); left > 0 && voxel.Manhattan(cur, end) != 1; left-- {
		best, bestDist := -1, 0
		for i, g := range guides {
			if consumed.has(i) {
				continue
			}
			if d := voxel.Manhattan(cur, g); best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		consumed.set(best)
		path = append(path, guides[best])
		cur = guides[best]
	}
	return path
}
