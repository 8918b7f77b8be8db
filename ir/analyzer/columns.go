package analyzer

import "github.com/da0x/oc/ir"

// Columns maps block SIDs to layout columns: Inports sit in column 0,
// every other block in one more than its farthest producing column, and
// Outports in the final column.
type Columns struct {
	BySID map[string]int
	Last  int
}

// BuildColumns computes each block's column as its longest dependency-chain
// distance from an Inport. Disconnected blocks land in column 1, Outports
// are pushed past everything else.
func BuildColumns(sys *ir.System) *Columns {
	cols := &Columns{BySID: make(map[string]int)}

	for i := range sys.Blocks {
		if sys.Blocks[i].IsInport() {
			cols.BySID[sys.Blocks[i].SID] = 0
		}
	}

	// Relax until fixed point; the iteration bound guards against cycles.
	for iter := 0; iter <= len(sys.Blocks); iter++ {
		changed := false
		for i := range sys.Connections {
			conn := &sys.Connections[i]
			src, err := conn.SourceEndpoint()
			if err != nil {
				continue
			}
			srcBlk := sys.FindBlockBySID(src.BlockSID)
			if srcBlk != nil && srcBlk.IsStateful() {
				continue
			}
			srcCol, ok := cols.BySID[src.BlockSID]
			if !ok {
				continue
			}
			for _, dstSpec := range conn.Destinations() {
				dst, err := ir.ParseEndpoint(dstSpec)
				if err != nil {
					continue
				}
				if sys.FindBlockBySID(dst.BlockSID) == nil {
					continue
				}
				if cur, ok := cols.BySID[dst.BlockSID]; !ok || cur < srcCol+1 {
					cols.BySID[dst.BlockSID] = srcCol + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	maxCol := 1
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if _, ok := cols.BySID[blk.SID]; !ok && !blk.IsOutport() {
			cols.BySID[blk.SID] = 1
		}
		if c := cols.BySID[blk.SID]; c > maxCol {
			maxCol = c
		}
	}
	for i := range sys.Blocks {
		if sys.Blocks[i].IsOutport() {
			cols.BySID[sys.Blocks[i].SID] = maxCol + 1
		}
	}
	cols.Last = maxCol + 1
	return cols
}
