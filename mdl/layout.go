package mdl

import (
	"sort"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/ir/analyzer"
)

// Layout spacing.
const (
	layoutLeftMargin = 50
	layoutTopMargin  = 30
	layoutColWidth   = 160
	layoutRowHeight  = 60
)

// AutoLayout assigns a position to every block: columns by dependency-chain
// distance from the inports, rows per column in declaration order.
func AutoLayout(sys *ir.System) {
	if len(sys.Blocks) == 0 {
		return
	}
	cols := analyzer.BuildColumns(sys)

	columnBlocks := make(map[int][]int)
	var colKeys []int
	for i := range sys.Blocks {
		col := cols.BySID[sys.Blocks[i].SID]
		if _, ok := columnBlocks[col]; !ok {
			colKeys = append(colKeys, col)
		}
		columnBlocks[col] = append(columnBlocks[col], i)
	}
	sort.Ints(colKeys)

	for _, col := range colKeys {
		x := layoutLeftMargin + col*layoutColWidth
		for row, idx := range columnBlocks[col] {
			blk := &sys.Blocks[idx]
			y := layoutTopMargin + row*layoutRowHeight

			w, h := blockSize(blk.Type)
			blk.Position = []int{x, y, x + w, y + h}
		}
	}
}

func blockSize(blockType string) (w, h int) {
	switch blockType {
	case ir.Inport, ir.Outport:
		return 30, 14
	case ir.SubSystem:
		return 120, 80
	case ir.Sum:
		return 36, 36
	case ir.Gain:
		return 40, 36
	}
	return 50, 36
}
