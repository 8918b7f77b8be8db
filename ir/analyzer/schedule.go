// Package analyzer provides graph analyses over the block IR: the emission
// schedule used by code generation and the column assignment used by
// auto-layout.
package analyzer

import (
	"fmt"

	"github.com/da0x/oc/ir"
)

// Schedule is a deterministic emission order for one system's blocks.
type Schedule struct {
	// Order lists the SIDs of every non-Inport block, dependencies first.
	Order []string
}

// BuildSchedule computes the emission order for the system.
//
// Stateful blocks output prior-tick state, so connections sourced at them
// (or at Inports) contribute no dependency edges; this breaks every
// well-formed algebraic loop. The traversal is Kahn's algorithm with a FIFO
// ready queue seeded in block declaration order, which makes the order a
// stable observable of the output. A cycle that survives stateful breaking
// is reported as an error listing the stuck blocks.
func BuildSchedule(sys *ir.System) (*Schedule, []error) {
	deps := make(map[string]map[string]bool)
	var order []string
	for i := range sys.Blocks {
		blk := &sys.Blocks[i]
		if blk.IsInport() {
			continue
		}
		deps[blk.SID] = make(map[string]bool)
		order = append(order, blk.SID)
	}

	for i := range sys.Connections {
		conn := &sys.Connections[i]
		src, err := conn.SourceEndpoint()
		if err != nil {
			continue
		}
		srcBlk := sys.FindBlockBySID(src.BlockSID)
		if srcBlk == nil || srcBlk.IsInport() || srcBlk.IsStateful() {
			continue
		}
		for _, dstSpec := range conn.Destinations() {
			dst, err := ir.ParseEndpoint(dstSpec)
			if err != nil {
				continue
			}
			if _, ok := deps[dst.BlockSID]; ok && dst.BlockSID != src.BlockSID {
				deps[dst.BlockSID][src.BlockSID] = true
			}
		}
	}

	inDegree := make(map[string]int, len(deps))
	for sid, ds := range deps {
		inDegree[sid] = len(ds)
	}

	var ready []string
	for _, sid := range order {
		if inDegree[sid] == 0 {
			ready = append(ready, sid)
		}
	}

	sched := &Schedule{}
	emitted := make(map[string]bool)
	for len(ready) > 0 {
		sid := ready[0]
		ready = ready[1:]
		sched.Order = append(sched.Order, sid)
		emitted[sid] = true

		for _, other := range order {
			if emitted[other] || !deps[other][sid] {
				continue
			}
			delete(deps[other], sid)
			inDegree[other]--
			if inDegree[other] == 0 {
				ready = append(ready, other)
			}
		}
	}

	var errs []error
	if len(sched.Order) < len(order) {
		for _, sid := range order {
			if !emitted[sid] {
				blk := sys.FindBlockBySID(sid)
				errs = append(errs, fmt.Errorf(
					"system %s: unbreakable cycle through block %s (%s)",
					sys.ID, sid, blk.Name))
			}
		}
	}
	return sched, errs
}
