// Package kdtree is a bounding-volume tree over scene elements, refined with a
// surface area heuristic.  A query visits every element whose bounds the
// selector accepts, in no particular order.
package kdtree

import (
	"math"
	"math/rand"

	"row-major/whitted/aabox"
)

type KDElement struct {
	// A handle back into some other storage array.
	Ref int

	// The bounds of this element.
	Bounds aabox.AABox
}

type KDNode struct {
	Bounds aabox.AABox

	Elements []KDElement

	LoChild *KDNode
	HiChild *KDNode
}

// trialSplitsPerAxis is how many candidate cuts are scored on each axis.
const trialSplitsPerAxis = 5

func boundsOf(elements []KDElement) aabox.AABox {
	box := aabox.AccumZeroAABox()
	for _, element := range elements {
		box = aabox.MinContainingAABox(box, element.Bounds)
	}
	return box
}

func (cur *KDNode) refineViaSurfaceAreaHeuristic(splitCost, terminationThreshold float64, rng *rand.Rand) {
	parentArea := cur.Bounds.SurfaceArea()
	if parentArea <= 0 || math.IsNaN(parentArea) || math.IsInf(parentArea, 0) {
		return
	}

	bestObjective := math.Inf(1)
	var bestPreceding, bestSucceeding []KDElement

	for axis := 0; axis < 3; axis++ {
		for i := 0; i < trialSplitsPerAxis; i++ {
			trialCut := cur.Elements[rng.Intn(len(cur.Elements))].Bounds.Axis(axis).Hi

			preceding := []KDElement{}
			succeeding := []KDElement{}
			for _, element := range cur.Elements {
				if element.Bounds.Axis(axis).Hi < trialCut {
					preceding = append(preceding, element)
				} else {
					succeeding = append(succeeding, element)
				}
			}

			// A cut that leaves one side empty makes no progress.
			if len(preceding) == 0 || len(succeeding) == 0 {
				continue
			}

			objective := splitCost +
				(float64(len(preceding))*boundsOf(preceding).SurfaceArea()+
					float64(len(succeeding))*boundsOf(succeeding).SurfaceArea())/parentArea

			if objective < bestObjective {
				bestObjective = objective
				bestPreceding = preceding
				bestSucceeding = succeeding
			}
		}
	}

	// Only split when it is a good-enough improvement over testing every
	// element in this node.
	if bestPreceding == nil || bestObjective >= terminationThreshold*float64(len(cur.Elements)) {
		return
	}

	cur.LoChild = &KDNode{
		Bounds:   boundsOf(bestPreceding),
		Elements: bestPreceding,
	}
	cur.HiChild = &KDNode{
		Bounds:   boundsOf(bestSucceeding),
		Elements: bestSucceeding,
	}

	// All of cur's elements have been divided among its children.
	cur.Elements = nil
}

type KDTree struct {
	Root *KDNode
}

func NewKDTree(elements []KDElement) *KDTree {
	return &KDTree{
		Root: &KDNode{
			Bounds:   boundsOf(elements),
			Elements: elements,
		},
	}
}

// RefineViaSurfaceAreaHeuristic splits nodes while the estimated cost of
// visiting both children (splitCost plus their area-weighted element counts)
// stays below threshold times the cost of visiting the node's elements
// directly.
func (t *KDTree) RefineViaSurfaceAreaHeuristic(splitCost, threshold float64) {
	rng := rand.New(rand.NewSource(12345))

	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if len(cur.Elements) < 2 {
			continue
		}

		cur.refineViaSurfaceAreaHeuristic(splitCost, threshold, rng)

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}

type KDSelector func(b aabox.AABox) bool
type KDVisitor func(i int)

// Query calls visitor with the Ref of every element whose bounds, and whose
// ancestors' bounds, pass selector.  The selector is re-evaluated as the query
// proceeds, so it may tighten in response to what the visitor finds.
func (t *KDTree) Query(selector KDSelector, visitor KDVisitor) {
	if t == nil || t.Root == nil {
		return
	}

	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if !selector(cur.Bounds) {
			continue
		}

		for i := range cur.Elements {
			if selector(cur.Elements[i].Bounds) {
				visitor(cur.Elements[i].Ref)
			}
		}

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}

// Len counts the elements stored in the tree.
func (t *KDTree) Len() int {
	if t == nil || t.Root == nil {
		return 0
	}
	n := 0
	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]
		n += len(cur.Elements)
		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
	return n
}
