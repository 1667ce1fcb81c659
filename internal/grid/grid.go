// Package grid lays out a variable number of panes into a resizable
// split-tree, using 1000-scale integer fractional units for split
// ratios (so layouts persist and compare exactly, with no float
// drift) and an arena-of-stable-indices so two leaves can swap which
// pane they show without restructuring the tree or creating a cyclic
// reference between a pane and the node that displays it.
package grid

const (
	scale       = 1000
	minWidth    = 30
	minHeight   = 10
)

// Axis is the direction a split divides its rectangle along.
type Axis int

const (
	Horizontal Axis = iota // side-by-side
	Vertical                // stacked
)

// Rect is a pane's allotted screen region.
type Rect struct {
	X, Y, W, H int
}

// node is either a leaf (an arena index) or a split of two children.
type node struct {
	leaf     bool
	arenaIdx int

	axis     Axis
	ratio    int // 0..scale, fraction of the container the first child gets
	a, b     *node
}

// Grid is a split-tree over a fixed arena of pane slots.
type Grid struct {
	root  *node
	arena []int // arena[i] is the logical pane id currently shown at arena slot i
}

// New builds the default layout for paneCount panes, following the
// same count-based templates spec'd for 1, 2, 3, 4, and 5-or-more
// panes: 1 is a single leaf; 2 is a side-by-side split; 3 is a main
// pane beside a vertical stack of two; 4 is a 2x2 grid; 5+ falls back
// to an evenly weighted horizontal strip so no pane is ever dropped.
func New(paneCount int) *Grid {
	g := &Grid{}
	g.arena = make([]int, paneCount)
	for i := range g.arena {
		g.arena[i] = i
	}

	switch {
	case paneCount <= 1:
		g.root = &node{leaf: true, arenaIdx: 0}
	case paneCount == 2:
		g.root = split(Horizontal, leaf(0), leaf(1))
	case paneCount == 3:
		g.root = split(Horizontal, leaf(0), split(Vertical, leaf(1), leaf(2)))
	case paneCount == 4:
		g.root = split(Vertical,
			split(Horizontal, leaf(0), leaf(1)),
			split(Horizontal, leaf(2), leaf(3)),
		)
	default:
		g.root = stripLayout(paneCount)
	}
	return g
}

func leaf(idx int) *node { return &node{leaf: true, arenaIdx: idx} }

func split(axis Axis, a, b *node) *node {
	return &node{axis: axis, ratio: scale / 2, a: a, b: b}
}

func stripLayout(count int) *node {
	n := leaf(count - 1)
	for i := count - 2; i >= 0; i-- {
		ratio := scale / (count - i)
		n = &node{axis: Horizontal, ratio: ratio, a: leaf(i), b: n}
	}
	return n
}

// PaneAt returns the logical pane id shown at arena slot idx.
func (g *Grid) PaneAt(arenaIdx int) int { return g.arena[arenaIdx] }

// Swap exchanges which logical panes are shown at two arena slots.
// Because leaves reference arena slots rather than panes directly, a
// swap is an O(1) arena write with no tree mutation.
func (g *Grid) Swap(slotA, slotB int) {
	g.arena[slotA], g.arena[slotB] = g.arena[slotB], g.arena[slotA]
}

// Layout computes the rectangle for every arena slot given a
// container size.
func (g *Grid) Layout(width, height int) map[int]Rect {
	out := make(map[int]Rect)
	layoutNode(g.root, Rect{0, 0, width, height}, out)
	return out
}

func layoutNode(n *node, r Rect, out map[int]Rect) {
	if n.leaf {
		out[n.arenaIdx] = r
		return
	}
	if n.axis == Horizontal {
		wa := r.W * n.ratio / scale
		layoutNode(n.a, Rect{r.X, r.Y, wa, r.H}, out)
		layoutNode(n.b, Rect{r.X + wa, r.Y, r.W - wa, r.H}, out)
		return
	}
	ha := r.H * n.ratio / scale
	layoutNode(n.a, Rect{r.X, r.Y, r.W, ha}, out)
	layoutNode(n.b, Rect{r.X, r.Y + ha, r.W, r.H - ha}, out)
}

// Splitter identifies one adjustable split by its path from the root
// (a sequence of 'a'/'b' child selections).
type Splitter []byte

// FindSplitters walks the tree and returns a Splitter for every
// internal split node, in the order a depth-first traversal visits
// them (left/top child first).
func (g *Grid) FindSplitters() []Splitter {
	var out []Splitter
	var walk func(n *node, path Splitter)
	walk = func(n *node, path Splitter) {
		if n.leaf {
			return
		}
		cp := append(Splitter(nil), path...)
		out = append(out, cp)
		walk(n.a, append(append(Splitter(nil), path...), 'a'))
		walk(n.b, append(append(Splitter(nil), path...), 'b'))
	}
	walk(g.root, nil)
	return out
}

func (g *Grid) nodeAt(path Splitter) *node {
	n := g.root
	for _, step := range path {
		if step == 'a' {
			n = n.a
		} else {
			n = n.b
		}
	}
	return n
}

// Drag adjusts the split ratio at path by deltaRatio (in the same
// 0..scale units as the ratio itself), clamping so neither child ends
// up narrower than minWidth columns or shorter than minHeight rows
// given the container size the split currently occupies.
func (g *Grid) Drag(path Splitter, deltaRatio, containerWidth, containerHeight int) {
	n := g.nodeAt(path)
	if n == nil || n.leaf {
		return
	}

	newRatio := n.ratio + deltaRatio
	if newRatio < 0 {
		newRatio = 0
	}
	if newRatio > scale {
		newRatio = scale
	}

	total := containerWidth
	minA, minB := minWidth, minWidth
	if n.axis == Vertical {
		total = containerHeight
		minA, minB = minHeight, minHeight
	}

	minRatioA := 0
	minRatioB := scale
	if total > 0 {
		minRatioA = minA * scale / total
		minRatioB = scale - minB*scale/total
	}
	if newRatio < minRatioA {
		newRatio = minRatioA
	}
	if newRatio > minRatioB {
		newRatio = minRatioB
	}

	n.ratio = newRatio
}

// Ratio returns the current split ratio (0..scale) at path.
func (g *Grid) Ratio(path Splitter) int {
	n := g.nodeAt(path)
	if n == nil || n.leaf {
		return 0
	}
	return n.ratio
}
