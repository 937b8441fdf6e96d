package layer

// TreeNode is one node of the descriptor tree mirroring the remote sub-layer
// hierarchy, filtered to configured entries and their descendants. Group nodes
// carry a name and children; leaves carry only their index. The tree is built
// once per load and read-only afterward.
type TreeNode struct {
	ID       int
	Name     string
	Group    bool
	Children []*TreeNode
}

// Walk visits n and its descendants depth-first in child order.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(node *TreeNode, depth int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Leaves returns the leaf ids of the subtree in walk order.
func (n *TreeNode) Leaves() []int {
	var ids []int
	n.Walk(func(node *TreeNode, _ int) {
		if !node.Group {
			ids = append(ids, node.ID)
		}
	})
	return ids
}

// buildNode recursively mirrors the server hierarchy below id. Group entries
// get their resolved name; leaves stay index-only. Leaves also get their proxy
// handle switched from placeholder to dynamic-leaf so UI bindings created
// before load observe the discovered structure immediately. Callers must hold
// r.mu.
func (r *Record) buildNode(byID map[int]SublayerInfo, id int) *TreeNode {
	sl, known := byID[id]
	if !known || len(sl.SublayerIDs) == 0 {
		r.bindLeafStub(id, sl)
		return &TreeNode{ID: id}
	}
	e := r.entryFor(id, sl.Name)
	node := &TreeNode{ID: id, Name: e.Name, Group: true, Children: make([]*TreeNode, 0, len(sl.SublayerIDs))}
	for _, child := range sl.SublayerIDs {
		node.Children = append(node.Children, r.buildNode(byID, child))
	}
	return node
}

// bindLeafStub ensures a handle exists for a discovered leaf and moves it onto
// the dynamic-leaf kind backed by a named stub. The concrete feature class
// replaces the stub later in the same resolution pass.
func (r *Record) bindLeafStub(id int, sl SublayerInfo) {
	e := r.entryFor(id, sl.Name)
	h, ok := r.handles[id]
	if !ok {
		h = newHandle(r, id)
		r.handles[id] = h
	}
	h.rebind(&leafStub{
		index:  id,
		name:   e.Name,
		typ:    parseLayerType(sl.Type),
		scales: ScaleSet{MinScale: sl.MinScale, MaxScale: sl.MaxScale},
	}, KindDynamicLeaf)
}
