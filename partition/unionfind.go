package partition

// UnionFind is a disjoint-set forest over dense positions [0, Len()).
type UnionFind struct {
	parent []int32
	rank   []uint8
	roots  int
}

func NewUnionFind(count int) *UnionFind {
	u := &UnionFind{
		parent: make([]int32, count),
		rank:   make([]uint8, count),
		roots:  count,
	}
	for i := range u.parent {
		u.parent[i] = int32(i)
	}
	return u
}

func (u *UnionFind) Len() int {
	return len(u.parent)
}

// Roots returns the number of disjoint classes.
func (u *UnionFind) Roots() int {
	return u.roots
}

// Find returns the root of id and points every node on the way directly at
// it.
func (u *UnionFind) Find(id int) int {
	root := int32(id)
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for n := int32(id); n != root; {
		next := u.parent[n]
		u.parent[n] = root
		n = next
	}
	return int(root)
}

// Merge joins the classes of i1 and i2 and reports whether they were
// distinct. On equal ranks i1's root becomes the parent.
func (u *UnionFind) Merge(i1, i2 int) bool {
	n1 := u.Find(i1)
	n2 := u.Find(i2)
	if n1 == n2 {
		return false
	}
	if u.rank[n1] < u.rank[n2] {
		u.parent[n1] = int32(n2)
	} else if u.rank[n1] > u.rank[n2] {
		u.parent[n2] = int32(n1)
	} else {
		u.parent[n2] = int32(n1)
		u.rank[n1]++
	}
	u.roots--
	return true
}
