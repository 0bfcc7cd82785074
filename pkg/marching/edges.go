package marching

// EdgeCorners gives the two corners bounding each local cube edge. Every
// pair runs from the lower lattice coordinate to the higher one, so two
// cells sharing an edge interpolate it in the same direction and produce
// the same position bit for bit.
var EdgeCorners = [12][2]int{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Axis slots of the three edges leaving a lattice point.
const (
	SlotX = iota
	SlotY
	SlotZ
)

// edgeOwners holds, per local edge, the offset of the owning lattice point
// from the cell origin and the axis slot of the edge at that point.
var edgeOwners = [12][4]int{
	{0, 0, 0, SlotX},
	{1, 0, 0, SlotY},
	{0, 1, 0, SlotX},
	{0, 0, 0, SlotY},
	{0, 0, 1, SlotX},
	{1, 0, 1, SlotY},
	{0, 1, 1, SlotX},
	{0, 0, 1, SlotY},
	{0, 0, 0, SlotZ},
	{1, 0, 0, SlotZ},
	{1, 1, 0, SlotZ},
	{0, 1, 0, SlotZ},
}

// EdgeOwner maps local edge of cell (x, y, z) to the lattice point that
// owns it and the slot of the edge at that point. Each grid edge has
// exactly one owner, whichever cell asks.
func EdgeOwner(x, y, z, edge int) (px, py, pz, slot int) {
	o := edgeOwners[edge]
	return x + o[0], y + o[1], z + o[2], o[3]
}

// EdgeKey returns the cache key of local edge of cell (x, y, z) in a
// lattice with pointDims points per axis: 3*linear(owner) + slot.
func EdgeKey(pointDims [3]int, x, y, z, edge int) int {
	px, py, pz, slot := EdgeOwner(x, y, z, edge)
	return 3*(pz*pointDims[0]*pointDims[1]+py*pointDims[0]+px) + slot
}
