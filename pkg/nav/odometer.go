package nav

// odometer counts marker crossings. last is the most recently crossed
// marker and side is where the robot is relative to it: 0 when resting
// on it, otherwise the direction travelled since crossing it.
type odometer struct {
	last TableID
	side int
}

// next is the ordinal of the next marker in direction dir.
func (o *odometer) next(dir int) TableID {
	if o.side == 0 || o.side == dir {
		n := o.last + TableID(dir)
		if n < Home {
			n = Home
		}
		return n
	}
	return o.last
}

// cross records a crossing in direction dir and returns its ordinal.
func (o *odometer) cross(dir int) TableID {
	o.last, o.side = o.next(dir), dir
	return o.last
}

// settle marks the robot as resting on the last marker.
func (o *odometer) settle() {
	o.side = 0
}

// toward returns the direction to reach target, 0 when already on it.
func (o *odometer) toward(target TableID) int {
	switch {
	case target > o.last:
		return 1
	case target < o.last:
		return -1
	}
	return -o.side
}
