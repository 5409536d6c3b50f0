package ssl

//IntIterable is the interface for iteration over an collection of integers.
type IntIterable interface {
	HasNext() bool
	GetNext() int
}

//Range is a cursor over the half interval [begin, end) with the step step.
//A Range is a short-lived value: every scan asks for its own cursor, so a
//membership can be traversed by several scans at the same time.
type Range struct {
	begin, end, step, pos int
}

//NewRange initializes a new cursor over a half interval.
func NewRange(start, end, step int) *Range {
	if step == 0 {
		panic("zero step")
	}
	return &Range{start, end, step, start}
}

//GetNext returns the next element from the cursor and moves the cursor to the next position.
func (r *Range) GetNext() int {
	val := r.pos
	r.pos += r.step
	return val
}

//HasNext checks whether there are more values in the cursor.
func (r *Range) HasNext() bool {
	return r.inside(r.pos)
}

//HasPrevious checks whether GetPrevious can step back.
func (r *Range) HasPrevious() bool {
	return r.pos != r.begin && r.inside(r.pos-r.step)
}

//GetPrevious moves the cursor one step back and returns the element at the new position.
func (r *Range) GetPrevious() int {
	r.pos -= r.step
	return r.pos
}

//Reset moves the cursor back to the beginning of the interval.
func (r *Range) Reset() {
	r.pos = r.begin
}

//GoToLast positions the cursor on the last element of the interval so that the
//next GetNext returns it.
func (r *Range) GoToLast() {
	n := r.Len()
	if n == 0 {
		r.pos = r.begin
		return
	}
	r.pos = r.begin + (n-1)*r.step
}

//Len returns the number of elements in the interval.
func (r *Range) Len() int {
	if r.step > 0 {
		if r.end <= r.begin {
			return 0
		}
		return (r.end - r.begin + r.step - 1) / r.step
	}
	if r.end >= r.begin {
		return 0
	}
	return (r.begin - r.end - r.step - 1) / -r.step
}

func (r *Range) inside(p int) bool {
	if r.step > 0 {
		return p >= r.begin && p < r.end
	}
	return p <= r.begin && p > r.end
}
