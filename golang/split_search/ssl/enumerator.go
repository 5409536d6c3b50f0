package ssl

import (
	"fmt"
	"log"
	"math/bits"
	"math/rand"
	"strconv"
)

//MaxBitmaskValues is the largest number of distinct nominal values the exhaustive
//and the random enumerators accept. Masks are kept in a BitMask, the highest
//usable bit marks the value fixed to the mask group.
const MaxBitmaskValues = 63

//Bipartition tells on which side of a split a value position lies.
type Bipartition interface {
	InLeft(position int) bool
}

//NominalSplitEnumerator produces candidate bipartitions of k nominal values.
//Current is valid right after construction; Next advances and reports false once exhausted.
type NominalSplitEnumerator interface {
	Current() Bipartition
	Next() bool
}

//BitMask flags the value positions that belong to the mask group.
type BitMask uint64

//InLeft reports whether the position is in the mask group.
func (m BitMask) InLeft(position int) bool {
	return m&(1<<uint(position)) != 0
}

//Count returns the size of the mask group.
func (m BitMask) Count() int {
	return bits.OnesCount64(uint64(m))
}

func (m BitMask) String() string {
	return strconv.FormatUint(uint64(m), 2)
}

//canonicalSpace returns the first mask and the number of masks with the bit k-1 set,
//excluding the mask with all k bits set.
func canonicalSpace(k int) (first BitMask, size uint64) {
	if k < 2 {
		log.Panicf("can't split %d nominal values", k)
	}
	if k > MaxBitmaskValues {
		log.Panicf("%d nominal values exceed the bitmask limit of %d", k, MaxBitmaskValues)
	}
	first = BitMask(1) << uint(k-1)
	return first, uint64(first) - 1
}

//FullEnumerator emits every bipartition of k values once: masks from 2^(k-1) to 2^k-2
//in increasing order. The value k-1 always stays in the mask group, so a split and its
//mirror image are never both emitted.
type FullEnumerator struct {
	current, last BitMask
}

//NewFullEnumerator creates an exhaustive enumerator over k values.
func NewFullEnumerator(k int) *FullEnumerator {
	first, size := canonicalSpace(k)
	return &FullEnumerator{current: first, last: first + BitMask(size) - 1}
}

//Current returns the current mask.
func (e *FullEnumerator) Current() Bipartition {
	return e.current
}

//Mask returns the current mask.
func (e *FullEnumerator) Mask() BitMask {
	return e.current
}

//Next moves to the next mask.
func (e *FullEnumerator) Next() bool {
	if e.current == e.last {
		return false
	}
	e.current++
	return true
}

//RandomEnumerator draws n distinct masks uniformly without replacement from the
//space of the FullEnumerator. It runs a Fisher-Yates shuffle over the space lazily:
//swapped keeps the displaced entries, which makes it the set of emitted masks as well.
type RandomEnumerator struct {
	first   BitMask
	size    uint64
	n       uint64
	drawn   uint64
	swapped map[uint64]uint64
	rnd     *rand.Rand
	current BitMask
}

//NewRandomEnumerator creates an enumerator of n random masks over k values.
//The source of randomness belongs to the caller and must not be shared between goroutines.
func NewRandomEnumerator(k, n int, rnd *rand.Rand) *RandomEnumerator {
	first, size := canonicalSpace(k)
	if n < 1 || uint64(n) > size {
		log.Panicf("can't draw %d masks out of %d", n, size)
	}
	if rnd == nil {
		log.Panic("the random enumerator needs a source of randomness")
	}
	e := &RandomEnumerator{
		first:   first,
		size:    size,
		n:       uint64(n),
		swapped: make(map[uint64]uint64),
		rnd:     rnd,
	}
	e.draw()
	return e
}

//Current returns the current mask.
func (e *RandomEnumerator) Current() Bipartition {
	return e.current
}

//Mask returns the current mask.
func (e *RandomEnumerator) Mask() BitMask {
	return e.current
}

//Next draws the next mask.
func (e *RandomEnumerator) Next() bool {
	if e.drawn == e.n {
		return false
	}
	e.draw()
	return true
}

func (e *RandomEnumerator) draw() {
	i := e.drawn
	j := i + uint64(e.rnd.Int63n(int64(e.size-i)))
	value := e.at(j)
	e.swapped[j] = e.at(i)
	delete(e.swapped, i)
	e.drawn++
	e.current = e.first + BitMask(value)
}

func (e *RandomEnumerator) at(i uint64) uint64 {
	if v, ok := e.swapped[i]; ok {
		return v
	}
	return i
}

//LinearCut puts the positions 0..Cut into the left group of k ordered values.
type LinearCut struct {
	K, Cut int
}

//InLeft reports whether the position is left of the cut.
func (c LinearCut) InLeft(position int) bool {
	return position <= c.Cut
}

//Mask returns the cut as a bitmask over the k positions.
func (c LinearCut) Mask() BitMask {
	if c.K > MaxBitmaskValues+1 {
		log.Panicf("%d values don't fit into a bitmask", c.K)
	}
	return BitMask(1)<<uint(c.Cut+1) - 1
}

func (c LinearCut) String() string {
	return fmt.Sprintf("[0..%d | %d..%d]", c.Cut, c.Cut+1, c.K-1)
}

//LinearEnumerator emits the k-1 adjacent cuts of k linearly ordered values.
type LinearEnumerator struct {
	current LinearCut
}

//NewLinearEnumerator creates an enumerator of adjacent cuts over k ordered values.
func NewLinearEnumerator(k int) *LinearEnumerator {
	if k < 2 {
		log.Panicf("can't split %d nominal values", k)
	}
	return &LinearEnumerator{current: LinearCut{K: k, Cut: 0}}
}

//Current returns the current cut.
func (e *LinearEnumerator) Current() Bipartition {
	return e.current
}

//Next moves the cut one position right.
func (e *LinearEnumerator) Next() bool {
	if e.current.Cut == e.current.K-2 {
		return false
	}
	e.current.Cut++
	return true
}
