package terrain

// CellSet tracks a set of cell indices in insertion order without duplicates.
type CellSet struct {
	mark []bool
	list []int
}

// NewCellSet sizes a set for n cells.
func NewCellSet(n int) *CellSet {
	return &CellSet{mark: make([]bool, n)}
}

// Add records cell c.
func (s *CellSet) Add(c int) {
	if s.mark[c] {
		return
	}
	s.mark[c] = true
	s.list = append(s.list, c)
}

// Cells returns the recorded indices.
func (s *CellSet) Cells() []int { return s.list }

// Len reports how many cells are recorded.
func (s *CellSet) Len() int { return len(s.list) }

// Reset empties the set while keeping its capacity.
func (s *CellSet) Reset() {
	for _, c := range s.list {
		s.mark[c] = false
	}
	s.list = s.list[:0]
}
