package pipeline

// indexSet is a set of vertex indices. It may contain InputVertex.
type indexSet map[int]struct{}

func newIndexSet(members ...int) indexSet {
	s := make(indexSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

func (s indexSet) add(i int)      { s[i] = struct{}{} }
func (s indexSet) has(i int) bool { _, ok := s[i]; return ok }

// union returns a new set containing s plus the given members.
func (s indexSet) union(members []int) indexSet {
	out := make(indexSet, len(s)+len(members))
	for i := range s {
		out[i] = struct{}{}
	}
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out
}
