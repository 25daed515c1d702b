package headings

// LevelTable assigns outline depths from the order in which heading shapes
// are first seen. A shape seen again restores its depth and forgets every
// shape learned deeper than it since.
type LevelTable struct {
	levels  map[string]int
	current int
}

func NewLevelTable() *LevelTable {
	return &LevelTable{levels: make(map[string]int)}
}

// Assign returns the depth for pattern, always >= 1.
func (t *LevelTable) Assign(pattern string) int {
	level, ok := t.levels[pattern]
	if !ok {
		t.current++
		t.levels[pattern] = t.current
		return t.current
	}

	t.current = level

	var stale []string
	for p, l := range t.levels {
		if l > level {
			stale = append(stale, p)
		}
	}
	for _, p := range stale {
		delete(t.levels, p)
	}
	return level
}

// Level reports the depth currently recorded for pattern.
func (t *LevelTable) Level(pattern string) (int, bool) {
	l, ok := t.levels[pattern]
	return l, ok
}

// Current is the depth of the most recent assignment, 0 before any.
func (t *LevelTable) Current() int {
	return t.current
}

func (t *LevelTable) Len() int {
	return len(t.levels)
}
