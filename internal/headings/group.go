package headings

import (
	"iter"
	"strconv"
)

// Group is one logical heading: every candidate on the same page at the same
// vertical offset, in document order.
type Group struct {
	Key        string
	PageID     string
	Y          int
	HasY       bool
	Candidates []Candidate
}

// Text is the representative text, taken from the first candidate.
func (g *Group) Text() string {
	return g.Candidates[0].Text
}

// GroupKey builds "<page>_<top>". Without a top offset the key degrades to
// "<page>_", so every such candidate on a page lands in one group.
func GroupKey(c Candidate) string {
	if !c.HasY {
		return c.PageID + "_"
	}
	return c.PageID + "_" + strconv.Itoa(c.Y)
}

// GroupList keeps groups in the order their keys were first seen.
type GroupList struct {
	order []string
	byKey map[string]*Group
}

func NewGroupList() *GroupList {
	return &GroupList{byKey: make(map[string]*Group)}
}

// Add files c under its key, opening a new group on first sight.
func (l *GroupList) Add(c Candidate) {
	key := GroupKey(c)
	g, ok := l.byKey[key]
	if !ok {
		g = &Group{Key: key, PageID: c.PageID, Y: c.Y, HasY: c.HasY}
		l.byKey[key] = g
		l.order = append(l.order, key)
	}
	g.Candidates = append(g.Candidates, c)
}

// Get returns the group for key, or nil.
func (l *GroupList) Get(key string) *Group {
	return l.byKey[key]
}

func (l *GroupList) Len() int {
	return len(l.order)
}

// Keys returns group keys in first-seen order.
func (l *GroupList) Keys() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// All iterates groups in first-seen order.
func (l *GroupList) All() iter.Seq[*Group] {
	return func(yield func(*Group) bool) {
		for _, key := range l.order {
			if !yield(l.byKey[key]) {
				return
			}
		}
	}
}

// GroupCandidates drains seq into a GroupList.
func GroupCandidates(seq iter.Seq[Candidate]) *GroupList {
	l := NewGroupList()
	for c := range seq {
		l.Add(c)
	}
	return l
}
