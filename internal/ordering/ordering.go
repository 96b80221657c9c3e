// Package ordering keeps positioned collections (columns in a board, tasks in a
// column) dense: after every operation the positions are exactly 1..N.
//
// The functions are pure. They take a snapshot of a collection, never mutate
// their input and either return the complete new assignment or an error, so a
// caller that applies the result in one write can never expose a half-shifted
// collection.
package ordering

import (
	"errors"
	"slices"
	"sort"
)

var (
	ErrNotFound  = errors.New("ordering: item not in collection")
	ErrDuplicate = errors.New("ordering: item already in collection")
	ErrEmptyID   = errors.New("ordering: empty item id")
)

// Member is one positioned item of a collection snapshot. The order of a
// []Member is the insertion order the store returned and is used to break
// position ties.
type Member struct {
	ID       string
	Position int
}

// Collection is a snapshot of one ordered sibling set, identified by Key
// (a board id for columns, a column id for tasks).
type Collection struct {
	Key     string
	Members []Member
}

// Outcome is the result of Move. When the move stays inside one collection
// Source and Target are the same snapshot.
type Outcome struct {
	Source   Collection
	Target   Collection
	Position int
}

// SameCollection reports whether the move was a pure reorder.
func (o Outcome) SameCollection() bool {
	return o.Source.Key == o.Target.Key
}

// Renormalize sorts members by their current position, possibly sparse or
// duplicated, and reassigns 1..N. Ties keep their input order.
func Renormalize(members []Member) []Member {
	out := slices.Clone(members)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// Clamp bounds a desired 1-based slot into [1, max].
func Clamp(desired, max int) int {
	if max < 1 {
		return 1
	}
	if desired < 1 {
		return 1
	}
	if desired > max {
		return max
	}
	return desired
}

// Insert places id into members. Without a desired position the item is
// appended at count+1; otherwise desired is clamped into [1, count+1] and
// everything at or after that slot shifts up by one.
func Insert(members []Member, id string, desired *int) ([]Member, int, error) {
	if id == "" {
		return nil, 0, ErrEmptyID
	}
	if indexOf(members, id) >= 0 {
		return nil, 0, ErrDuplicate
	}
	out := Renormalize(members)
	pos := len(out) + 1
	if desired != nil {
		pos = Clamp(*desired, len(out)+1)
	}
	out = slices.Insert(out, pos-1, Member{ID: id})
	reindex(out)
	return out, pos, nil
}

// Delete removes id and closes the gap, preserving relative order.
func Delete(members []Member, id string) ([]Member, error) {
	ordered := Renormalize(members)
	idx := indexOf(ordered, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	out := slices.Delete(ordered, idx, idx+1)
	reindex(out)
	return out, nil
}

// Move takes id out of source and inserts it into target at the clamped
// desired position. A move within one collection (same Key) is a reorder;
// the algorithm is the same.
func Move(source, target Collection, id string, desired *int) (Outcome, error) {
	remaining, err := Delete(source.Members, id)
	if err != nil {
		return Outcome{}, err
	}

	if source.Key == target.Key {
		placed, pos, err := Insert(remaining, id, desired)
		if err != nil {
			return Outcome{}, err
		}
		c := Collection{Key: source.Key, Members: placed}
		return Outcome{Source: c, Target: c, Position: pos}, nil
	}

	placed, pos, err := Insert(target.Members, id, desired)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Source:   Collection{Key: source.Key, Members: remaining},
		Target:   Collection{Key: target.Key, Members: placed},
		Position: pos,
	}, nil
}

// Changed returns the members of after whose position differs from before,
// including members that were not in before at all.
func Changed(before, after []Member) []Member {
	prev := make(map[string]int, len(before))
	for _, m := range before {
		prev[m.ID] = m.Position
	}
	var out []Member
	for _, m := range after {
		if p, ok := prev[m.ID]; !ok || p != m.Position {
			out = append(out, m)
		}
	}
	return out
}

// Dense reports whether positions are exactly {1..N}.
func Dense(members []Member) bool {
	seen := make([]bool, len(members)+1)
	for _, m := range members {
		if m.Position < 1 || m.Position > len(members) || seen[m.Position] {
			return false
		}
		seen[m.Position] = true
	}
	return true
}

// PositionOf returns the position of id, or 0.
func PositionOf(members []Member, id string) int {
	if i := indexOf(members, id); i >= 0 {
		return members[i].Position
	}
	return 0
}

func indexOf(members []Member, id string) int {
	for i, m := range members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func reindex(members []Member) {
	for i := range members {
		members[i].Position = i + 1
	}
}
