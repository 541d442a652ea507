package domain

import "time"

// CartLine is a single book entry in a shopper's cart. Title, author, cover and
// unit price are copied from the catalog at add time so the cart can render
// without another lookup; the authoritative price is still re-read at commit.
type CartLine struct {
	BookID    int64     `json:"book_id" bson:"book_id"`
	Title     string    `json:"title" bson:"title"`
	Author    string    `json:"author" bson:"author"`
	Cover     string    `json:"cover" bson:"cover"`
	UnitPrice float64   `json:"unit_price" bson:"unit_price"`
	Quantity  int32     `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// Cart holds the lines plus the ids the shopper marked for the current
// checkout pass. Selected is kept as an ordered id list so the persisted
// layout stays a pair of parallel arrays.
//
// Invariants: no two lines share a BookID, and Selected only ever contains
// ids that are present in Lines.
type Cart struct {
	Lines    []CartLine `json:"lines" bson:"lines"`
	Selected []int64    `json:"selected" bson:"selected"`
}

// Line returns the index and line for the given book id, or -1 and nil.
func (c *Cart) Line(bookID int64) (int, *CartLine) {
	for i := range c.Lines {
		if c.Lines[i].BookID == bookID {
			return i, &c.Lines[i]
		}
	}
	return -1, nil
}

func (c *Cart) IsSelected(bookID int64) bool {
	for _, id := range c.Selected {
		if id == bookID {
			return true
		}
	}
	return false
}

// SelectedLines returns the lines whose id is in the selection set,
// preserving line order.
func (c *Cart) SelectedLines() []CartLine {
	var out []CartLine
	for _, l := range c.Lines {
		if c.IsSelected(l.BookID) {
			out = append(out, l)
		}
	}
	return out
}

// Select adds the id to the selection set if the line exists.
func (c *Cart) Select(bookID int64) {
	if i, _ := c.Line(bookID); i < 0 || c.IsSelected(bookID) {
		return
	}
	c.Selected = append(c.Selected, bookID)
}

func (c *Cart) Deselect(bookID int64) {
	for i, id := range c.Selected {
		if id == bookID {
			c.Selected = append(c.Selected[:i], c.Selected[i+1:]...)
			return
		}
	}
}

// RemoveLine deletes the line and prunes it from the selection set.
func (c *Cart) RemoveLine(bookID int64) bool {
	i, _ := c.Line(bookID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.Deselect(bookID)
	return true
}

// Clone returns a deep copy. Mutating the copy never touches the original.
func (c *Cart) Clone() Cart {
	out := Cart{}
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	if c.Selected != nil {
		out.Selected = make([]int64, len(c.Selected))
		copy(out.Selected, c.Selected)
	}
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
