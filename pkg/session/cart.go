package session

import (
	"strings"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Cart holds the line entries of one conversation. It is not safe for
// concurrent use; a host drives one session sequentially.
type Cart struct {
	entries []*model.LineEntry
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

// RemoveResult describes what RemoveLineEntry did
type RemoveResult struct {
	Name      string
	Removed   int
	Remaining int
	Deleted   bool
}

// UpsertLineEntry merges an item into the cart. An existing entry with the
// same item id gains the quantity and the note; otherwise a new entry is
// appended. Quantities below 1 are coerced to 1, so a request to add zero
// or a negative amount still adds one unit.
func (c *Cart) UpsertLineEntry(itemID, name string, quantity int, unitPrice model.Cents, note string) model.LineEntry {
	quantity = max(1, quantity)

	for _, e := range c.entries {
		if e.ItemID == itemID {
			e.Quantity += quantity
			if note != "" {
				e.Notes = append(e.Notes, note)
			}
			return *e
		}
	}

	entry := &model.LineEntry{
		ItemID:    itemID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	if note != "" {
		entry.Notes = []string{note}
	}
	c.entries = append(c.entries, entry)
	return *entry
}

// RemoveLineEntry removes quantity units of the first entry whose name
// contains the query, case-insensitively. A quantity <= 0, or one that is
// not smaller than the entry quantity, removes the entry entirely.
func (c *Cart) RemoveLineEntry(name string, quantity int) (*RemoveResult, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, goerr.Wrap(model.ErrEntityNotFound, "empty item name")
	}

	for i, e := range c.entries {
		if !strings.Contains(strings.ToLower(e.Name), q) {
			continue
		}

		if quantity <= 0 || quantity >= e.Quantity {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return &RemoveResult{Name: e.Name, Removed: e.Quantity, Deleted: true}, nil
		}

		e.Quantity -= quantity
		return &RemoveResult{Name: e.Name, Removed: quantity, Remaining: e.Quantity}, nil
	}

	return nil, goerr.Wrap(model.ErrEntityNotFound, "item not in cart", goerr.V("name", name))
}

// Summary prices every entry and the whole cart
func (c *Cart) Summary() *model.CartSummary {
	s := &model.CartSummary{Items: make([]model.CartLine, 0, len(c.entries))}
	for _, e := range c.entries {
		line := model.CartLine{
			Name:      e.Name,
			Quantity:  e.Quantity,
			UnitPrice: e.UnitPrice,
			LineTotal: e.LineTotal(),
		}
		s.Items = append(s.Items, line)
		s.Total += line.LineTotal
	}
	return s
}

// Entries returns a copy of the current entries
func (c *Cart) Entries() []model.LineEntry {
	out := make([]model.LineEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
		out[i].Notes = append([]string(nil), e.Notes...)
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.entries)
}

func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// Clear empties the cart after its content has been saved
func (c *Cart) Clear() {
	c.entries = nil
}
