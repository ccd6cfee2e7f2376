// Package cart models the shopping cart kept in the customer's session.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/measure"
	"github.com/albumpages/paper-shipping/internal/paper"
)

// SessionKey is the session value holding the encoded cart.
const SessionKey = "cart"

var (
	// ErrLineNotFound is returned when a line id is not in the cart.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Group represents one country/period block of pages and its paper choice
type Group struct {
	Country      string            `json:"country"`
	Period       string            `json:"period"`
	TotalPages   int               `json:"totalPages"`
	PaperType    any               `json:"paperType,omitempty"`
	PaperSize    string            `json:"paper_size,omitempty"`
	PaperOptions catalog.Selection `json:"paper_options,omitempty"`
}

// Choice extracts the paper selection for resolution.
func (g Group) Choice() paper.Choice {
	return paper.Choice{
		PaperSize:    g.PaperSize,
		PaperOptions: g.PaperOptions,
		PaperType:    g.PaperType,
	}
}

// Line represents a cart entry. Quantity is a pointer because carts written by
// older clients may leave it out, and such lines are not shippable.
type Line struct {
	ID          string  `json:"id"`
	Country     string  `json:"country"`
	Period      string  `json:"period"`
	Quantity    *int    `json:"quantity,omitempty"`
	Total       float64 `json:"total"`
	OrderGroups []Group `json:"order_groups,omitempty"`
}

// Shippable reports whether the line carries enough data to be weighed.
func (l Line) Shippable() bool {
	return l.Quantity != nil && len(l.OrderGroups) > 0
}

// Qty returns the quantity, 0 when unset.
func (l Line) Qty() int {
	if l.Quantity == nil {
		return 0
	}
	return *l.Quantity
}

// Cart is the ordered list of lines in a session.
type Cart struct {
	Lines []Line `json:"lines"`
}

// UnmarshalJSON drops lines that do not decode instead of rejecting the cart.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lines []json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Lines = make([]Line, 0, len(raw.Lines))
	for _, msg := range raw.Lines {
		var line Line
		if err := json.Unmarshal(msg, &line); err != nil {
			continue
		}
		c.Lines = append(c.Lines, line)
	}
	return nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Add appends a line, assigning it an id when it has none.
func (c *Cart) Add(line Line) Line {
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	c.Lines = append(c.Lines, line)
	return line
}

// Find returns the line with the given id.
func (c *Cart) Find(id string) (*Line, bool) {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i], true
		}
	}
	return nil, false
}

// SetQuantity changes a line's quantity and rescales its total.
func (c *Cart) SetQuantity(id string, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	line, ok := c.Find(id)
	if !ok {
		return Line{}, fmt.Errorf("%w: %s", ErrLineNotFound, id)
	}
	if old := line.Qty(); old > 0 {
		unit := decimal.NewFromFloat(line.Total).Div(decimal.NewFromInt(int64(old)))
		line.Total = measure.RoundDecimal(unit.Mul(decimal.NewFromInt(int64(quantity))), measure.MoneyPlaces)
	}
	line.Quantity = &quantity
	return *line, nil
}

// Remove deletes a line by id.
func (c *Cart) Remove(id string) error {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrLineNotFound, id)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() float64 {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(decimal.NewFromFloat(line.Total))
	}
	return measure.RoundDecimal(sum, measure.MoneyPlaces)
}

// Price computes a line total from the paper of each group. Groups whose paper
// cannot be resolved fail the whole line, since the customer is still editing it.
func Price(r *paper.Resolver, line Line) (float64, error) {
	sum := decimal.Zero
	for _, group := range line.OrderGroups {
		spec, err := r.Resolve(group.Choice())
		if err != nil {
			return 0, err
		}
		sum = sum.Add(measure.Scale(spec.PricePerPage(), group.TotalPages))
	}
	sum = sum.Mul(decimal.NewFromInt(int64(line.Qty())))
	return measure.RoundDecimal(sum, measure.MoneyPlaces), nil
}

// Load reads the cart stored in a session. A missing or unreadable value is an
// empty cart; session data is not trusted to be well formed.
func Load(session *sessions.Session) *Cart {
	c := &Cart{}
	raw, ok := session.Values[SessionKey].(string)
	if !ok || raw == "" {
		return c
	}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return &Cart{}
	}
	return c
}

// Store writes the cart into the session. The caller saves the session.
func Store(session *sessions.Session, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	session.Values[SessionKey] = string(data)
	return nil
}
