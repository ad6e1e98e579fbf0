package cart

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

// Cart is a server-side shopping session.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Add puts one unit of p in the cart, incrementing an existing line.
func (c *Cart) Add(p catalog.Product) {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, Line{Product: p, Quantity: 1})
}

// SetQuantity overwrites a line's quantity. Zero or less removes the line.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			c.Lines[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string) bool {
	before := len(c.Lines)
	c.Lines = slices.DeleteFunc(c.Lines, func(l Line) bool { return l.Product.ID == productID })
	return len(c.Lines) != before
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// OrderMessage renders the plain-text order sent through the messaging
// hand-off.
func OrderMessage(lines []Line, sum Summary) string {
	var msg strings.Builder
	msg.WriteString("*Meu Pedido:*\n\n")
	for _, l := range lines {
		fmt.Fprintf(&msg, "• %s\n", l.Product.Name)
		fmt.Fprintf(&msg, "  Qtd: %dx - R$ %s\n\n", l.Quantity, catalog.FormatPrice(l.Subtotal()))
	}
	msg.WriteString("*Resumo:*\n")
	fmt.Fprintf(&msg, "Subtotal: R$ %s\n", catalog.FormatPrice(sum.Subtotal))
	if sum.Discount > 0 {
		fmt.Fprintf(&msg, "Desconto (%d%%): -R$ %s\n", sum.DiscountPercent, catalog.FormatPrice(sum.Discount))
	}
	fmt.Fprintf(&msg, "*Total: R$ %s*\n\n", catalog.FormatPrice(sum.Total))
	msg.WriteString("Gostaria de finalizar este pedido!")
	return msg.String()
}
