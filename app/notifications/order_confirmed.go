// Package notifications holds the concrete notification types sent by the
// storefront backend.
package notifications

import (
	"fmt"
	"strings"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/pkg/notification"
)

// OrderConfirmed is the confirmation mail fired after an order commits.
type OrderConfirmed struct {
	Order *models.Order
}

func NewOrderConfirmed(order *models.Order) *OrderConfirmed {
	return &OrderConfirmed{Order: order}
}

func (n *OrderConfirmed) Via() []string { return []string{"mail"} }

func (n *OrderConfirmed) ToMail() notification.MailData {
	o := n.Order

	var rows strings.Builder
	for _, item := range o.Items {
		rows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			item.ProductName, item.Quantity,
			rupees(item.PriceAtPurchase), rupees(item.Subtotal()),
		))
	}

	name := ""
	if o.User != nil {
		name = o.User.Name
	}

	body := fmt.Sprintf(`<h2>Thank you for your order, %s!</h2>
<p>Your order <strong>%s</strong> has been placed successfully.</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Product</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
%s
</table>
<p><strong>Total: %s</strong></p>
<p>Shipping to: %s</p>
<p>We will notify you when your order ships.</p>`,
		name, o.ID, rows.String(), rupees(o.TotalAmount), o.ShippingAddress)

	return notification.MailData{
		Subject: fmt.Sprintf("Order Confirmation - %s", o.ID),
		Body:    body,
		Text: fmt.Sprintf("Your order %s for %s has been placed successfully.",
			o.ID, rupees(o.TotalAmount)),
	}
}

// rupees renders a paise amount as ₹x.yy for display.
func rupees(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}
