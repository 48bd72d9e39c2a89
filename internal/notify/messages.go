package notify

import (
	"fmt"
	"strings"

	"annies-bakery/internal/model"
)

// OrderConfirmation is sent to the customer once payment succeeds.
func OrderConfirmation(order *model.Order, statusURL string) Message {
	var items strings.Builder
	for i, item := range order.Items {
		if i > 0 {
			items.WriteString("\n")
		}
		fmt.Fprintf(&items, "- %dx %s (R%.2f)", item.Quantity, item.Title, item.Price)
	}

	body := fmt.Sprintf(`Thank you for your order!

Order Details:
%s

Total: R%.2f

You can view your order status here: %s

Thank you for choosing Annie's Bakery!`, items.String(), order.Total, statusURL)

	return Message{
		Kind:    KindOrderConfirmation,
		Subject: "Order Confirmation - " + order.ID,
		Body:    body,
		To:      order.CustomerEmail,
	}
}

// CustomOrderReceived tells the operator about a new custom cake order.
func CustomOrderReceived(order *model.CustomOrder, adminURL string) Message {
	d := order.Details

	var ref string
	if d.ReferenceImage != "" {
		ref = "\n- Reference Image: " + d.ReferenceImage
	}

	body := fmt.Sprintf(`New custom cake order received:

Personal Information:
- Name: %s
- Email: %s
- Phone: %s
- Pickup Date: %s

Cake Details:
- Size: %s
- Flavor: %s
- Filling: %s
- Frosting: %s

Design Details:
- Message on Cake: %s
- Design Description: %s%s

Additional Information:
- Allergies: %s
- Special Instructions: %s

View order in admin dashboard: %s`,
		order.CustomerName, order.CustomerEmail, orDefault(order.CustomerPhone, "Not provided"), d.PickupDate,
		d.Size, d.Flavor, orDefault(d.Filling, "None"), d.Frosting,
		orDefault(d.Message, "None"), d.DesignDetails, ref,
		orDefault(d.Allergies, "None"), orDefault(d.SpecialInstructions, "None"),
		adminURL)

	return Message{
		Kind:    KindCustomOrder,
		Subject: "New Custom Cake Order from " + order.CustomerName,
		Body:    body,
	}
}

// ContactRequest forwards a contact form submission to the operator.
func ContactRequest(req model.ContactRequest) Message {
	body := fmt.Sprintf(`Contact form submission:

From: %s (%s)
Phone: %s

Message:
%s`, req.Name, req.Email, orDefault(req.Phone, "Not provided"), req.Message)

	return Message{
		Kind:    KindContact,
		Subject: "Contact Form: " + orDefault(req.Subject, "General Inquiry"),
		Body:    body,
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
