package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/example/zastore/pkg/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNoTemplate is returned for statuses that have no customer email.
var ErrNoTemplate = errors.New("notify: no template for status")

var printer = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount as rupees with Indian digit grouping.
func FormatINR(amount decimal.Decimal) string {
	return printer.Sprintf("₹%.2f", amount.Round(2).InexactFloat64())
}

var funcs = template.FuncMap{"inr": FormatINR}

var receiptTemplate = template.Must(template.New("receipt").Funcs(funcs).Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Thank you for your order, {{.ShippingName}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> has been received.</p>
{{if eq .PaymentMethod "UPI"}}<p>We are verifying your UPI payment (transaction {{.TransactionID}}).</p>
{{else}}<p>Please keep {{inr .GrandTotal}} ready for cash on delivery.</p>
{{end}}<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Items}}<tr><td>{{.ProductName}}{{range .Customizations}}<br><small>{{.Label}}: {{.Value}}</small>{{end}}</td><td align="center">{{.Quantity}}</td><td align="right">{{inr .UnitPrice}}</td><td align="right">{{inr .LineTotal}}</td></tr>
{{end}}<tr><td colspan="3" align="right">Subtotal</td><td align="right">{{inr .Subtotal}}</td></tr>
<tr><td colspan="3" align="right">GST</td><td align="right">{{inr .TotalGST}}</td></tr>
<tr><td colspan="3" align="right">Shipping</td><td align="right">{{if .ShippingCost.IsZero}}Free{{else}}{{inr .ShippingCost}}{{end}}</td></tr>
<tr><td colspan="3" align="right"><strong>Grand total</strong></td><td align="right"><strong>{{inr .GrandTotal}}</strong></td></tr>
</table>
<p>Shipping to: {{.AddressLine1}}{{with .AddressLine2}}, {{.}}{{end}}, {{.City}}, {{.State}} {{.Pincode}}</p>
<p>Track your order any time with the order number above.</p>
</body></html>`))

var processingTemplate = template.Must(template.New("processing").Funcs(funcs).Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Your order is being printed</h2>
<p>Hi {{.ShippingName}}, order <strong>{{.OrderNumber}}</strong> is now in production.</p>
<p>We will email you again once it ships.</p>
</body></html>`))

var shippedTemplate = template.Must(template.New("shipped").Funcs(funcs).Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Your order is on its way</h2>
<p>Hi {{.ShippingName}}, order <strong>{{.OrderNumber}}</strong> has shipped.</p>
{{if .TrackingNumber}}<p>Courier: {{.CourierName}}<br>Tracking number: <strong>{{.TrackingNumber}}</strong></p>{{end}}
</body></html>`))

// Notifier renders order emails and hands them to a Mailer.
type Notifier struct {
	mailer Mailer
	from   string
}

func NewNotifier(mailer Mailer, from string) *Notifier {
	return &Notifier{mailer: mailer, from: from}
}

// OrderReceipt emails the order summary to the buyer.
func (n *Notifier) OrderReceipt(ctx context.Context, to string, order *models.Order) error {
	return n.send(ctx, to, fmt.Sprintf("Order %s received", order.OrderNumber), receiptTemplate, order)
}

// StatusChanged emails the buyer about PROCESSING or SHIPPED. Other statuses
// return ErrNoTemplate.
func (n *Notifier) StatusChanged(ctx context.Context, to string, order *models.Order) error {
	switch order.Status {
	case models.StatusProcessing:
		return n.send(ctx, to, fmt.Sprintf("Order %s is being printed", order.OrderNumber), processingTemplate, order)
	case models.StatusShipped:
		return n.send(ctx, to, fmt.Sprintf("Order %s has shipped", order.OrderNumber), shippedTemplate, order)
	default:
		return fmt.Errorf("%w %s", ErrNoTemplate, order.Status)
	}
}

func (n *Notifier) send(ctx context.Context, to, subject string, tmpl *template.Template, order *models.Order) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, order); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return n.mailer.Send(ctx, Message{
		From:     n.from,
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
	})
}
