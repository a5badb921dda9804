package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(inv Invoice) string { return inv.IssuedAt.Format("02 Jan 2006") },
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #2b2b2b;">
  <h2>{{.StoreName}}</h2>
  <p>Invoice <strong>{{.Number}}</strong> &middot; {{date .}}</p>
  <p>Order {{.OrderID}}</p>
  {{if .CustomerName}}<p>Dear {{.CustomerName}}, thank you for your order.</p>{{end}}
  {{with .Address}}{{if .Line1}}
  <p>Ships to:<br>{{.Line1}}{{if .Line2}}<br>{{.Line2}}{{end}}<br>{{.City}} {{.State}} {{.PostalCode}}<br>{{.Country}}</p>
  {{end}}{{end}}
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Amount</th></tr>
    {{range .Lines}}
    <tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{money .Price}}</td><td align="right">{{money .Amount}}</td></tr>
    {{end}}
  </table>
  <table cellpadding="4">
    <tr><td>Subtotal</td><td align="right">{{money .Subtotal}}</td></tr>
    <tr><td>Shipping</td><td align="right">{{money .Shipping}}</td></tr>
    <tr><td>Tax (3%)</td><td align="right">{{money .Tax}}</td></tr>
    <tr><td>Making charges</td><td align="right">{{money .MakingCost}}</td></tr>
    <tr><td><strong>Total</strong></td><td align="right"><strong>{{money .Total}}</strong></td></tr>
  </table>
</body>
</html>
`))

func RenderInvoice(inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, inv); err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.String(), nil
}

func invoiceSubject(inv Invoice) string {
	return fmt.Sprintf("%s invoice %s", inv.StoreName, inv.Number)
}
