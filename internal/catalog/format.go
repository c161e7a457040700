package catalog

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatInvestment renders an amount in whole euros with thousands
// separators, e.g. "€1,234,567". Halves round to even.
func FormatInvestment(v float32) string {
	digits := decimal.NewFromFloat32(v).StringFixedBank(0)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	return sign + "€" + groupThousands(digits)
}

// FormatMonth renders a date as YYYY-MM, or "N/A" when it is missing.
func FormatMonth(p domain.Project) string {
	if p.DateOnline == nil {
		return domain.NotAvailable
	}
	return p.DateOnline.Format("2006-01")
}

// PageLabel renders "Page X of Y".
func PageLabel(p Page) string {
	return fmt.Sprintf("Page %d of %d", p.Page, p.Pages)
}

// TotalLabel renders the result count line.
func TotalLabel(p Page) string {
	return fmt.Sprintf("Total projects found: %d", p.Total)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
