package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const invoicePrefix = "INV"

// NewInvoiceNumber generates an invoice number of the form
// INV-20250829-3FA9C2: prefix, date stamp, six-character random suffix.
// Uniqueness is enforced by the database; callers regenerate on collision.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%s-%s", invoicePrefix, now.Format("20060102"), suffix)
}
