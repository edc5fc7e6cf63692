package ai

import (
	"fmt"
	"strings"

	"github.com/smbops/invoice-copilot/internal/models"
)

// ContextInvoices is how many recent records the prompt carries
const ContextInvoices = 5

// BuildChatPrompt frames question for the model with the newest visible
// records (oldest first, at most ContextInvoices).
func BuildChatPrompt(question string, records []models.Invoice) string {
	if len(records) > ContextInvoices {
		records = records[len(records)-ContextInvoices:]
	}

	var b strings.Builder
	b.WriteString("You are SMB Ops Copilot, a helpful finance assistant.\n")
	b.WriteString("Be concise, friendly, and specific. Use the given invoice context when helpful.\n\n")
	b.WriteString("User message:\n")
	fmt.Fprintf(&b, "\"\"\"%s\"\"\"\n\n", question)
	b.WriteString("Invoice context (latest up to 5):\n")
	if len(records) == 0 {
		b.WriteString("No invoices uploaded yet.\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "%s | %s | total %s %s | due %s\n",
			r.Vendor, r.InvoiceNo, r.Total.StringFixed(2), r.Currency, r.DueDate)
	}
	b.WriteString("\nRespond in 2-5 lines.\n")
	return b.String()
}
