package printing

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultInvoiceTemplatePath = "templates/invoice.html"

// DefaultInvoiceTemplate returns the built-in invoice layout
func DefaultInvoiceTemplate() (string, error) {
	content, err := templateFS.ReadFile(defaultInvoiceTemplatePath)
	if err != nil {
		return "", fmt.Errorf("read default invoice template: %w", err)
	}
	return string(content), nil
}
