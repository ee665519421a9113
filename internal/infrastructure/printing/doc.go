// Package printing turns invoices into PDF documents.
//
// An InvoiceTemplate renders an invoice to HTML with locale-aware amounts,
// a PDFRenderer (ChromedpRenderer in production) prints that HTML, and
// InvoicePDFGenerator ties both together for the invoice service:
//
//	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
//	    RemoteURL: "ws://chrome:9222",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	tmpl, err := printing.NewInvoiceTemplate(printing.WithLocale("fr-FR"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	generator := printing.NewInvoicePDFGenerator(renderer, tmpl, logger)
//	pdf, err := generator.GenerateInvoicePDF(ctx, invoice, time.Now())
package printing
