package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pyhub-apps/factura-energia-golang/pkg/extractors"
	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: compare_backends <pdf-file>")
		os.Exit(1)
	}

	pdfPath := os.Args[1]
	reconstructor := extractors.NewReconstructor()

	primary, err := readLayout(pdfPath, pdf.OpenWithLedongthuc, reconstructor)
	if err != nil {
		log.Printf("ledongthuc: %v", err)
	}
	fallback, err := readLayout(pdfPath, pdf.OpenWithDslipak, reconstructor)
	if err != nil {
		log.Printf("dslipak: %v", err)
	}

	fmt.Printf("=== %s ===\n", pdfPath)
	fmt.Printf("  ledongthuc: %d pages, %d columns max\n", primary.PageCount(), primary.MaxColumns())
	fmt.Printf("  dslipak:    %d pages, %d columns max\n", fallback.PageCount(), fallback.MaxColumns())

	pages := max(primary.PageCount(), fallback.PageCount())
	differences := 0

	for n := 1; n <= pages; n++ {
		a, _ := primary.Page(n)
		b, _ := fallback.Page(n)
		fmt.Printf("\nPage %d: %d rows vs %d rows\n", n, len(a.Rows), len(b.Rows))

		for i := 0; i < max(len(a.Rows), len(b.Rows)); i++ {
			left, right := rowText(a.Rows, i), rowText(b.Rows, i)
			if left == right {
				continue
			}
			differences++
			fmt.Printf("  row %d\n    ledongthuc: %s\n    dslipak:    %s\n", i+1, left, right)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	if differences == 0 {
		fmt.Println("Both backends produce the same layout")
	} else {
		fmt.Printf("%d rows differ\n", differences)
	}
}

func readLayout(path string, open func(string) (pdf.Document, error), r *extractors.Reconstructor) (extractors.Layout, error) {
	doc, err := open(path)
	if err != nil {
		return extractors.Layout{}, err
	}
	defer doc.Close()
	return r.Document(doc)
}

func rowText(rows []extractors.Row, i int) string {
	if i >= len(rows) {
		return "<none>"
	}
	return strings.Join(rows[i], " | ")
}
