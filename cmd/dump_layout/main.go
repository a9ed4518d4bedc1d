package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pyhub-apps/factura-energia-golang/pkg/extractors"
	"github.com/pyhub-apps/factura-energia-golang/pkg/pdf"
)

func main() {
	var (
		pdfPath    = flag.String("pdf", "", "Path to PDF file")
		library    = flag.String("lib", "ledongthuc", "PDF library to use (ledongthuc, dslipak)")
		bucketSize = flag.Float64("bucket", extractors.DefaultBucketSize, "Vertical bucket size in points")
		fragments  = flag.Bool("fragments", false, "Print the merged text fragments with their boxes")
	)
	flag.Parse()

	if *pdfPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	var doc pdf.Document
	var err error

	switch *library {
	case "ledongthuc":
		doc, err = pdf.OpenWithLedongthuc(*pdfPath)
	case "dslipak":
		doc, err = pdf.OpenWithDslipak(*pdfPath)
	default:
		log.Fatalf("Unknown library: %s", *library)
	}
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	fmt.Printf("Using library: %s\n", doc.Backend())
	fmt.Printf("Pages: %d\n", doc.PageCount())

	organizer := extractors.NewTextOrganizer()
	reconstructor := extractors.NewReconstructor(
		extractors.WithBucketSize(*bucketSize),
		extractors.WithOrganizer(organizer),
	)

	for _, page := range doc.GetPages() {
		bbox := page.GetBBox()
		fmt.Printf("\n=== Page %d (%.0f x %.0f) ===\n", page.GetPageNumber(), bbox.Width(), bbox.Height())
		if err := page.Err(); err != nil {
			fmt.Printf("  decode error: %v\n", err)
			continue
		}

		elements := organizer.Fragments(page.GetObjects().Chars)
		fmt.Printf("Glyphs: %d, fragments: %d\n", len(page.GetObjects().Chars), len(elements))

		if *fragments {
			for _, e := range elements {
				fmt.Printf("  (%7.2f, %7.2f)-(%7.2f, %7.2f) %q\n", e.X0, e.Y0, e.X1, e.Y1, e.Text)
			}
			fmt.Println()
		}

		for i, row := range reconstructor.Rows(elements) {
			fmt.Printf("%3d: %s\n", i+1, strings.Join(row, " | "))
		}
	}
}
