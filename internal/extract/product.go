package extract

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shopmigrate/internal/migrate"
	"shopmigrate/internal/normalize"
)

// defaultCurrency is assumed when structured data carries no priceCurrency.
const defaultCurrency = "TRY"

// Product builds a normalized ProductRecord for a product page. Structured
// markup wins field by field; the selector cascade fills whatever it left
// absent. Every call returns a fresh value.
func Product(doc *goquery.Document, pageURL string) migrate.ProductRecord {
	ld := ParseStructuredProduct(doc, pageURL)

	name := ld.Name
	if name == "" {
		name = ProductName(doc)
	}
	name = strings.TrimSpace(html.UnescapeString(name))

	price := ld.Price
	if price == nil {
		if v, ok := normalize.Price(PriceText(doc)); ok {
			price = &v
		}
	}

	sku := ld.SKU
	if sku == "" {
		sku = SKU(doc)
	}

	description := ld.DescriptionHTML
	if description == "" {
		description = DescriptionHTML(doc)
	}

	mainImage := ld.Image
	if mainImage == "" {
		mainImage = MainImage(doc, pageURL)
	}

	images := ld.Images
	if len(images) == 0 {
		images = GalleryImages(doc, pageURL)
	} else {
		images = dedupe(append([]string(nil), images...))
	}

	brand := ld.Brand
	if brand == "" {
		brand = Brand(doc)
	}

	barcode := ld.Barcode
	if barcode == "" {
		barcode = Barcode(doc)
	}

	category := ld.CategoryPath
	if category == "" {
		category = CategoryPath(doc)
	}

	currency := ld.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return migrate.ProductRecord{
		SourceURL:       pageURL,
		Name:            name,
		Slug:            normalize.Slug(name),
		Price:           price,
		Currency:        currency,
		SKU:             sku,
		DescriptionHTML: strings.TrimSpace(description),
		MainImageURL:    strings.TrimSpace(mainImage),
		ImageURLs:       images,
		Brand:           brand,
		Barcode:         barcode,
		CategoryPath:    category,
		MetaTitle:       MetaTitle(doc),
		MetaDescription: MetaDescription(doc),
	}
}
