package extract

import "testing"

func TestProductFromStructuredData(t *testing.T) {
	doc := mustDoc(t, ldPage(`{
		"@type": "Product",
		"name": "Test Ürün",
		"sku": "ABC-1",
		"offers": {"price": "199,90", "priceCurrency": "TRY"}
	}`))

	p := Product(doc, "https://shop.com/urun/test-urun")
	if p.Name != "Test Ürün" {
		t.Fatalf("name = %q", p.Name)
	}
	if p.SKU != "ABC-1" {
		t.Fatalf("sku = %q", p.SKU)
	}
	if p.Price == nil || *p.Price != 199.90 {
		t.Fatalf("price = %v", p.Price)
	}
	if p.Currency != "TRY" {
		t.Fatalf("currency = %q", p.Currency)
	}
	if p.Slug != "test-urun" {
		t.Fatalf("slug = %q", p.Slug)
	}
	if p.SourceURL != "https://shop.com/urun/test-urun" {
		t.Fatalf("source url = %q", p.SourceURL)
	}
}

func TestProductCascadeFillsMissingFields(t *testing.T) {
	doc := mustDoc(t, `<html><head>`+
		`<script type="application/ld+json">{"@type": "Product", "name": "Yarım Ürün"}</script>`+
		`<meta name="description" content="meta açıklama">`+
		`</head><body>`+
		`<div class="product-price"><span class="price">149,90 TL</span></div>`+
		`<span itemprop="sku">HEU-5</span>`+
		`<div class="gallery"><img src="/img/x.jpg"></div>`+
		`</body></html>`)

	p := Product(doc, "https://shop.com/urun/yarim")
	if p.Name != "Yarım Ürün" {
		t.Fatalf("structured name must win, got %q", p.Name)
	}
	if p.Price == nil || *p.Price != 149.90 {
		t.Fatalf("price from cascade = %v", p.Price)
	}
	if p.SKU != "HEU-5" {
		t.Fatalf("sku from cascade = %q", p.SKU)
	}
	if p.MainImageURL != "https://shop.com/img/x.jpg" {
		t.Fatalf("main image = %q", p.MainImageURL)
	}
	if p.Currency != "TRY" {
		t.Fatalf("default currency = %q", p.Currency)
	}
	if p.MetaDescription != "meta açıklama" {
		t.Fatalf("meta description = %q", p.MetaDescription)
	}
}

func TestProductEntityUnescape(t *testing.T) {
	doc := mustDoc(t, ldPage(`{"@type": "Product", "name": "A &amp; B"}`))
	p := Product(doc, "https://shop.com/urun/a-b")
	if p.Name != "A & B" {
		t.Fatalf("name = %q", p.Name)
	}
	if p.Slug != "a-b" {
		t.Fatalf("slug = %q", p.Slug)
	}
}

func TestProductFreshValuePerCall(t *testing.T) {
	doc := mustDoc(t, ldPage(`{"@type": "Product", "name": "X", "image": ["/a.jpg"]}`))
	first := Product(doc, "https://shop.com")
	second := Product(doc, "https://shop.com")
	first.ImageURLs[0] = "mutated"
	if second.ImageURLs[0] == "mutated" {
		t.Fatal("extraction calls must not share backing storage")
	}
}
