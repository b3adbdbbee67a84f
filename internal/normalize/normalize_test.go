package normalize

import "testing"

func TestPrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234,56 TL", 1234.56, true},
		{"19,99", 19.99, true},
		{"1,234", 1234, true},
		{"199,90", 199.90, true},
		{"₺2.499,00", 2499, true},
		{"1299", 1299, true},
		{"12.5", 12.5, true},
		{"", 0, false},
		{"fiyat yok", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Price(tc.in)
			if ok != tc.ok {
				t.Fatalf("Price(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("Price(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Örnek Ürün Adı!", "ornek-urun-adi"},
		{"Test Ürün", "test-urun"},
		{"  Çift  --  Tire  ", "cift-tire"},
		{"ŞĞÜÖÇİ", "sguoci"},
		{"already-sluggy", "already-sluggy"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSKU(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{" abc-1 ", "ABC-1"},
		{"a b\tc", "ABC"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SKU(tc.in); got != tc.want {
			t.Fatalf("SKU(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Kırmızı Elbise (M)", "kırmızı elbise m"},
		{"Basic  Title", "basic title"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Title(tc.in); got != tc.want {
			t.Fatalf("Title(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
