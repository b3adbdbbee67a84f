package crawl

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://a.com/x?y=1#z", "https://a.com/x"},
		{"https://a.com/x", "https://a.com/x"},
		{"HTTPS://A.com:443/x", "https://a.com/x"},
		{"http://a.com:80/şeker", "http://a.com/%C5%9Feker"},
		{"https://a.com", "https://a.com"},
		{"https://a.com/", "https://a.com"},
	}
	for _, tc := range cases {
		got, err := NormalizeURL(tc.in)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := NormalizeURL("http://[bad"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestSameHost(t *testing.T) {
	if !SameHost("https://a.com/x", "https://A.com/y") {
		t.Fatal("expected same host")
	}
	if SameHost("https://a.com/x", "https://b.com/x") {
		t.Fatal("expected different hosts")
	}
}

func TestAbsoluteURL(t *testing.T) {
	if got := AbsoluteURL("https://a.com/cat/", "../urun/x"); got != "https://a.com/urun/x" {
		t.Fatalf("unexpected resolution: %q", got)
	}
	if got := AbsoluteURL("https://a.com", "https://b.com/y"); got != "https://b.com/y" {
		t.Fatalf("absolute href must pass through, got %q", got)
	}
}

func TestLastPathSegment(t *testing.T) {
	if got := LastPathSegment("https://a.com/kategori/ayakkabi/"); got != "ayakkabi" {
		t.Fatalf("got %q", got)
	}
	if got := LastPathSegment("https://a.com/"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
