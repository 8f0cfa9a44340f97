package challenge

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNegotiate(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		headers map[string]string
		want    Format
	}{
		{"navegador comum", "/setlists", nil, FormatHTML},
		{"accept json", "/setlists", map[string]string{"Accept": "application/json"}, FormatJSON},
		{"content-type json", "/setlists", map[string]string{"Content-Type": "application/json; charset=utf-8"}, FormatJSON},
		{"xhr", "/setlists", map[string]string{"X-Requested-With": "XMLHttpRequest"}, FormatJSON},
		{"xhr case-insensitive", "/setlists", map[string]string{"X-Requested-With": "xmlhttprequest"}, FormatJSON},
		{"caminho api", "/api/songs", nil, FormatJSON},
		{"caminho api raiz", "/api", nil, FormatJSON},
		{"apizona não é api", "/apizona", nil, FormatHTML},
		{"accept html", "/setlists", map[string]string{"Accept": "text/html"}, FormatHTML},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example"+tc.path, nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := Negotiate(r); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNegotiate_NilRequestIsHTML(t *testing.T) {
	if got := Negotiate(nil); got != FormatHTML {
		t.Fatalf("expected HTML for nil request, got %v", got)
	}
}
