package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garrettladley/storefront/internal/xhttp"
)

func TestGzip(t *testing.T) {
	t.Parallel()

	large := strings.Repeat("storefront ", 200)

	tests := []struct {
		name           string
		method         string
		acceptEncoding string
		contentType    string
		encoding       string
		body           string
		wantGzip       bool
	}{
		{name: "small body stays plain", acceptEncoding: "gzip", body: "ok"},
		{name: "large json compressed", acceptEncoding: "gzip, br", contentType: xhttp.ApplicationJSON, body: large, wantGzip: true},
		{name: "threshold compressed", acceptEncoding: "gzip", body: strings.Repeat("a", gzipMinSize), wantGzip: true},
		{name: "client without gzip", acceptEncoding: "br", body: large},
		{name: "image passes through", acceptEncoding: "gzip", contentType: "image/png", body: large},
		{name: "woff2 passes through", acceptEncoding: "gzip", contentType: "font/woff2", body: large},
		{name: "origin encoding kept", acceptEncoding: "gzip", encoding: "br", body: large},
		{name: "head skipped", method: http.MethodHead, acceptEncoding: "gzip", body: large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := Gzip(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.contentType != "" {
					w.Header().Set(xhttp.ContentType, tt.contentType)
				}
				if tt.encoding != "" {
					w.Header().Set(xhttp.ContentEncoding, tt.encoding)
				}
				_, _ = io.WriteString(w, tt.body)
			}))

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequestWithContext(t.Context(), method, "/static/app.js", nil)
			req.Header.Set(xhttp.AcceptEncoding, tt.acceptEncoding)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			gotEncoding := rec.Header().Get(xhttp.ContentEncoding)
			if tt.wantGzip {
				if gotEncoding != gzipEncoding {
					t.Fatalf("Content-Encoding = %q, want gzip", gotEncoding)
				}
				body, err := decompressGzip(rec.Body.Bytes())
				if err != nil {
					t.Fatalf("decompress: %v", err)
				}
				if string(body) != tt.body {
					t.Errorf("decompressed body length = %d, want %d", len(body), len(tt.body))
				}
				return
			}

			if gotEncoding != tt.encoding {
				t.Errorf("Content-Encoding = %q, want %q", gotEncoding, tt.encoding)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body length = %d, want %d", rec.Body.Len(), len(tt.body))
			}
		})
	}
}

func TestGzipAcrossWrites(t *testing.T) {
	t.Parallel()

	chunks := []string{strings.Repeat("x", 700), strings.Repeat("y", 700), strings.Repeat("z", 300)}

	h := Gzip(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		for _, c := range chunks {
			n, err := io.WriteString(w, c)
			if err != nil || n != len(c) {
				t.Errorf("Write() = %d, %v; want %d, nil", n, err, len(c))
			}
			w.(http.Flusher).Flush()
		}
	}))

	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/api/orders", nil)
	req.Header.Set(xhttp.AcceptEncoding, "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get(xhttp.Vary); got != xhttp.AcceptEncoding {
		t.Errorf("Vary = %q, want %q", got, xhttp.AcceptEncoding)
	}
	body, err := decompressGzip(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if want := strings.Join(chunks, ""); string(body) != want {
		t.Errorf("decompressed body length = %d, want %d", len(body), len(want))
	}
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close() //nolint:errcheck

	return io.ReadAll(reader)
}
