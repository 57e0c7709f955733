package offline

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xhttp"
)

const (
	headerCache          = xhttp.XCache
	headerCachePartition = xhttp.XCachePartition
)

// snapshotResponse reads up to limit bytes of resp's body. If the whole body
// fits it returns a snapshot and a replacement response backed by the read
// bytes. Otherwise the snapshot is nil and the replacement streams the rest
// of the original body.
func snapshotResponse(resp *http.Response, limit int64, now time.Time) (*storage.CachedResponse, *http.Response, error) {
	buf, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}

	if int64(len(buf)) > limit {
		resp.Body = &multiReadCloser{
			Reader: io.MultiReader(bytes.NewReader(buf), resp.Body),
			closer: resp.Body,
		}
		return nil, resp, nil
	}
	_ = resp.Body.Close()

	header := make(http.Header, len(resp.Header))
	xhttp.CopyEndToEndHeaders(header, resp.Header)
	header.Del(xhttp.SetCookie)
	header.Del(headerCache)
	header.Del(headerCachePartition)

	snapshot := &storage.CachedResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       buf,
		StoredAt:   now,
	}

	resp.Body = io.NopCloser(bytes.NewReader(buf))
	resp.ContentLength = int64(len(buf))
	return snapshot, resp, nil
}

type multiReadCloser struct {
	io.Reader
	closer io.Closer
}

func (m *multiReadCloser) Close() error { return m.closer.Close() }

func cachedToResponse(req *http.Request, cached *storage.CachedResponse, partition, status string) *http.Response {
	header := cached.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(headerCache, status)
	header.Set(headerCachePartition, partition)
	header.Set(xhttp.ContentLength, strconv.Itoa(len(cached.Body)))

	return &http.Response{
		Status:        strconv.Itoa(cached.StatusCode) + " " + http.StatusText(cached.StatusCode),
		StatusCode:    cached.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}

func serviceUnavailable(req *http.Request) *http.Response {
	const body = "Service Unavailable: offline"
	header := http.Header{}
	header.Set(xhttp.ContentType, xhttp.TextPlain)
	header.Set(xhttp.ContentLength, strconv.Itoa(len(body)))
	header.Set(headerCache, cacheOffline)

	return &http.Response{
		Status:        "503 " + http.StatusText(http.StatusServiceUnavailable),
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
