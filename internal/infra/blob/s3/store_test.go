package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"usersapi/internal/infra/blob/core"
)

func TestStoreMockedPutGetOverwrite(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected store identity")
	}

	if _, err := store.Put(ctx, "users.json", bytes.NewReader([]byte("[]")), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := store.Put(ctx, "users.json", bytes.NewReader([]byte(`[{"id":"a"}]`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if info.Key != "users.json" || info.Size != 12 {
		t.Fatalf("unexpected info %+v", info)
	}

	_, rc, err := store.Get(ctx, "users.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `[{"id":"a"}]` {
		t.Fatalf("get mismatch: %q", string(data))
	}
}

func TestStoreMissingKeyIsNotFound(t *testing.T) {
	store := NewMockForTests()
	if _, _, err := store.Get(context.Background(), "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreNew(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "bkt",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 || s.Bucket() != "bkt" {
		t.Fatalf("unexpected store identity")
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestDecodeChunkedLite(t *testing.T) {
	if _, ok := decodeChunkedLite([]byte("not-chunked")); ok {
		t.Fatalf("expected plain body to be left alone")
	}
	if _, ok := decodeChunkedLite([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("size mismatch should fail")
	}
	if b, ok := decodeChunkedLite([]byte("5\r\nhello\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n")); !ok || string(b) != "hello" {
		t.Fatalf("expected decode hello")
	}
}

func TestMockRoundTripperLiteUnsupported(t *testing.T) {
	rt := &mockRoundTripperLite{state: make(map[string]mockObj)}
	req, _ := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	resp, _ := rt.RoundTrip(req)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}
