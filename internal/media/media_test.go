package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidate(t *testing.T) {
	u, err := Validate(bytes.NewReader(pngHeader), 1024)
	if err != nil {
		t.Fatalf("validate png: %v", err)
	}
	if u.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", u.ContentType)
	}

	if _, err := Validate(strings.NewReader("<html>hi</html>"), 1024); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("html upload error = %v, want ErrUnsupportedType", err)
	}

	if _, err := Validate(bytes.NewReader(pngHeader), 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized upload error = %v, want ErrTooLarge", err)
	}
}

func TestNewKey(t *testing.T) {
	a := NewKey("recipes/7", "image/png")
	b := NewKey("recipes/7", "image/png")
	if a == b {
		t.Error("expected distinct keys")
	}
	if !strings.HasPrefix(a, "recipes/7/") || !strings.HasSuffix(a, ".png") {
		t.Errorf("key = %q, want recipes/7/<uuid>.png", a)
	}
}

func TestDiskRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	ctx := context.Background()

	u, _ := Validate(bytes.NewReader(pngHeader), 1024)
	if err := PutUpload(ctx, d, "recipes/1/a.png", u); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := d.Open(ctx, "recipes/1/a.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pngHeader) {
		t.Errorf("content mismatch: got %d bytes", len(got))
	}

	if err := d.Delete(ctx, "recipes/1/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := d.Open(ctx, "recipes/1/a.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("open after delete error = %v, want ErrNotFound", err)
	}
	if err := d.Delete(ctx, "recipes/1/a.png"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDiskRejectsEscapingKeys(t *testing.T) {
	d, _ := NewDisk(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../secret", "/etc/passwd", "a/../../b"} {
		if err := d.Put(ctx, key, "image/png", bytes.NewReader(pngHeader), 0); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.types[*input.Key] = *input.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	mock := newMockS3()
	s := &S3{client: mock, bucket: "recipes"}
	ctx := context.Background()

	u, _ := Validate(bytes.NewReader(pngHeader), 1024)
	if err := PutUpload(ctx, s, "recipes/1/a.png", u); err != nil {
		t.Fatalf("put: %v", err)
	}
	if mock.types["recipes/1/a.png"] != "image/png" {
		t.Errorf("stored content type = %q, want image/png", mock.types["recipes/1/a.png"])
	}

	rc, err := s.Open(ctx, "recipes/1/a.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pngHeader) {
		t.Error("content mismatch")
	}

	if err := s.Delete(ctx, "recipes/1/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, "recipes/1/a.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("open after delete error = %v, want ErrNotFound", err)
	}
}

func TestS3PutError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("boom")
	s := &S3{client: mock, bucket: "recipes"}

	err := s.Put(context.Background(), "k", "image/png", bytes.NewReader(pngHeader), int64(len(pngHeader)))
	if err == nil || !strings.Contains(err.Error(), "upload to s3") {
		t.Errorf("put error = %v, want wrapped upload error", err)
	}
}

func TestNewS3RequiresCredentials(t *testing.T) {
	if _, err := NewS3(S3Config{Bucket: "b"}); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewS3(S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "http://localhost:9000"}); err != nil {
		t.Errorf("new s3: %v", err)
	}
}
