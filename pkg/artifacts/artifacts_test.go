package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is a thread-safe in-memory S3 backend.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if ok, err := s.Exists(ctx, AgentFile); err != nil || ok {
		t.Fatalf("Exists before Put = %v, %v", ok, err)
	}
	_, err := s.Get(ctx, AgentFile)
	if !errors.Is(err, ErrNotExist) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Get missing: expected ErrNotExist, got %v", err)
	}

	if err := s.Put(ctx, AgentFile, []byte(`{"name":"a"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "nested/"+MetricsFile, []byte(`{}`)); err != nil {
		t.Fatalf("Put nested: %v", err)
	}
	if ok, err := s.Exists(ctx, AgentFile); err != nil || !ok {
		t.Fatalf("Exists after Put = %v, %v", ok, err)
	}
	got, err := s.Get(ctx, AgentFile)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"name":"a"}` {
		t.Fatalf("Get = %s", got)
	}

	if err := s.Put(ctx, AgentFile, []byte(`{"name":"b"}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if got, _ = s.Get(ctx, AgentFile); string(got) != `{"name":"b"}` {
		t.Fatalf("Get after overwrite = %s", got)
	}
}

func TestLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models", "trained")
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	exercise(t, l)
	if _, err := os.Stat(filepath.Join(dir, "nested", MetricsFile)); err != nil {
		t.Errorf("nested file not on disk: %v", err)
	}
	if want := filepath.Join(dir, AgentFile); l.Location(AgentFile) != want {
		t.Errorf("Location = %s, want %s", l.Location(AgentFile), want)
	}
}

func TestS3(t *testing.T) {
	m := newMockS3()
	s := NewS3(m, "bucket", "runs/1")
	exercise(t, s)
	if _, ok := m.objects["bucket/runs/1/agent.json"]; !ok {
		t.Errorf("object keys = %v", m.objects)
	}
	if got := s.Location(AgentFile); got != "s3://bucket/runs/1/agent.json" {
		t.Errorf("Location = %s", got)
	}

	bare := NewS3(m, "bucket", "")
	if got := bare.Location(AgentFile); got != "s3://bucket/agent.json" {
		t.Errorf("Location = %s", got)
	}

	m.putErr = &apiError{code: "AccessDenied"}
	err := s.Put(context.Background(), "x", nil)
	if err == nil || errors.Is(err, ErrNotExist) {
		t.Errorf("Put with failing client = %v", err)
	}
}

func TestParseS3(t *testing.T) {
	tests := []struct {
		in             string
		bucket, prefix string
		ok             bool
	}{
		{"s3://b", "b", "", true},
		{"s3://b/", "b", "", true},
		{"s3://b/models/trained/", "b", "models/trained", true},
		{"s3://", "", "", false},
		{"models/trained", "", "", false},
	}
	for _, tt := range tests {
		bucket, prefix, ok := ParseS3(tt.in)
		if bucket != tt.bucket || prefix != tt.prefix || ok != tt.ok {
			t.Errorf("ParseS3(%q) = %q, %q, %v", tt.in, bucket, prefix, ok)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, dir, S3Config{})
	if err != nil {
		t.Fatalf("Open local: %v", err)
	}
	if _, ok := s.(*Local); !ok {
		t.Errorf("Open local = %T", s)
	}

	if _, err := Open(ctx, "s3://bucket/p", S3Config{}); err == nil {
		t.Error("Open s3 without credentials should fail")
	}
	s, err = Open(ctx, "s3://bucket/p", S3Config{AccessKeyID: "id", SecretAccessKey: "secret", Endpoint: "http://localhost:9000", UsePathStyle: true})
	if err != nil {
		t.Fatalf("Open s3: %v", err)
	}
	if got := s.Location(AgentFile); got != "s3://bucket/p/agent.json" {
		t.Errorf("Location = %s", got)
	}
	if _, err := Open(ctx, "s3://", S3Config{AccessKeyID: "id", SecretAccessKey: "secret"}); err == nil {
		t.Error("Open without bucket should fail")
	}
}
