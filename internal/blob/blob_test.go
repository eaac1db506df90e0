package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// mock S3 client
// ---------------------------------------------------------------------------

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	putErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte), types: make(map[string]string)}
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
	m.objects[*in.Key] = data
	m.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// S3Store
// ---------------------------------------------------------------------------

func TestS3Store_PutWithPrefix(t *testing.T) {
	client := newMockS3()
	store := NewS3(client, "face-images", "prod", "https://cdn.example.com/face-images")

	err := store.Put(context.Background(), "p1/1_a.png", "image/png", bytes.NewReader([]byte("data")), 4)
	require.NoError(t, err)

	assert.Equal(t, []byte("data"), client.objects["prod/p1/1_a.png"])
	assert.Equal(t, "image/png", client.types["prod/p1/1_a.png"])
	assert.Equal(t, "https://cdn.example.com/face-images/prod/p1/1_a.png", store.PublicURL("p1/1_a.png"))

	require.NoError(t, store.Delete(context.Background(), "p1/1_a.png"))
	assert.Empty(t, client.objects)
}

func TestS3Store_PutErrorDescribesAPIError(t *testing.T) {
	client := newMockS3()
	client.putErr = &apiError{code: "AccessDenied", msg: "bucket policy forbids write"}
	store := NewS3(client, "face-images", "", "https://cdn.example.com")

	err := store.Put(context.Background(), "p1/x.png", "image/png", bytes.NewReader(nil), 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied: bucket policy forbids write")
}

func TestNewS3Client_CustomEndpoint(t *testing.T) {
	client := NewS3Client(S3Options{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})

	opts := client.Options()
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)
}

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

func TestLocal_PutServeDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080/images")
	require.NoError(t, err)

	data := pngBytes(t)
	require.NoError(t, store.Put(context.Background(), "p1/1_face.png", "image/png", bytes.NewReader(data), int64(len(data))))

	onDisk, err := os.ReadFile(filepath.Join(dir, "p1", "1_face.png"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
	assert.Equal(t, "http://localhost:8080/images/p1/1_face.png", store.PublicURL("p1/1_face.png"))

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p1/1_face.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p1/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, store.Delete(context.Background(), "p1/1_face.png"))
	require.NoError(t, store.Delete(context.Background(), "p1/1_face.png"))
	_, err = os.Stat(filepath.Join(dir, "p1", "1_face.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "http://localhost/images")
	require.NoError(t, err)

	err = store.Put(context.Background(), "../outside.png", "image/png", bytes.NewReader(nil), 0)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// keys and detection
// ---------------------------------------------------------------------------

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"face.jpg", "face.jpg"},
		{"Jiří Novák.png", "Jiri_Novak.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo.jpeg`, "photo.jpeg"},
		{".hidden.png", "hidden.png"},
		{"", "image"},
		{"/", "image"},
		{"čau (1).webp", "cau__1_.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "p1/1700000000123_face.jpg", ObjectKey("p1", "face.jpg", now))
	assert.Equal(t, "pair_x/1700000000123_a.png", ObjectKey("pair/x", "a.png", now))
	assert.Equal(t, "_/1700000000123_image", ObjectKey("..", "", now))
}

func TestDetectImage(t *testing.T) {
	r := bytes.NewReader(pngBytes(t))

	contentType, err := DetectImage(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	// Reader is rewound for the upload that follows.
	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Zero(t, pos)
}

func TestDetectImage_NotAnImage(t *testing.T) {
	_, err := DetectImage(bytes.NewReader([]byte("definitely not pixels")))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestMemory(t *testing.T) {
	store := NewMemory("https://img.test")
	require.NoError(t, store.Put(context.Background(), "p1/a b.png", "image/png", bytes.NewReader([]byte("x")), 1))

	obj, ok := store.Get("p1/a b.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "https://img.test/p1/a%20b.png", store.PublicURL("p1/a b.png"))
	assert.Equal(t, 1, store.Len())
}
