package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/chobar-cart/internal/config"
)

type fakeS3 struct {
	puts    map[string][]byte
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// fileHeader builds a real multipart.FileHeader by parsing a form.
func fileHeader(t *testing.T, name, ctype string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", ctype)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestImageStore_UploadAndDelete(t *testing.T) {
	api := &fakeS3{puts: map[string][]byte{}}
	store := newImageStore(api, config.S3Config{Bucket: "imgs", Endpoint: "http://minio:9000/"})
	store.now = func() time.Time { return time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC) }

	url, err := store.Upload(context.Background(), "products", fileHeader(t, "Shoe.PNG", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^http://minio:9000/imgs/products/2024/03/07/[0-9a-f-]{36}\.png$`), url)

	key := url[len("http://minio:9000/imgs/"):]
	assert.Equal(t, []byte("png"), api.puts[key])

	require.NoError(t, store.Delete(context.Background(), url))
	assert.Equal(t, []string{key}, api.deleted)
}

func TestImageStore_RejectsNonImages(t *testing.T) {
	store := newImageStore(&fakeS3{puts: map[string][]byte{}}, config.S3Config{Bucket: "imgs", Region: "eu-west-1"})
	_, err := store.Upload(context.Background(), "avatars", fileHeader(t, "notes.txt", "text/plain", []byte("x")))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestImageStore_DeleteIgnoresForeignURLs(t *testing.T) {
	api := &fakeS3{puts: map[string][]byte{}}
	store := newImageStore(api, config.S3Config{Bucket: "imgs", Region: "eu-west-1"})

	require.NoError(t, store.Delete(context.Background(), "https://elsewhere.example/a.png"))
	require.NoError(t, store.Delete(context.Background(), ""))
	assert.Empty(t, api.deleted)

	require.NoError(t, store.Delete(context.Background(), "https://imgs.s3.eu-west-1.amazonaws.com/avatars/a.png"))
	assert.Equal(t, []string{"avatars/a.png"}, api.deleted)
}
