package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

func supabaseBucket() string {
	if b := os.Getenv("SUPABASE_BUCKET"); b != "" {
		return b
	}
	return "topics"
}

func newStorageClient() (*storage.Client, string, error) {
	supabaseURL := strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return nil, "", fmt.Errorf("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}
	return storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil), supabaseURL, nil
}

// PublicObjectURL trả về URL public của object trong bucket
func PublicObjectURL(supabaseURL, bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", supabaseURL, bucket, objectPath)
}

func slideImagesBucket() string {
	if b := os.Getenv("SUPABASE_SLIDES_BUCKET"); b != "" {
		return b
	}
	return "slides"
}

// IsImageUpload báo file multipart có content type image/*.
func IsImageUpload(fileHeader *multipart.FileHeader) bool {
	return strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/")
}

// SlideImageObjectPath: <topicID>/<fileID>.<ext>
func SlideImageObjectPath(topicID, fileID, filename string) string {
	return fmt.Sprintf("%s/%s%s", topicID, fileID, strings.ToLower(filepath.Ext(filename)))
}

// UploadImageToSupabase uploads a topic cover image (e.g. .jpg, .png).
// Path: <bucket>/thumbnails/<fileID>.<ext>
func UploadImageToSupabase(fileHeader *multipart.FileHeader, fileID string) (string, error) {
	objectPath := fmt.Sprintf("thumbnails/%s%s", fileID, strings.ToLower(filepath.Ext(fileHeader.Filename)))
	return uploadToSupabase(fileHeader, supabaseBucket(), objectPath)
}

// UploadSlideImage đưa ảnh dùng trong nội dung slide lên bucket slides.
func UploadSlideImage(fileHeader *multipart.FileHeader, topicID, fileID string) (string, error) {
	return uploadToSupabase(fileHeader, slideImagesBucket(), SlideImageObjectPath(topicID, fileID, fileHeader.Filename))
}

func uploadToSupabase(fileHeader *multipart.FileHeader, bucket, objectPath string) (string, error) {
	client, supabaseURL, err := newStorageClient()
	if err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	options := storage.FileOptions{
		ContentType: &contentType,
	}

	if _, err := client.UploadFile(bucket, objectPath, &buf, options); err != nil {
		return "", err
	}

	return PublicObjectURL(supabaseURL, bucket, objectPath), nil
}

// ParseObjectURL tách bucket và đường dẫn object từ public URL
// ("/storage/v1/object/public/<bucket>/<path>").
func ParseObjectURL(publicURL string) (bucket, object string, err error) {
	idx := strings.Index(publicURL, "/storage/v1/object/")
	if idx == -1 {
		return "", "", fmt.Errorf("không xác định được đường dẫn object trong URL: %s", publicURL)
	}

	rest := publicURL[idx+len("/storage/v1/object/"):]
	rest = strings.TrimPrefix(rest, "public/")

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("không parse được bucket/object từ URL: %s", publicURL)
	}
	bucket = parts[0]
	object = parts[1]
	// bỏ query params nếu có
	if qIdx := strings.Index(object, "?"); qIdx != -1 {
		object = object[:qIdx]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}
	return bucket, object, nil
}

// DeleteFileFromSupabase xóa object tương ứng với public URL.
func DeleteFileFromSupabase(publicURL string) error {
	if publicURL == "" {
		return nil
	}

	bucket, object, err := ParseObjectURL(publicURL)
	if err != nil {
		return err
	}

	client, _, err := newStorageClient()
	if err != nil {
		return err
	}

	if _, err := client.RemoveFile(bucket, []string{object}); err != nil {
		return fmt.Errorf("xóa file Supabase thất bại: %w", err)
	}
	return nil
}
