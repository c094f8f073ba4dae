// internal/profile/upload.go

package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/moodlyapp/moodly-backend/internal/config"
)

// UploadService stores profile photos and returns their public URL.
type UploadService interface {
	UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error)
	DeleteFile(ctx context.Context, url string) error
}

// NewUploader picks the storage backend from configuration.
func NewUploader(cfg config.UploadConfig) (UploadService, error) {
	switch cfg.Provider {
	case "s3":
		return newS3Uploader(cfg)
	case "local":
		return &localUploader{dir: cfg.LocalDir, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Provider)
	}
}

func objectKey(folder, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s/%s_%d%s", folder, uuid.New().String(), time.Now().Unix(), ext)
}

type localUploader struct {
	dir     string
	baseURL string
}

func (u *localUploader) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	key := objectKey(folder, header.Filename)
	path := filepath.Join(u.dir, key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}

func (u *localUploader) DeleteFile(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, u.baseURL+"/") {
		return fmt.Errorf("url %q is outside the upload base", url)
	}

	path := filepath.Join(u.dir, strings.TrimPrefix(url, u.baseURL+"/"))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

type s3Uploader struct {
	client  *s3.S3
	bucket  string
	baseURL string
}

func newS3Uploader(cfg config.UploadConfig) (UploadService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(cfg.S3ForcePathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &s3Uploader{
		client:  s3.New(sess),
		bucket:  cfg.S3Bucket,
		baseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region),
	}, nil
}

func (u *s3Uploader) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	body, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(folder, header.Filename)
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}

func (u *s3Uploader) DeleteFile(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, u.baseURL+"/") {
		return fmt.Errorf("url %q is outside the upload base", url)
	}

	key := strings.TrimPrefix(url, u.baseURL+"/")
	_, err := u.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}
