package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaConfig holds S3-compatible object storage configuration (R2, MinIO)
type MediaConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // Public base URL for accessing files
}

// MediaLibrary provides object storage for post images: uploads and folder
// scans for the generation pipeline's image selection
type MediaLibrary struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewMediaLibrary creates a new S3-backed media library
func NewMediaLibrary(cfg MediaConfig) (*MediaLibrary, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO and R2 S3 compatibility
	})

	return &MediaLibrary{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// UploadInput represents input for uploading a file
type UploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string // Optional: original filename for extension extraction
	Folder      string // Optional: target folder prefix
}

// UploadOutput represents output from uploading a file
type UploadOutput struct {
	Key        string
	URL        string
	Size       int64
	UploadedAt time.Time
}

// Upload stores a file and returns its public URL
func (m *MediaLibrary) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	ext := path.Ext(in.Filename)
	if ext == "" {
		ext = extensionFromContentType(in.ContentType)
	}

	folder := strings.Trim(in.Folder, "/")
	if folder == "" {
		folder = time.Now().Format("2006/01/02")
	}
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to object storage: %w", err)
	}

	return &UploadOutput{
		Key:        key,
		URL:        m.urlFor(key),
		Size:       in.Size,
		UploadedAt: time.Now(),
	}, nil
}

// ListImages returns the public URLs of image objects under the folder prefix
func (m *MediaLibrary) ListImages(ctx context.Context, folder string) ([]string, error) {
	prefix := strings.Trim(folder, "/")
	if prefix != "" {
		prefix += "/"
	}

	var urls []string
	var continuation *string

	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("listing media folder %q: %w", folder, err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil || !isImageKey(*obj.Key) {
				continue
			}
			urls = append(urls, m.urlFor(*obj.Key))
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	return urls, nil
}

// PickImage selects an image from the folder, skipping URLs in the exclusion
// list. When every image is excluded the least-recently-used rule degrades to
// the first one, so a small folder still yields an image.
func (m *MediaLibrary) PickImage(ctx context.Context, folder string, exclude []string) (string, error) {
	urls, err := m.ListImages(ctx, folder)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("media folder %q has no images", folder)
	}

	excluded := make(map[string]bool, len(exclude))
	for _, u := range exclude {
		excluded[u] = true
	}

	for _, u := range urls {
		if !excluded[u] {
			return u, nil
		}
	}

	return urls[0], nil
}

// Delete removes an object
func (m *MediaLibrary) Delete(ctx context.Context, key string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting from object storage: %w", err)
	}
	return nil
}

func (m *MediaLibrary) urlFor(key string) string {
	return fmt.Sprintf("%s/%s", m.publicURL, key)
}

func isImageKey(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// extensionFromContentType returns a file extension for the content type
func extensionFromContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
