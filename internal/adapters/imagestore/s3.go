package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"eventhub/internal/domain"
)

// S3Config holds configuration for the S3-backed image store.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// StoreConfig holds configuration for creating an image store.
type StoreConfig struct {
	Provider string
	S3       S3Config
}

// NewStore creates an image store from config. Provider "s3" uses AWS S3;
// "noop" or unknown uses a no-op store that returns placeholder URLs.
func NewStore(config StoreConfig) (domain.ImageStore, error) {
	switch config.Provider {
	case "s3":
		awsCfg := aws.Config{
			Region: config.S3.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					config.S3.AccessKeyID,
					config.S3.SecretAccessKey,
					"",
				),
			),
		}
		return &s3Store{
			client: s3.NewFromConfig(awsCfg),
			bucket: config.S3.Bucket,
			region: config.S3.Region,
		}, nil
	case "noop":
		return &noopStore{}, nil
	default:
		log.Printf("[IMAGESTORE] Unknown image store provider %q, using noop", config.Provider)
		return &noopStore{}, nil
	}
}

type s3Store struct {
	client *s3.Client
	bucket string
	region string
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func (s *s3Store) Upload(ctx context.Context, image *domain.ImageUpload) (string, error) {
	ext, ok := extByContentType[image.ContentType]
	if !ok {
		return "", fmt.Errorf("unsupported image content type %q", image.ContentType)
	}
	key := "events/" + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image.Data),
		ContentType: aws.String(image.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image to s3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *s3Store) Delete(ctx context.Context, imageURL string) error {
	key, err := s.keyFromURL(imageURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image from s3: %w", err)
	}
	return nil
}

// keyFromURL recovers the object key from a URL produced by Upload. URLs
// pointing elsewhere are rejected so we never delete foreign objects.
func (s *s3Store) keyFromURL(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	expectedHost := fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region)
	if u.Host != expectedHost {
		return "", fmt.Errorf("image url host %q does not belong to bucket %q", u.Host, s.bucket)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("image url %q has no object key", imageURL)
	}
	return key, nil
}

type noopStore struct{}

func (n *noopStore) Upload(ctx context.Context, image *domain.ImageUpload) (string, error) {
	log.Println("[IMAGESTORE] Image would be uploaded (noop)", "bytes", len(image.Data))
	return "https://images.invalid/" + uuid.NewString(), nil
}

func (n *noopStore) Delete(ctx context.Context, imageURL string) error {
	log.Println("[IMAGESTORE] Image would be deleted (noop)", "url", imageURL)
	return nil
}
