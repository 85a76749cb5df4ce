package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/invkeeper/internal/filex"
	"github.com/dmitrijs2005/invkeeper/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}

	imageClock = time.Now
)

// allowedImageTypes maps accepted file extensions to their content type.
var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore persists an uploaded image under key and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageKey returns a fresh object key of the form products/YYYY/MM/DD/<uuid><ext>.
func ImageKey(now time.Time, ext string) string {
	return fmt.Sprintf("products/%04d/%02d/%02d/%v%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

// ImageService accepts product images and hands them to an ImageStore.
type ImageService struct {
	store ImageStore
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{store: store}
}

// Upload stores body and returns the URL the front-end should save as
// imagen_url. Only common raster formats are accepted, judged by the
// extension of filename.
func (s *ImageService) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		return "", validationError("unsupported image type %q", ext)
	}

	url, err := s.store.Save(ctx, ImageKey(imageClock(), ext), contentType, body)
	if err != nil {
		return "", storageError(err)
	}
	return url, nil
}

// S3ImageStore writes images to an S3-compatible bucket (AWS or MinIO).
type S3ImageStore struct {
	client     objectPutter
	bucket     string
	publicBase string
}

func NewS3ImageStore(ctx context.Context, cfg *config.Config) (*S3ImageStore, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.S3BaseEndpoint, "/") + "/" + cfg.S3Bucket
	if cfg.S3BaseEndpoint == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &S3ImageStore{client: client, bucket: cfg.S3Bucket, publicBase: base}, nil
}

func (s *S3ImageStore) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.publicBase + "/" + key, nil
}

// LocalImageStore writes images below a directory that the HTTP layer serves
// under urlPrefix.
type LocalImageStore struct {
	dir       string
	urlPrefix string
}

func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalImageStore{dir: abs, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Dir is the absolute directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(_ context.Context, key, _ string, body io.Reader) (string, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if _, err := filex.EnsureDir(filepath.Dir(target)); err != nil {
		return "", err
	}
	if _, err := filex.WriteAtomic(target, body); err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, key), nil
}
