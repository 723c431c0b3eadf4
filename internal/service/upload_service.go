package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"petconnect/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiry = 900 * time.Second

var (
	uploadFolders = map[string]bool{
		"pets":         true,
		"posts":        true,
		"missing-pets": true,
		"profiles":     true,
	}
	uploadContentTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
)

// UploadConfig points at an S3-compatible bucket.
type UploadConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

func (c UploadConfig) configured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type PresignInput struct {
	UserID      uint
	FileName    string
	ContentType string
	Folder      string
}

type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// UploadService issues presigned PUT URLs so clients upload images straight
// to object storage.
type UploadService struct {
	cfg       UploadConfig
	presigner *s3.PresignClient
	now       func() time.Time
}

func NewUploadService(cfg UploadConfig) *UploadService {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	s := &UploadService{cfg: cfg, now: time.Now}
	if !cfg.configured() {
		return s
	}
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	s.presigner = s3.NewPresignClient(s3.New(opts))
	return s
}

func (s *UploadService) Configured() bool {
	return s.presigner != nil
}

// objectKey builds uploads/{folder}/{userId}/{unix}_{uuid8}{ext}.
func (s *UploadService) objectKey(in PresignInput) string {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if ext == "" {
		ext = uploadContentTypes[in.ContentType]
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("uploads/%s/%d/%d_%s%s", in.Folder, in.UserID, s.now().Unix(), id, ext)
}

func (s *UploadService) fileURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
	}
}

func (s *UploadService) Presign(ctx context.Context, in PresignInput) (*PresignedUpload, error) {
	if !s.Configured() {
		return nil, models.NewUnavailableError("File uploads are not configured")
	}
	in.Folder = strings.TrimSpace(in.Folder)
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	if !uploadFolders[in.Folder] {
		return nil, models.NewValidationError("Folder must be one of pets, posts, missing-pets, profiles")
	}
	if _, ok := uploadContentTypes[in.ContentType]; !ok {
		return nil, models.NewValidationError("Content type must be image/jpeg, image/png, image/webp or image/gif")
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, models.NewValidationError("File name is required")
	}

	key := s.objectKey(in)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(in.ContentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}
