package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"readwatch/internal/config"
	"readwatch/internal/model"
)

const (
	exportContentType  = "application/json"
	exportCacheControl = "private, max-age=0, no-store"
)

// ObjectPutter is the part of *s3.Client the export needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ExportService renders a user's reading list as JSON and, when R2 is
// configured, publishes it to the bucket.
type ExportService struct {
	items     *ItemService
	users     *UserService
	store     ObjectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewExportService constructs an S3-compatible client for Cloudflare R2 when
// the R2 settings are complete. Without them Export still works and Publish
// returns model.ErrExportDisabled.
func NewExportService(ctx context.Context, cfg *config.Config, items *ItemService, users *UserService) (*ExportService, error) {
	if !cfg.ExportEnabled() {
		return newExportService(items, users, nil, "", ""), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newExportService(items, users, client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

func newExportService(items *ItemService, users *UserService, store ObjectPutter, bucket, publicURL string) *ExportService {
	return &ExportService{
		items:     items,
		users:     users,
		store:     store,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// Enabled reports whether Publish can upload.
func (s *ExportService) Enabled() bool {
	return s.store != nil
}

// Export builds the reading-list document for username.
func (s *ExportService) Export(ctx context.Context, username string) (*model.ReadingListExport, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, user)
}

func (s *ExportService) build(ctx context.Context, user *model.User) (*model.ReadingListExport, error) {
	items, err := s.items.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	stats, err := s.items.statsFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.ReadingListExport{
		Username:   user.Username,
		ExportedAt: s.now().UTC(),
		Stats:      *stats,
		Items:      items,
	}, nil
}

// Publish uploads the caller's reading list under a fresh key and returns
// its public location.
func (s *ExportService) Publish(ctx context.Context, userID int64) (*model.UploadResult, error) {
	if !s.Enabled() {
		return nil, model.ErrExportDisabled
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc, err := s.build(ctx, user)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json", model.ExportFolder, user.Username, uuid.NewString())
	if err := s.putObject(ctx, key, body); err != nil {
		return nil, err
	}

	return &model.UploadResult{URL: fmt.Sprintf("%s/%s", s.publicURL, key), Key: key}, nil
}

func (s *ExportService) putObject(ctx context.Context, key string, body []byte) error {
	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(exportContentType),
		CacheControl: aws.String(exportCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}
