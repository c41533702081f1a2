package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/narratlas/narratlas/internal/common"
	sc "github.com/narratlas/narratlas/internal/server/config"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/repositories/stories"
)

// maxPhotoSize mirrors the client-side cap so oversized uploads are rejected
// at the boundary even when a client skips its own check.
const maxPhotoSize = 900 * 1024

// Indirections over the AWS SDK, swappable in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// CreateStoryInput is a publish request already attributed to a user.
type CreateStoryInput struct {
	UserID      string
	Description string
	Photo       []byte
	PhotoName   string
	Lat         *float64
	Lon         *float64
}

// StoryService publishes and lists stories, storing photos in an
// S3-compatible bucket.
type StoryService struct {
	repo   stories.Repository
	config *sc.Config
}

func NewStoryService(repo stories.Repository, config *sc.Config) *StoryService {
	return &StoryService{repo: repo, config: config}
}

// storageKey derives a unique object key, partitioned by date.
func storageKey(photoName string) string {
	d := time.Now()
	ext := filepath.Ext(photoName)
	return fmt.Sprintf("photos/%d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *StoryService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return client, nil
}

// uploadPhoto stores the payload and returns the object key and public URL.
func (s *StoryService) uploadPhoto(ctx context.Context, photo []byte, photoName string) (string, string, error) {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return "", "", err
	}

	key := storageKey(photoName)
	contentType := mime.TypeByExtension(filepath.Ext(photoName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(photo),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("uploading photo: %w", err)
	}

	url := strings.TrimSuffix(s.config.PhotoBaseURL, "/") + "/" + key
	return key, url, nil
}

// Create validates, uploads the photo when present, and persists the story.
func (s *StoryService) Create(ctx context.Context, in CreateStoryInput) (*models.Story, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrRejected)
	}
	if len(in.Photo) > maxPhotoSize {
		return nil, fmt.Errorf("%w: photo exceeds %d KB", common.ErrRejected, maxPhotoSize/1024)
	}
	if (in.Lat == nil) != (in.Lon == nil) {
		return nil, fmt.Errorf("%w: lat and lon must be sent together", common.ErrRejected)
	}

	story := &models.Story{
		UserID:      in.UserID,
		Description: in.Description,
		Lat:         in.Lat,
		Lon:         in.Lon,
	}

	if len(in.Photo) > 0 {
		key, url, err := s.uploadPhoto(ctx, in.Photo, in.PhotoName)
		if err != nil {
			return nil, err
		}
		story.PhotoKey = key
		story.PhotoURL = url
	}

	return s.repo.Create(ctx, story)
}

func (s *StoryService) List(ctx context.Context, page, size int, withLocation bool) ([]*models.Story, error) {
	return s.repo.List(ctx, stories.ListFilter{Page: page, Size: size, WithLocation: withLocation})
}

func (s *StoryService) Get(ctx context.Context, id string) (*models.Story, error) {
	return s.repo.GetByID(ctx, id)
}
