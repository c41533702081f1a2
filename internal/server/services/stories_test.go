package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/narratlas/narratlas/internal/common"
	sc "github.com/narratlas/narratlas/internal/server/config"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/repositories/stories"
)

type fakeStoriesRepo struct {
	stories.Repository

	created    []*models.Story
	listFilter stories.ListFilter
}

func (f *fakeStoriesRepo) Create(_ context.Context, s *models.Story) (*models.Story, error) {
	s.ID = "story-1"
	s.CreatedAt = time.Now()
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeStoriesRepo) List(_ context.Context, filter stories.ListFilter) ([]*models.Story, error) {
	f.listFilter = filter
	return nil, nil
}

func storageConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "narratlas-photos",
		PhotoBaseURL:   "https://cdn.example.com/",
	}
}

// stubS3 replaces the AWS seams with in-memory fakes for the duration of a test.
func stubS3(t *testing.T, onPut func(in *s3.PutObjectInput)) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		if onPut != nil {
			onPut(in)
		}
		return &s3.PutObjectOutput{}, nil
	}
}

func TestCreateUploadsPhotoAndPersists(t *testing.T) {
	var uploaded *s3.PutObjectInput
	stubS3(t, func(in *s3.PutObjectInput) { uploaded = in })

	repo := &fakeStoriesRepo{}
	svc := NewStoryService(repo, storageConfig())

	lat, lon := -6.2, 106.8
	story, err := svc.Create(context.Background(), CreateStoryInput{
		UserID:      "user-1",
		Description: "Sunset",
		Photo:       []byte{0xFF, 0xD8, 0x01},
		PhotoName:   "sunset.jpg",
		Lat:         &lat,
		Lon:         &lon,
	})
	require.NoError(t, err)
	require.Equal(t, "story-1", story.ID)

	require.NotNil(t, uploaded)
	require.Equal(t, "narratlas-photos", *uploaded.Bucket)
	require.Contains(t, *uploaded.Key, ".jpg")
	require.Equal(t, "image/jpeg", *uploaded.ContentType)
	body, err := io.ReadAll(uploaded.Body)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8, 0x01}, body)

	require.Len(t, repo.created, 1)
	require.Equal(t, "https://cdn.example.com/"+story.PhotoKey, story.PhotoURL)
	require.Equal(t, &lat, story.Lat)
}

func TestCreateWithoutPhotoSkipsUpload(t *testing.T) {
	stubS3(t, func(in *s3.PutObjectInput) { t.Fatal("no upload expected") })

	repo := &fakeStoriesRepo{}
	svc := NewStoryService(repo, storageConfig())

	story, err := svc.Create(context.Background(), CreateStoryInput{
		UserID:      "user-1",
		Description: "text only",
	})
	require.NoError(t, err)
	require.Empty(t, story.PhotoURL)
	require.Len(t, repo.created, 1)
}

func TestCreateValidation(t *testing.T) {
	svc := NewStoryService(&fakeStoriesRepo{}, storageConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateStoryInput{UserID: "u", Description: "  "})
	require.ErrorIs(t, err, common.ErrRejected)

	_, err = svc.Create(ctx, CreateStoryInput{UserID: "u", Description: "d", Photo: make([]byte, maxPhotoSize+1)})
	require.ErrorIs(t, err, common.ErrRejected)

	lat := 1.0
	_, err = svc.Create(ctx, CreateStoryInput{UserID: "u", Description: "d", Lat: &lat})
	require.ErrorIs(t, err, common.ErrRejected)
}

func TestListForwardsFilter(t *testing.T) {
	repo := &fakeStoriesRepo{}
	svc := NewStoryService(repo, storageConfig())

	_, err := svc.List(context.Background(), 2, 10, true)
	require.NoError(t, err)
	require.Equal(t, stories.ListFilter{Page: 2, Size: 10, WithLocation: true}, repo.listFilter)
}
