package media

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/embrace-blog/embrace/internal/model"
)

type S3Store struct { // implements Store
	client  *s3.Client
	presign *s3.PresignClient

	bucket     string
	maxBytes   int64
	previewTTL time.Duration
}

func NewS3Store(accessKeyID, accessKeySecret, baseEndpoint, bucket string, maxBytes int64, previewTTL time.Duration) *S3Store {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		mediaLogger.Fatal().Err(err).Msg("Error initializing S3 client")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseEndpoint)
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),

		bucket:     bucket,
		maxBytes:   maxBytes,
		previewTTL: previewTTL,
	}
}

func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (*model.MediaObject, error) {
	if err := ValidateUpload(data, contentType, s.maxBytes); err != nil {
		return nil, err
	}

	id := model.MediaID(uuid.New().String())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(string(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		mediaLogger.Error().Err(err).Str("media_id", string(id)).Msg("Error uploading object")
		return nil, errors.Join(ErrUnavailable, err)
	}

	return &model.MediaObject{
		ID:          id,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, id model.MediaID) error {
	// S3 DeleteObject is idempotent and does not report missing keys, so
	// check first to keep the NotFound contract.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(id)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrNotFound
		}
		return errors.Join(ErrUnavailable, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(id)),
	})
	if err != nil {
		mediaLogger.Error().Err(err).Str("media_id", string(id)).Msg("Error deleting object")
		return errors.Join(ErrUnavailable, err)
	}

	return nil
}

func (s *S3Store) PreviewURL(id model.MediaID) string {
	req, err := s.presign.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(id)),
	}, s3.WithPresignExpires(s.previewTTL))
	if err != nil {
		mediaLogger.Warn().Err(err).Str("media_id", string(id)).Msg("Error presigning preview URL")
		return ""
	}
	return req.URL
}

// ListIDs returns every object key in the bucket. Used by the out-of-band
// orphan cleanup, not by the lifecycle controller.
func (s *S3Store) ListIDs(ctx context.Context) ([]model.MediaID, error) {
	var ids []model.MediaID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Join(ErrUnavailable, err)
		}
		for _, obj := range page.Contents {
			ids = append(ids, model.MediaID(aws.ToString(obj.Key)))
		}
	}

	return ids, nil
}
