package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Sink stores a finished export and returns where it went.
type Sink interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
}

// fileSink writes exports into a local directory.
type fileSink struct {
	dir    string
	logger zerolog.Logger
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, logger zerolog.Logger) Sink {
	return &fileSink{
		dir:    dir,
		logger: logger.With().Str("component", "file-export-sink").Logger(),
	}
}

func (s *fileSink) Store(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write export")
		return "", fmt.Errorf("failed to write export %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("export written")
	return path, nil
}

// s3Sink uploads exports to an S3 bucket.
type s3Sink struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Sink creates an S3 sink using the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Sink, error) {
	logger = logger.With().Str("component", "s3-export-sink").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 export sink initialised")

	return NewS3SinkFromClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewS3SinkFromClient creates an S3 sink over an existing client.
func NewS3SinkFromClient(client *s3.Client, bucket, prefix string, logger zerolog.Logger) Sink {
	return &s3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *s3Sink) Store(ctx context.Context, name string, data []byte) (string, error) {
	key := s.prefix + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	location := "s3://" + s.bucket + "/" + key
	s.logger.Info().Str("location", location).Int("bytes", len(data)).Msg("export uploaded")
	return location, nil
}

// fallbackSink tries S3 first and falls back to the local directory.
type fallbackSink struct {
	s3        Sink
	local     Sink
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackSink creates a sink that tries s3 when enabled, then local.
// A nil s3 sink means local only.
func NewFallbackSink(s3 Sink, local Sink, s3Enabled bool, logger zerolog.Logger) Sink {
	return &fallbackSink{
		s3:        s3,
		local:     local,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-export-sink").Logger(),
	}
}

func (s *fallbackSink) Store(ctx context.Context, name string, data []byte) (string, error) {
	if s.s3Enabled && s.s3 != nil {
		location, err := s.s3.Store(ctx, name, data)
		if err == nil {
			return location, nil
		}

		s.logger.Warn().
			Err(err).
			Str("name", name).
			Msg("failed to upload export to S3, falling back to local file system")
	} else {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_sink", s.s3 != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return s.local.Store(ctx, name, data)
}
