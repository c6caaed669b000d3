/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package samplepool loads sample assets (one-shots, loops, drum hits)
// from S3-compatible object storage and decodes them into the
// arrangement's audio pool format. Loading always happens off the audio
// thread: a Loader only ever hands back a fully-decoded, immutable
// arrangement.AudioEntry, never a stream the graph could block on.
package samplepool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
)

// Config mirrors the fields of the asset bucket a session draws samples
// from. Endpoint is optional: set it to point at an S3-compatible service
// (MinIO, DigitalOcean Spaces, Backblaze B2) instead of AWS S3 proper.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	Region   string
	Bucket   string
	Endpoint string

	UsePathStyle bool
}

// DefaultConfig returns sane defaults for talking to AWS S3 proper.
func DefaultConfig() Config {
	return Config{
		Region:       "us-east-1",
		UsePathStyle: false,
	}
}

// Loader fetches sample assets by bucket key and decodes them into
// arrangement.AudioEntry values ready for Session.RegisterAudio /
// Controller.RegisterAudio.
type Loader struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewLoader builds a Loader against cfg. It does not fail if the bucket is
// unreachable at construction time, the same "warn, don't refuse to start"
// posture the teacher's media storage backend takes: a sample load simply
// fails later, at the call site that actually needed the asset.
func NewLoader(ctx context.Context, cfg Config, logger zerolog.Logger) (*Loader, error) {
	var awsCfg aws.Config
	var err error

	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					SigningRegion:     cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, fmt.Errorf("samplepool: unknown endpoint requested for service %q", service)
		})
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithEndpointResolverWithOptions(resolver),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("samplepool: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	l := &Loader{client: client, bucket: cfg.Bucket, logger: logger.With().Str("component", "samplepool").Logger()}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		l.logger.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("sample bucket not accessible yet")
	}

	return l, nil
}

// Load fetches the object at key and decodes it as a WAV file into an
// arrangement.AudioEntry. The returned entry's Samples slice is never
// mutated afterwards: callers may freely fan it out to many clip regions.
func (l *Loader) Load(ctx context.Context, key string) (*arrangement.AudioEntry, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("samplepool: no such object %q in bucket %q", key, l.bucket)
		}
		return nil, fmt.Errorf("samplepool: get object %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("samplepool: read object %q: %w", key, err)
	}

	entry, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("samplepool: decode %q: %w", key, err)
	}
	entry.Name = key

	l.logger.Info().Str("key", key).Int("sample_rate", entry.SampleRate).Int("channels", entry.Channels).Msg("sample loaded")
	return entry, nil
}

// Exists reports whether key is present in the bucket.
func (l *Loader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := l.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(l.bucket), Key: aws.String(key)})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("samplepool: check existence of %q: %w", key, err)
	}
	return true, nil
}
