package main

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/keygraph"
	"github.com/hupe1980/keygraph/blobstore"
	"github.com/hupe1980/keygraph/blobstore/minio"
	"github.com/hupe1980/keygraph/blobstore/s3"
	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/codec"
	"github.com/hupe1980/keygraph/config"
	"github.com/hupe1980/keygraph/distance"
	"github.com/hupe1980/keygraph/extract"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/matcher"
)

// openStore creates the blob store selected by cfg.
func openStore(ctx context.Context, cfg config.StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return blobstore.NewLocalStore(cfg.Path), nil
	case config.BackendMemory:
		return blobstore.NewMemoryStore(), nil
	case config.BackendS3:
		return openS3(ctx, cfg)
	case config.BackendMinIO:
		store, err := minio.New(cfg.Endpoint, cfg.Bucket,
			minio.WithPrefix(cfg.Prefix),
			minio.WithCredentials(cfg.AccessKey, cfg.SecretKey),
			minio.WithSecure(cfg.Secure),
			minio.WithRegion(cfg.Region),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, configError("unknown store backend %q", cfg.Backend)
	}
}

func openS3(ctx context.Context, cfg config.StoreConfig) (blobstore.BlobStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, configError("loading aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	store := s3.NewStore(client, cfg.Bucket, s3.WithPrefix(cfg.Prefix))
	if cfg.DynamoDBTable == "" {
		return store, nil
	}

	baseURI := "s3://" + path.Join(cfg.Bucket, cfg.Prefix)
	return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, baseURI), nil
}

// keygraphOptions translates cfg into facade options.
func keygraphOptions(cfg *config.Config, logger *keygraph.Logger) ([]keygraph.Option, error) {
	enc, err := checkpoint.ParseEncoding(cfg.Checkpoint.Encoding)
	if err != nil {
		return nil, configError("%w", err)
	}
	comp, err := checkpoint.ParseCompression(cfg.Checkpoint.Compression)
	if err != nil {
		return nil, configError("%w", err)
	}
	policy, err := matcher.ParsePolicy(cfg.Match.Policy)
	if err != nil {
		return nil, configError("%w", err)
	}
	c, ok := codec.ByName(cfg.Output.Codec)
	if !ok {
		return nil, configError("unknown codec %q", cfg.Output.Codec)
	}
	if cfg.Output.Indent {
		c = codec.Indent(c, "  ")
	}

	matchOpts := []func(*matcher.Options){
		matcher.WithMaxDistance(cfg.Match.MaxDistance),
		matcher.WithRatioTest(cfg.Match.RatioTest),
		matcher.WithPolicy(policy),
		matcher.WithWorkers(cfg.Match.Workers),
	}
	if cfg.Match.Metric != "" {
		m, err := distance.ParseMetric(cfg.Match.Metric)
		if err != nil {
			return nil, configError("%w", err)
		}
		matchOpts = append(matchOpts, matcher.WithMetric(m))
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.Resources.MemoryLimitBytes,
		IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec,
	})

	return []keygraph.Option{
		keygraph.WithLogger(logger),
		keygraph.WithCodec(c),
		keygraph.WithResources(rc),
		keygraph.WithCheckpointEncoding(enc),
		keygraph.WithCheckpointCompression(comp),
		keygraph.WithExtractOptions(extract.WithMaxFrames(cfg.Extract.MaxFrames)),
		keygraph.WithMatchOptions(matchOpts...),
	}, nil
}

// setup opens the KeyGraph configured by cfg.
func setup(ctx context.Context, cfg *config.Config) (*keygraph.KeyGraph, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	opts, err := keygraphOptions(cfg, newLogger(cfg))
	if err != nil {
		return nil, err
	}
	return keygraph.New(store, opts...), nil
}
