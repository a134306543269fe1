// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

type S3Client struct {
	C      *s3.Client
	Bucket *string
}

// Options describe how to reach a bucket. Endpoint is only set for S3
// compatible services, AWS itself is resolved from the region.
type Options struct {
	AccessKey       string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
	PathStyle       bool
}

// OptionsFromConfig reads the aws.* keys.
func OptionsFromConfig() Options {
	return Options{
		AccessKey:       viper.GetString("aws.access_key"),
		SecretAccessKey: viper.GetString("aws.secret_access_key"),
		Region:          viper.GetString("aws.region"),
		Bucket:          viper.GetString("aws.bucket"),
		Endpoint:        viper.GetString("aws.endpoint"),
		PathStyle:       viper.GetBool("aws.path_style"),
	}
}

// NewS3 creates a client and makes sure the bucket exists.
func NewS3(ctx context.Context, opts Options) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(opts.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = opts.Region
		o.UsePathStyle = opts.PathStyle

		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)

			// Most compatible services reject the newer default checksums
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", opts.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:      client,
		Bucket: bucket,
	}, nil
}
