// Package cloudflare provides a client for interacting with the Cloudflare API.
package cloudflare

import (
	a "bitwise74/file-catalog/aws"
	"context"
	"fmt"

	"github.com/spf13/viper"
)

// R2Endpoint returns the S3 compatible endpoint of an account.
func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2 creates an S3 client talking to R2 from the cloudflare.* keys.
func NewR2(ctx context.Context) (*a.S3Client, error) {
	return a.NewS3(ctx, a.Options{
		AccessKey:       viper.GetString("cloudflare.access_key_id"),
		SecretAccessKey: viper.GetString("cloudflare.secret_access_key"),
		Region:          "auto",
		Bucket:          viper.GetString("cloudflare.bucket"),
		Endpoint:        R2Endpoint(viper.GetString("cloudflare.account_id")),
	})
}
