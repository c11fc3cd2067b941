package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// BlobType selects the blob store backend.
type BlobType string

const (
	BlobTypeFS BlobType = "fs"
	BlobTypeS3 BlobType = "s3"
)

const (
	DefaultBlobType           = BlobTypeFS
	DefaultBlobDir            = "uploads/files"   // flat upload directory
	DefaultBlobCacheEnabled   = false             // groupcache read cache
	DefaultBlobCacheBytes     = 64 * 1024 * 1024  // 64MB
	DefaultBlobCacheItemBytes = 1024 * 1024       // blobs above 1MB bypass the cache
	DefaultBlobCacheName      = "filevault-blobs" // groupcache group name
	DefaultS3Endpoint         = "localhost:9000"
	DefaultS3AccessKeyID      = "minioadmin"
	DefaultS3SecretAccessKey  = "minioadmin"
	DefaultS3UseSSL           = false
	DefaultS3BucketName       = "filevault"
	DefaultS3Region           = "us-east-1"
)

// BlobConfig blob store settings.
type BlobConfig struct {
	Type  BlobType        `mapstructure:"type"  rule:"oneof=fs s3"`
	FS    FSBlobConfig    `mapstructure:"fs"`
	S3    S3Config        `mapstructure:"s3"`
	Cache BlobCacheConfig `mapstructure:"cache"`
}

// FSBlobConfig local filesystem backend.
type FSBlobConfig struct {
	Dir string `mapstructure:"dir" rule:"required"`
}

// S3Config MinIO / S3 compatible backend.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
}

// BlobCacheConfig in-process read cache for small blobs.
type BlobCacheConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Name         string `mapstructure:"name"`
	CacheBytes   int64  `mapstructure:"cache_bytes"    rule:"min=0"`
	MaxItemBytes int64  `mapstructure:"max_item_bytes" rule:"min=0"`
}

// GetEndpointURL returns the endpoint with its scheme.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

func (c *BlobConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("blob.type", DefaultBlobType)
	v.SetDefault("blob.fs.dir", DefaultBlobDir)

	v.SetDefault("blob.s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("blob.s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("blob.s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("blob.s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("blob.s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("blob.s3.region", DefaultS3Region)
	v.SetDefault("blob.s3.prefix", "")

	v.SetDefault("blob.cache.enabled", DefaultBlobCacheEnabled)
	v.SetDefault("blob.cache.name", DefaultBlobCacheName)
	v.SetDefault("blob.cache.cache_bytes", DefaultBlobCacheBytes)
	v.SetDefault("blob.cache.max_item_bytes", DefaultBlobCacheItemBytes)
}
