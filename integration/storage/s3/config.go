package s3

// Config contains S3 connection settings. Static credentials are optional;
// without them the default AWS credential chain applies.
type Config struct {
	Bucket         string `env:"S3_BUCKET,required"`
	Region         string `env:"S3_REGION,required"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`                            // MinIO, Wasabi, Spaces
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"` // required by MinIO
	KeyPrefix      string `env:"S3_KEY_PREFIX" envDefault:"token-buckets/"`
}
