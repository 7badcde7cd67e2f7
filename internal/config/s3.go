package config

// S3Config describes the object store that receives product images and
// avatars.  Any S3-compatible endpoint works; Endpoint is set for MinIO and
// left empty for AWS.  Storage is disabled when Bucket is empty.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // prefix used to build public object URLs
}

// LoadS3Config reads the S3_* variables.
func LoadS3Config() S3Config {
	return S3Config{
		Bucket:        envStr("S3_BUCKET", ""),
		Region:        envStr("S3_REGION", "us-east-1"),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		AccessKey:     envStr("S3_ACCESS_KEY", ""),
		SecretKey:     envStr("S3_SECRET_KEY", ""),
		PublicBaseURL: envStr("S3_PUBLIC_BASE_URL", ""),
	}
}

// Enabled reports whether enough is configured to talk to a bucket.
func (c S3Config) Enabled() bool { return c.Bucket != "" }
