package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/guildstats/guildstats/pkg/config"
	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
)

// objectPutter is the slice of the S3 API the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies rotated backup files into an S3 bucket.
type Uploader struct {
	client  objectPutter
	bucket  string
	prefix  string
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewUploader creates an uploader from the backup configuration. Static
// credentials are used when configured (MinIO or explicit keys); otherwise
// the default AWS credential chain applies.
func NewUploader(ctx context.Context, cfg config.BackupConfig, log *observability.Logger, metrics *observability.Metrics) (*Uploader, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey, cfg.SecretKey, "",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		log:     log,
		metrics: metrics,
	}, nil
}

// UploadBackup streams the backup file at localPath to the bucket and
// returns the object key. Keys carry a timestamp and a random suffix so
// repeated resets of the same guild never overwrite each other.
func (u *Uploader) UploadBackup(ctx context.Context, guildID platform.GuildID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		u.metrics.BackupUploadsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to open backup file %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(u.prefix, fmt.Sprintf("%d", guildID),
		fmt.Sprintf("%s-%s.db.bak", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8]))

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		u.metrics.BackupUploadsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to upload backup for guild %d: %w", guildID, err)
	}

	u.metrics.BackupUploadsTotal.WithLabelValues("success").Inc()
	u.log.WithGuild(int64(guildID)).WithField("key", key).Info("backup uploaded")
	return key, nil
}
