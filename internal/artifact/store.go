// Package artifact persists finished documents durably: to S3 when a bucket
// is configured, otherwise to a local results directory. Stored payloads
// are the JSON-encoded document, optionally sealed with AES-GCM under a
// configured passphrase.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/extract"
)

// S3Store uploads encrypted document snapshots to S3.
type S3Store struct {
	uploader   *manager.Uploader
	bucket     string
	prefix     string
	passphrase string
}

// NewS3Store builds the store from config. Static credentials are used when
// configured; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.ArtifactConfig) (*S3Store, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.S3Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cli := s3.NewFromConfig(awsCfg)
	return &S3Store{
		uploader:   manager.NewUploader(cli),
		bucket:     cfg.S3Bucket,
		prefix:     cfg.S3Prefix,
		passphrase: cfg.EncPassphrase,
	}, nil
}

// Store uploads the document snapshot and returns its s3:// location.
func (s *S3Store) Store(ctx context.Context, sessionID string, doc *extract.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	contentType := "application/json"
	if s.passphrase != "" {
		if data, err = Encrypt(data, s.passphrase); err != nil {
			return "", err
		}
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s/%d.json", s.prefix, sessionID, time.Now().UnixMilli())
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"session":   sessionID,
			"encrypted": fmt.Sprintf("%t", s.passphrase != ""),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}

	// Tool-produced translated PDFs ride along when present.
	for _, p := range []string{doc.MonoPath, doc.DualPath} {
		if p == "" {
			continue
		}
		if err := s.uploadFile(ctx, sessionID, p); err != nil {
			log.Warn().Err(err).Str("file", p).Msg("artifact pdf upload failed")
		}
	}

	loc := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	log.Info().Str("session", sessionID).Str("location", loc).Int("bytes", len(data)).Msg("artifact stored")
	return loc, nil
}

func (s *S3Store) uploadFile(ctx context.Context, sessionID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	key := fmt.Sprintf("%s/%s/%s", s.prefix, sessionID, filepath.Base(path))
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// LocalStore writes document snapshots to a directory on disk. Used when no
// S3 bucket is configured.
type LocalStore struct {
	dir        string
	passphrase string
}

func NewLocalStore(cfg config.ArtifactConfig) *LocalStore {
	return &LocalStore{dir: cfg.LocalDir, passphrase: cfg.EncPassphrase}
}

func (l *LocalStore) Store(ctx context.Context, sessionID string, doc *extract.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if l.passphrase != "" {
		if data, err = Encrypt(data, l.passphrase); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	p := filepath.Join(l.dir, fmt.Sprintf("%s_%d.json", sessionID, time.Now().UnixMilli()))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return p, nil
}
