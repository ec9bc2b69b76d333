package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config describes an S3-compatible bucket used for trade images.
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	// PublicURL is the base of the URLs handed back to the form. Defaults to
	// https://<bucket>.<endpoint host>.
	PublicURL string
	PathStyle bool
}

type ImageUploader struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

func NewImageUploader(cfg S3Config) (*ImageUploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("s3: bucket and region are required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		if host == "" {
			host = fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
		}
		publicURL = fmt.Sprintf("https://%s.%s", cfg.Bucket, host)
	}
	return &ImageUploader{client: s3.New(sess), bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Upload stores file under folder/fileName with public-read ACL and returns its URL.
func (u *ImageUploader) Upload(ctx context.Context, file []byte, fileName, folder string) (string, error) {
	key := path.Join(folder, path.Base(fileName))

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(http.DetectContentType(file)),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}

	return u.publicURL + "/" + key, nil
}
