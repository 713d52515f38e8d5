package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/mkucukkoc/fitcal-backend/logger"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoredImage is either a durable fetchable URL or an inline fallback with the
// base64 payload attached. Callers branch on Inline being non-empty.
type StoredImage struct {
	URL    string
	Inline string // base64 payload when object storage was unavailable
	Mime   string
}

// ImageService uploads meal photos to S3 and falls back to inlining the bytes
// when no bucket is configured or the client could not be built.
type ImageService struct {
	client *s3.Client
	bucket string
	cdnURL string
}

func NewImageService() *ImageService {
	svc := &ImageService{
		bucket: os.Getenv("S3_BUCKET"),
		cdnURL: os.Getenv("CLOUDFRONT_URL"),
	}
	if svc.bucket == "" {
		logger.Warn("S3_BUCKET not set, meal photos will be stored inline")
		return svc
	}

	region := os.Getenv("S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
	if err != nil {
		logger.Warn("unable to load AWS config, meal photos will be stored inline", zap.Error(err))
		return svc
	}
	svc.client = s3.NewFromConfig(cfg)
	return svc
}

// Store persists raw image bytes and returns where they ended up.
func (s *ImageService) Store(ctx context.Context, data []byte, mimeType string, userID uint) (*StoredImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if s.client == nil {
		return &StoredImage{
			Inline: base64.StdEncoding.EncodeToString(data),
			Mime:   mimeType,
		}, nil
	}

	key := fmt.Sprintf("meal-photos/%d/%s%s", userID, uuid.NewString(), extensionFor(mimeType))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		// the upload failing is not a reason to lose the photo
		logger.Error("S3 upload failed, storing image inline", zap.Error(err))
		return &StoredImage{
			Inline: base64.StdEncoding.EncodeToString(data),
			Mime:   mimeType,
		}, nil
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	if s.cdnURL != "" {
		url = fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cdnURL, "/"), key)
	}
	return &StoredImage{URL: url, Mime: mimeType}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
		return "." + parts[1]
	}
	return ".bin"
}

// DecodeDataURL splits a "data:<mime>;base64,<data>" payload into bytes.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	parts := strings.SplitN(dataURL, ",", 2)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "data:") {
		return nil, "", fmt.Errorf("invalid data URL")
	}
	meta := strings.TrimPrefix(parts[0], "data:")
	contentType := strings.SplitN(meta, ";", 2)[0]

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return data, contentType, nil
}
