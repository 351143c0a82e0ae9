package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxImageBytes = 5 * 1024 * 1024

type AssetService interface {
	UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]models.UploadedImage, error)
}

type assetService struct {
	cfg config.Config
}

func NewAssetService(cfg config.Config) AssetService {
	return &assetService{cfg: cfg}
}

func (s *assetService) r2Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.R2.AccessKey, s.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.R2.AccountID))
	}), nil
}

// UploadImages validates and stores post attachments. A post carries at most
// MaxPostImages images, each capped at 5MB, and only raster image formats
// are accepted.
func (s *assetService) UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]models.UploadedImage, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > models.MaxPostImages {
		return nil, fmt.Errorf("too many images: maximum is %d", models.MaxPostImages)
	}

	allowedTypes := map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
	}

	uploaded := make([]models.UploadedImage, 0, len(files))
	for _, file := range files {
		if file.Size > maxImageBytes {
			return nil, fmt.Errorf("image %s exceeds the 5MB size limit", file.Filename)
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return nil, fmt.Errorf("unsupported file type for %s", file.Filename)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		img, err := s.saveFile(ctx, file.Filename, fileType.MIME.Value, fileBytes)
		if err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}
		uploaded = append(uploaded, *img)
	}

	return uploaded, nil
}

func (s *assetService) saveFile(ctx context.Context, fileName, mimeType string, file []byte) (*models.UploadedImage, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client, err := s.r2Client(ctx)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.R2.BucketName),
		Key:         aws.String(id),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(mimeType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &models.UploadedImage{
		ID:       id,
		URL:      fmt.Sprintf("%s/%s", s.cfg.R2.PublicURL, id),
		FileName: fileName,
		FileType: mimeType,
		FileSize: int64(len(file)),
	}, nil
}
