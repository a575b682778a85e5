// Package archive stores generated documents and signature images in
// Cloudinary and returns stable download URLs.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// ErrUnsupportedImage indicates the payload is not a supported image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

// Config contains credentials required to talk to the artifact store.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Store uploads artifacts to Cloudinary.
type Store struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs an artifact store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive client: %w", err)
	}

	return &Store{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "archive").Logger(),
	}, nil
}

// Put uploads the artifact and returns its secure URL.
func (s *Store) Put(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")
	publicID := buildPublicID(name)

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("artifact archived")

	return result.SecureURL, nil
}

// PutImage sniffs the payload and uploads it when it is a supported image
// type. Used for signature artifacts.
func (s *Store) PutImage(ctx context.Context, name string, data []byte) (string, string, error) {
	mime := mimetype.Detect(data)
	switch mime.String() {
	case "image/png", "image/jpeg":
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	url, err := s.Put(ctx, name+mime.Extension(), bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}

	return url, mime.String(), nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("artifact-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
