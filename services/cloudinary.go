package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryService uploads review images and payment proofs.
type CloudinaryService struct {
	cld *cloudinary.Cloudinary
	now Clock
}

func NewCloudinaryService(cloudinaryURL string, now Clock) (*CloudinaryService, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{cld: cld, now: now}, nil
}

// UploadImage stores the file under the given folder and returns the
// upload result with its URLs.
func (cs *CloudinaryService) UploadImage(ctx context.Context, file multipart.File, folder string) (*uploader.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	useFilename := true
	uniqueFilename := true
	publicID := fmt.Sprintf("%s/%d", folder, cs.now().UnixNano())

	result, err := cs.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &useFilename,
		UniqueFilename: &uniqueFilename,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	return result, nil
}
