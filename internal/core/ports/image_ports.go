package ports

import (
	"context"
	"io"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type ImageFilter struct {
	IDs       []string
	User      string
	Surveys   []string
	Questions []string
}

type ImageRepository interface {
	Get(ctx context.Context, filter ImageFilter, page domain.Page) ([]domain.Image, error)
	Insert(ctx context.Context, img domain.Image) (domain.Image, error)
	// Delete never removes protected images and returns the ones it removed.
	Delete(ctx context.Context, filter ImageFilter) ([]domain.Image, error)
}

type StoredFile struct {
	URL  string
	Hash string
}

// ImageStorage persists uploaded image bytes.
type ImageStorage interface {
	Save(ctx context.Context, name string, body io.Reader) (StoredFile, error)
	Remove(ctx context.Context, url string) error
}

type UploadImageInput struct {
	Name        string
	ContentType string
	Body        io.Reader
	Survey      *string
	Question    *string
	Tags        []string
}

type ListImagesInput struct {
	Survey string
	Page   domain.Page
}

type ImageService interface {
	UploadImage(ctx context.Context, p domain.Principal, input UploadImageInput) (domain.Image, error)
	Images(ctx context.Context, p domain.Principal, input ListImagesInput) ([]domain.Image, error)
	DeleteImage(ctx context.Context, p domain.Principal, id string) error
}
