package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

type imageService struct {
	imageRepo ports.ImageRepository
	storage   ports.ImageStorage
	authz     *authz.Evaluator
}

func NewImageService(imageRepo ports.ImageRepository, storage ports.ImageStorage, evaluator *authz.Evaluator) ports.ImageService {
	return &imageService{
		imageRepo: imageRepo,
		storage:   storage,
		authz:     evaluator,
	}
}

func (s *imageService) UploadImage(ctx context.Context, p domain.Principal, input ports.UploadImageInput) (domain.Image, error) {
	if !p.IsAdmin() && !p.IsUser() {
		return domain.Image{}, domain.Unauthorized()
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return domain.Image{}, domain.Errorf(domain.ErrValidation, "Only images can be uploaded.")
	}
	if input.Survey != nil {
		if _, err := s.authz.Resolver().Survey(ctx, p, *input.Survey); err != nil {
			return domain.Image{}, err
		}
	}
	if input.Question != nil {
		if _, _, err := s.authz.Resolver().Question(ctx, p, *input.Question); err != nil {
			return domain.Image{}, err
		}
	}

	name := filepath.Base(input.Name)
	stored, err := s.storage.Save(ctx, name, input.Body)
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to store image: %w", err)
	}

	img, err := s.imageRepo.Insert(ctx, domain.Image{
		User:     p.ID,
		Survey:   input.Survey,
		Question: input.Question,
		Name:     name,
		Type:     input.ContentType,
		Hash:     stored.Hash,
		URL:      stored.URL,
		Tags:     input.Tags,
	})
	if err != nil {
		_ = s.storage.Remove(ctx, stored.URL)
		return domain.Image{}, err
	}
	return img, nil
}

func (s *imageService) Images(ctx context.Context, p domain.Principal, input ports.ListImagesInput) ([]domain.Image, error) {
	var filter ports.ImageFilter
	if input.Survey != "" {
		filter.Surveys = []string{input.Survey}
	}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		filter.User = p.ID
	default:
		return nil, domain.Unauthorized()
	}
	return s.imageRepo.Get(ctx, filter, input.Page)
}

// DeleteImage removes the image record. The stored file is removed by the
// cascade once the deletion is published.
func (s *imageService) DeleteImage(ctx context.Context, p domain.Principal, id string) error {
	images, err := s.imageRepo.Get(ctx, ports.ImageFilter{IDs: []string{id}}, domain.Page{})
	if err != nil {
		return err
	}
	if err := s.authz.Owns(p, images[0]); err != nil {
		return err
	}
	if images[0].IsProtected() {
		return domain.Errorf(domain.ErrValidation, "Default images can not be deleted.")
	}
	_, err = s.imageRepo.Delete(ctx, ports.ImageFilter{IDs: []string{id}})
	return err
}
