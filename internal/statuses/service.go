package statuses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StatusDTO is a status post as returned to clients.
type StatusDTO struct {
	ID           uuid.UUID             `json:"id"`
	VendorID     uuid.UUID             `json:"vendor_id"`
	VendorName   string                `json:"vendor_name"`
	VendorAvatar string                `json:"vendor_avatar,omitempty"`
	Text         string                `json:"text,omitempty"`
	VideoURL     string                `json:"video_url,omitempty"`
	Likes        []string              `json:"likes"`
	Comments     []types.StatusComment `json:"comments"`
	CreatedAt    time.Time             `json:"created_at"`
}

func FromModel(p *models.StatusPost) *StatusDTO {
	dto := &StatusDTO{
		ID:           p.ID,
		VendorID:     p.VendorID,
		VendorName:   p.VendorName,
		VendorAvatar: p.VendorAvatar,
		Text:         p.Text,
		VideoURL:     p.VideoURL,
		Likes:        p.Likes,
		Comments:     p.Comments,
		CreatedAt:    p.CreatedAt,
	}
	if dto.Likes == nil {
		dto.Likes = []string{}
	}
	if dto.Comments == nil {
		dto.Comments = []types.StatusComment{}
	}
	return dto
}

// CreateInput is a new vendor post. At least one of text or video is needed.
type CreateInput struct {
	Text     string `json:"text"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
}

// CommentInput is a reply to a post.
type CommentInput struct {
	Text string `json:"text" validate:"required"`
}

// Service manages vendor status posts.
type Service interface {
	Create(ctx context.Context, vendorID uuid.UUID, input CreateInput) (*StatusDTO, error)
	List(ctx context.Context, params pagination.Params) (types.PageEnvelope[StatusDTO], error)
	ToggleLike(ctx context.Context, statusID, userID uuid.UUID) (*StatusDTO, error)
	Comment(ctx context.Context, statusID, userID uuid.UUID, input CommentInput) (*StatusDTO, error)
	Delete(ctx context.Context, statusID, actorID uuid.UUID, actorRole enums.Role) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds the statuses service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("statuses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Create(ctx context.Context, vendorID uuid.UUID, input CreateInput) (*StatusDTO, error) {
	text := strings.TrimSpace(input.Text)
	video := strings.TrimSpace(input.VideoURL)
	if text == "" && video == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a status needs text or a video")
	}

	var created *models.StatusPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var vendor models.User
		if err := tx.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
			return notFoundOr(err, "vendor not found", "load vendor")
		}
		if !vendor.IsApprovedVendor() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only approved vendors can post statuses")
		}
		post := &models.StatusPost{
			VendorID:     vendorID,
			VendorName:   vendor.DisplayShopName(),
			VendorAvatar: vendor.Avatar,
			Text:         text,
			VideoURL:     video,
			Likes:        []string{},
			Comments:     []types.StatusComment{},
		}
		if err := s.repo.WithTx(tx).Create(ctx, post); err != nil {
			return pkgerrors.Persistence(err, "insert status")
		}
		created = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (types.PageEnvelope[StatusDTO], error) {
	rows, next, err := s.repo.List(ctx, nil, params)
	if err != nil {
		return types.PageEnvelope[StatusDTO]{}, pkgerrors.Persistence(err, "list statuses")
	}
	items := make([]StatusDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[StatusDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) ToggleLike(ctx context.Context, statusID, userID uuid.UUID) (*StatusDTO, error) {
	return s.mutate(ctx, statusID, func(_ *gorm.DB, post *models.StatusPost) (string, error) {
		post.Likes, _ = types.ToggleLike(post.Likes, userID.String())
		return "likes", nil
	})
}

func (s *service) Comment(ctx context.Context, statusID, userID uuid.UUID, input CommentInput) (*StatusDTO, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text is required")
	}
	return s.mutate(ctx, statusID, func(tx *gorm.DB, post *models.StatusPost) (string, error) {
		var author models.User
		if err := tx.WithContext(ctx).Select("id", "name").First(&author, "id = ?", userID).Error; err != nil {
			return "", notFoundOr(err, "user not found", "load user")
		}
		post.Comments = append(post.Comments, types.StatusComment{
			ID:        uuid.New(),
			UserID:    userID,
			UserName:  author.Name,
			Text:      text,
			CreatedAt: s.now(),
		})
		return "comments", nil
	})
}

// mutate loads a post, applies fn and saves the column fn names, all inside
// one transaction.
func (s *service) mutate(ctx context.Context, statusID uuid.UUID, fn func(tx *gorm.DB, post *models.StatusPost) (string, error)) (*StatusDTO, error) {
	var updated *models.StatusPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		post, err := repo.FindByID(ctx, statusID)
		if err != nil {
			return notFoundOr(err, "status not found", "load status")
		}
		column, err := fn(tx, post)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, post, column); err != nil {
			return pkgerrors.Persistence(err, "save status")
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, statusID, actorID uuid.UUID, actorRole enums.Role) error {
	post, err := s.repo.FindByID(ctx, statusID)
	if err != nil {
		return notFoundOr(err, "status not found", "load status")
	}
	if post.VendorID != actorID && actorRole != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the vendor can delete this status")
	}
	if _, err := s.repo.Delete(ctx, statusID); err != nil {
		return pkgerrors.Persistence(err, "delete status")
	}
	return nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Persistence(err, op)
}
