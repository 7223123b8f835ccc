package reviews

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

// ReviewDTO is the review payload returned to clients.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar,omitempty"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	Likes      []string  `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(r *models.Review) *ReviewDTO {
	likes := r.Likes
	if likes == nil {
		likes = []string{}
	}
	return &ReviewDTO{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		UserAvatar: r.UserAvatar,
		Rating:     r.Rating,
		Text:       r.Text,
		Likes:      likes,
		CreatedAt:  r.CreatedAt,
	}
}

// CreateInput is a new review on a product.
type CreateInput struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required"`
}

// Service manages product reviews.
type Service interface {
	Create(ctx context.Context, productID, userID uuid.UUID, input CreateInput) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (types.PageEnvelope[ReviewDTO], error)
	ToggleLike(ctx context.Context, reviewID, userID uuid.UUID) (*ReviewDTO, error)
	Delete(ctx context.Context, reviewID, actorID uuid.UUID, actorRole enums.Role) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the reviews service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, productID, userID uuid.UUID, input CreateInput) (*ReviewDTO, error) {
	text := strings.TrimSpace(input.Text)
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review text is required")
	}

	var created *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.WithContext(ctx).Select("id", "approved").First(&product, "id = ?", productID).Error; err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if !product.Approved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		var author models.User
		if err := tx.WithContext(ctx).First(&author, "id = ?", userID).Error; err != nil {
			return notFoundOr(err, "user not found", "load user")
		}
		review := &models.Review{
			ProductID:  productID,
			UserID:     userID,
			UserName:   author.Name,
			UserAvatar: author.Avatar,
			Rating:     input.Rating,
			Text:       text,
			Likes:      []string{},
		}
		if err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			return pkgerrors.Persistence(err, "insert review")
		}
		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (types.PageEnvelope[ReviewDTO], error) {
	rows, next, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return types.PageEnvelope[ReviewDTO]{}, pkgerrors.Persistence(err, "list reviews")
	}
	items := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[ReviewDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) ToggleLike(ctx context.Context, reviewID, userID uuid.UUID) (*ReviewDTO, error) {
	var updated *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := repo.FindByID(ctx, reviewID)
		if err != nil {
			return notFoundOr(err, "review not found", "load review")
		}
		review.Likes, _ = types.ToggleLike(review.Likes, userID.String())
		if err := repo.SaveLikes(ctx, review); err != nil {
			return pkgerrors.Persistence(err, "save review likes")
		}
		updated = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *service) Delete(ctx context.Context, reviewID, actorID uuid.UUID, actorRole enums.Role) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return notFoundOr(err, "review not found", "load review")
	}
	if review.UserID != actorID && actorRole != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author can delete this review")
	}
	if _, err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Persistence(err, "delete review")
	}
	return nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Persistence(err, op)
}
