package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"annies-bakery/internal/model"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
)

// PostsPerPage is the blog page size.
const PostsPerPage = 10

// catalogService implements CatalogService.
type catalogService struct {
	productRepo repository.ProductRepository
	postRepo    repository.PostRepository
	loc         *time.Location
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCatalogService creates a catalog service. loc is used to read
// publish_at values that carry no offset.
func NewCatalogService(
	productRepo repository.ProductRepository,
	postRepo repository.PostRepository,
	loc *time.Location,
	logger zerolog.Logger,
) CatalogService {
	if loc == nil {
		loc = time.UTC
	}

	return &catalogService{
		productRepo: productRepo,
		postRepo:    postRepo,
		loc:         loc,
		now:         time.Now,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !p.Visible {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.Featured && !p.Featured {
			continue
		}
		out = append(out, p)
	}

	s.logger.Debug().
		Str("category", filter.Category).
		Bool("featured", filter.Featured).
		Int("count", len(out)).
		Msg("products listed")

	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Visible {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

// ListPosts returns one page of published posts, newest first. Pages are
// numbered from 1; a page past the end is empty.
func (s *catalogService) ListPosts(ctx context.Context, page int) (*model.PostPage, error) {
	if page < 1 {
		page = 1
	}

	posts, err := s.postRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]model.BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		}
	}

	sort.SliceStable(published, func(i, j int) bool {
		return s.postTime(published[i]).After(s.postTime(published[j]))
	})

	pages := (len(published) + PostsPerPage - 1) / PostsPerPage
	start := (page - 1) * PostsPerPage
	end := start + PostsPerPage
	if start > len(published) {
		start = len(published)
	}
	if end > len(published) {
		end = len(published)
	}

	return &model.PostPage{
		Posts: published[start:end],
		Page:  page,
		Pages: pages,
	}, nil
}

// postTime is the sort key of a post: publish_at when set, else created_at.
func (s *catalogService) postTime(p model.BlogPost) time.Time {
	if t, ok := model.ParsePublishAt(p.PublishAt, s.loc); ok {
		return t
	}
	t, _ := model.ParsePublishAt(p.CreatedAt, s.loc)
	return t
}

func (s *catalogService) GetPost(ctx context.Context, id string) (*model.BlogPost, error) {
	p, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Published {
		return nil, model.ErrPostNotFound
	}
	return p, nil
}

func (s *catalogService) AllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.GetAll(ctx)
}

// SaveProduct creates the product when it has no id and updates it otherwise.
func (s *catalogService) SaveProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product == nil || strings.TrimSpace(product.Title) == "" {
		return nil, model.InvalidInput("product title is required")
	}
	if product.Price < 0 {
		return nil, model.InvalidInput("product price cannot be negative")
	}

	now := s.now()
	p := *product
	p.Title = strings.TrimSpace(p.Title)
	if s.scheduled(p.PublishAt, now) {
		p.Visible = false
	}

	if p.ID == "" {
		p.ID = newID(model.ProductIDPrefix)
		p.CreatedAt = model.Timestamp(now)
		p.UpdatedAt = ""
		if err := s.productRepo.Create(ctx, &p); err != nil {
			return nil, err
		}
		s.logger.Info().Str("product_id", p.ID).Bool("visible", p.Visible).Msg("product created")
		return &p, nil
	}

	stamp := model.Timestamp(now)
	updated, err := s.productRepo.Modify(ctx, p.ID, func(existing *model.Product) bool {
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = stamp
		p.Extra = existing.Extra.Merge(p.Extra)
		*existing = p
		return true
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", p.ID).Bool("visible", p.Visible).Msg("product updated")
	return updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	ok, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrProductNotFound
	}
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *catalogService) AllPosts(ctx context.Context) ([]model.BlogPost, error) {
	return s.postRepo.GetAll(ctx)
}

// SavePost creates the post when it has no id and updates it otherwise.
func (s *catalogService) SavePost(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error) {
	if post == nil || strings.TrimSpace(post.Title) == "" {
		return nil, model.InvalidInput("post title is required")
	}

	now := s.now()
	p := *post
	p.Title = strings.TrimSpace(p.Title)
	if s.scheduled(p.PublishAt, now) {
		p.Published = false
	}

	if p.ID == "" {
		p.ID = newID(model.PostIDPrefix)
		p.CreatedAt = model.Timestamp(now)
		p.UpdatedAt = ""
		if err := s.postRepo.Create(ctx, &p); err != nil {
			return nil, err
		}
		s.logger.Info().Str("post_id", p.ID).Bool("published", p.Published).Msg("post created")
		return &p, nil
	}

	stamp := model.Timestamp(now)
	updated, err := s.postRepo.Modify(ctx, p.ID, func(existing *model.BlogPost) bool {
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = stamp
		p.Extra = existing.Extra.Merge(p.Extra)
		*existing = p
		return true
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrPostNotFound
	}

	s.logger.Info().Str("post_id", p.ID).Bool("published", p.Published).Msg("post updated")
	return updated, nil
}

func (s *catalogService) DeletePost(ctx context.Context, id string) error {
	ok, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPostNotFound
	}
	s.logger.Info().Str("post_id", id).Msg("post deleted")
	return nil
}

// scheduled reports whether publishAt names a time after now.
func (s *catalogService) scheduled(publishAt string, now time.Time) bool {
	t, ok := model.ParsePublishAt(publishAt, s.loc)
	return ok && t.After(now)
}
