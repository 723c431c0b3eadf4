package service

import (
	"context"
	"fmt"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/validation"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	defaultFeedLimit  = 20
	maxFeedLimit      = 100
)

type PostService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   *NotificationService
	isAdmin    func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	ImageURL    string
	Visibility  string
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       *string
	Description *string
	ImageURL    *string
	Visibility  *string
}

// LikeResult is the post's like state after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

func NewPostService(
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		isAdmin:    isAdmin,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseVisibility(raw string) (models.Visibility, error) {
	v, ok := models.ParseVisibility(raw)
	if !ok {
		return "", models.NewValidationError("Visibility must be PUBLIC or CONNECTIONS")
	}
	return v, nil
}

func validatePostFields(title, description, imageURL string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if tooLong(title, maxTitleLen) {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", maxTitleLen))
	}
	if tooLong(description, maxDescriptionLen) {
		return models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", maxDescriptionLen))
	}
	if err := validation.ValidateImageURL(imageURL); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	visibility, err := parseVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validatePostFields(in.Title, in.Description, in.ImageURL); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Visibility:  visibility,
		UserID:      in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	return s.postRepo.Feed(ctx, userID, limit, offset)
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, userID)
}

// GetPost enforces visibility: CONNECTIONS posts are only readable by the
// author and accepted connections.
func (s *PostService) GetPost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, userID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) checkVisible(ctx context.Context, userID uint, post *models.Post) error {
	if post.Visibility != models.VisibilityConnections || post.UserID == userID {
		return nil
	}
	connected, err := s.connected(ctx, userID, post.UserID)
	if err != nil {
		return err
	}
	if !connected {
		return models.NewForbiddenError("This post is only visible to connections")
	}
	return nil
}

func (s *PostService) connected(ctx context.Context, a, b uint) (bool, error) {
	edges, err := s.followRepo.EdgesBetween(ctx, a, []uint{b})
	if err != nil {
		return false, err
	}
	for _, e := range edges {
		if e.Status == models.FollowStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		post.Description = *in.Description
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.Visibility != nil {
		v, err := parseVisibility(*in.Visibility)
		if err != nil {
			return nil, err
		}
		post.Visibility = v
	}
	if err := validatePostFields(post.Title, post.Description, post.ImageURL); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, userID, post.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

// ToggleLike flips the caller's like. A new like on someone else's post
// notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, userID, post); err != nil {
		return nil, err
	}

	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if liked && post.UserID != userID {
		if actor, err := s.userRepo.GetByID(ctx, userID); err == nil {
			pid, sender := post.ID, userID
			s.notifier.Notify(ctx, NotifyInput{
				UserID:        post.UserID,
				Type:          models.NotificationLike,
				Message:       fmt.Sprintf("%s liked your post.", actor.FullName),
				RelatedPostID: &pid,
				SenderID:      &sender,
			})
		}
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}
