package service

import (
	"context"
	"fmt"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/repository"
)

const maxCommentLen = 2000

type CommentService struct {
	commentRepo repository.CommentRepository
	posts       *PostService
	userRepo    repository.UserRepository
	notifier    *NotificationService
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	posts *PostService,
	userRepo repository.UserRepository,
	notifier *NotificationService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		posts:       posts,
		userRepo:    userRepo,
		notifier:    notifier,
		isAdmin:     isAdmin,
	}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	if tooLong(content, maxCommentLen) {
		return "", models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", maxCommentLen))
	}
	return content, nil
}

func (s *CommentService) ListComments(ctx context.Context, userID, postID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

// CreateComment adds a comment and notifies the post author unless they wrote it.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.posts.GetPost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		PostID:  in.PostID,
		UserID:  in.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		name := ""
		if comment.User != nil {
			name = comment.User.FullName
		} else if actor, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
			name = actor.FullName
		}
		pid, sender := post.ID, in.UserID
		s.notifier.Notify(ctx, NotifyInput{
			UserID:        post.UserID,
			Type:          models.NotificationComment,
			Message:       fmt.Sprintf("%s commented on your post.", name),
			RelatedPostID: &pid,
			SenderID:      &sender,
		})
	}
	return comment, nil
}

func (s *CommentService) loadForPost(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.loadForPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment is allowed for the comment author, the post author and admins.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.loadForPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return err
	}
	if comment.UserID != in.UserID {
		post, err := s.posts.postRepo.GetByID(ctx, in.PostID, 0)
		if err != nil {
			return err
		}
		if err := ownerOrAdmin(ctx, s.isAdmin, in.UserID, post.UserID, "You can only delete your own comments"); err != nil {
			return err
		}
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}
