package server

import (
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments on a post
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {array} models.CommentDTO
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := s.commentService.ListComments(ctx, currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]models.CommentDTO, 0, len(comments))
	for _, cm := range comments {
		out = append(out, models.NewCommentDTO(cm))
	}
	return c.JSON(out)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.CommentDTO
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:  currentUserID(c),
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewCommentDTO(comment))
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := s.commentService.UpdateComment(ctx, service.UpdateCommentInput{
		UserID:    currentUserID(c),
		PostID:    postID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewCommentDTO(comment))
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		UserID:    currentUserID(c),
		PostID:    postID,
		CommentID: commentID,
	}); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
