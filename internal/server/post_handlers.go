package server

import (
	"petconnect/internal/models"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of POST /api/posts.
type CreatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Visibility  string `json:"visibility"`
}

// UpdatePostRequest is a partial post update.
type UpdatePostRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Visibility  *string `json:"visibility"`
}

func postDTOs(posts []*models.Post) []models.PostDTO {
	out := make([]models.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.NewPostDTO(p))
	}
	return out
}

// CreatePost handles POST /api/posts
// @Summary Create a new post
// @Description Create a post; visibility defaults to PUBLIC
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "Post"
// @Success 201 {object} models.PostDTO
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewPostDTO(post))
}

// GetFeed handles GET /api/posts/feed
// @Summary Get the caller's feed
// @Description Own posts, PUBLIC posts and CONNECTIONS posts from accepted connections, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.PostDTO
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.Feed(ctx, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postDTOs(posts))
}

// GetMyPosts handles GET /api/posts/me
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.ListUserPosts(ctx, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(postDTOs(posts))
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostDTO
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.GetPost(ctx, currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewPostDTO(post))
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:      currentUserID(c),
		PostID:      postID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewPostDTO(post))
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.postService.DeletePost(ctx, currentUserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeResult
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.postService.ToggleLike(ctx, currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
