package server

import (
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PresignRequest is the body of POST /api/uploads/presign.
type PresignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

// PresignUpload handles POST /api/uploads/presign
// @Summary Presigned image upload
// @Description Returns a PUT URL valid for 15 minutes and the public URL the object will have
// @Tags uploads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PresignRequest true "Object"
// @Success 200 {object} service.PresignedUpload
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /uploads/presign [post]
func (s *Server) PresignUpload(c *fiber.Ctx) error {
	var req PresignRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	upload, err := s.uploadService.Presign(ctx, service.PresignInput{
		UserID:      currentUserID(c),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Folder:      req.Folder,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(upload)
}
