package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/storage"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
)

// UploadImage streams an avatar, post or club image to object storage
// POST /api/v1/upload (multipart: file, userId, kind)
func (h *Handlers) UploadImage(c *gin.Context) {
	if h.uploader == nil {
		util.RespondWithAPIError(c, errors.ServiceUnavailable("storage"))
		return
	}

	userID, ok := actor(c, c.PostForm("userId"), "userId")
	if !ok {
		return
	}
	kind := c.DefaultPostForm("kind", "avatar")
	if !storage.IsValidKind(kind) {
		util.RespondWithAPIError(c, errors.ValidationError("kind", "kind must be avatar, post or club"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		util.RespondMissingField(c, "file")
		return
	}
	if file.Size > util.MaxImageUploadSize {
		util.RespondBadRequest(c, fmt.Sprintf("image must be under %dMB", util.MaxImageUploadSize>>20))
		return
	}
	if !util.IsValidImageFile(file.Filename) {
		util.RespondBadRequest(c, "only .jpg, .jpeg, .png, .webp and .gif files are supported")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read uploaded file")
		return
	}
	defer src.Close()

	res, err := h.uploader.UploadImage(c.Request.Context(), src, file.Size, file.Filename, userID, kind)
	switch {
	case stderrors.Is(err, storage.ErrUnsupportedKind), stderrors.Is(err, storage.ErrUnsupportedType):
		util.RespondBadRequest(c, err.Error())
		return
	case err != nil:
		logger.Log.Error("Image upload failed", logger.WithUserID(userID), zap.String("kind", kind), zap.Error(err))
		util.RespondInternalError(c, "upload failed")
		return
	}

	logger.Log.Info("Image uploaded",
		logger.WithUserID(userID),
		zap.String("kind", kind),
		zap.String("key", res.Key),
		zap.Int64("size", res.Size),
	)
	c.JSON(http.StatusCreated, dto.UploadResponse{URL: res.URL, Key: res.Key, Size: res.Size})
}
