package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"syncsns/domain/dto"
	"syncsns/domain/model"
	"syncsns/infrastructure/logger"
	"syncsns/usecase"
)

type IPostHandler interface {
	CreatePost(c *gin.Context)
	GetPost(c *gin.Context)
	ListPosts(c *gin.Context)
	Publish(c *gin.Context)
}

type PostHandler struct {
	postUsecase    usecase.IPostUsecase
	publishUsecase usecase.IPublishUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase, publishUsecase usecase.IPublishUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase, publishUsecase: publishUsecase}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postUsecase.CreatePost(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		if pe, ok := err.(*model.PlatformError); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": pe.Code, "message": pe.Message})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	post, err := h.postUsecase.GetPost(c.Request.Context(), postID, c.GetString("user_id"))
	if err != nil {
		if err == usecase.ErrPostNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		logger.GetLogger().WithField("error", err).Error("get post failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.postUsecase.ListPosts(c.Request.Context(), c.GetString("user_id"), c.Query("status"), page, limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("list posts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Publish runs the fan-out for a post and reports per-platform results.
// A post with nothing left to attempt returns 409 so clients can tell a
// no-op from a real publish.
func (h *PostHandler) Publish(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	outcome, err := h.publishUsecase.Publish(c.Request.Context(), postID, c.GetString("user_id"))
	if err != nil {
		switch err {
		case usecase.ErrNothingToPublish:
			c.JSON(http.StatusConflict, gin.H{"error": "nothing_to_publish"})
		case usecase.ErrPostNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		default:
			logger.GetLogger().WithField("error", err).Error("publish failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
		}
		return
	}

	results := make([]dto.PublishResultDTO, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		d := dto.PublishResultDTO{
			Platform:       r.Platform,
			Success:        r.Success,
			PlatformPostID: r.PlatformPostID,
		}
		if r.Error != nil {
			d.Error = r.Error.Error()
		}
		results = append(results, d)
	}
	c.JSON(http.StatusOK, dto.PublishResponse{
		PostID:         outcome.PostID,
		PublishResults: results,
		AllPublished:   outcome.AllPublished,
		AnyPublished:   outcome.AnyPublished,
	})
}
