package api_router

import (
	"io"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	apperrors "github.com/haierkeys/onchain-diary-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// DraftHandler 草稿编辑 API 路由处理器
type DraftHandler struct {
	*Handler
}

// NewDraftHandler 创建 DraftHandler 实例
func NewDraftHandler(a *app.App) *DraftHandler {
	return &DraftHandler{Handler: NewHandler(a)}
}

// Get 当前草稿
// @Summary 当前草稿
// @Tags 草稿
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft [get]
func (h *DraftHandler) Get(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(h.App.ComposerService.View(address(c))))
}

// Content 设置内容，超过最大字数的部分被截断
// @Summary 设置内容
// @Tags 草稿
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.DraftContentRequest true "内容"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft/content [post]
func (h *DraftHandler) Content(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftContentRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("DraftHandler.Content", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}
	response.ToResponse(code.SuccessUpdate.WithData(h.App.ComposerService.SetContent(address(c), params.Content)))
}

// Mood 选择心情，同时清除已选图片
// @Summary 选择心情
// @Tags 草稿
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.DraftMoodRequest true "心情"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft/mood [post]
func (h *DraftHandler) Mood(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DraftMoodRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("DraftHandler.Mood", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	view, err := h.App.ComposerService.SelectMood(address(c), domain.Mood(params.Mood))
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.SuccessUpdate.WithData(view))
}

// Image 上传自定义图片（multipart 字段 image），同时清除已选心情
// @Summary 选择图片
// @Tags 草稿
// @Security UserAuthToken
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "图片"
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft/image [post]
func (h *DraftHandler) Image(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()
	maxSize := h.App.Config().GetImageMaxSize()

	fh, err := c.FormFile("image")
	if err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}
	if fh.Size > maxSize {
		response.ToResponse(code.ErrorImageTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.logError(ctx, "DraftHandler.Image.Open", err)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		h.logError(ctx, "DraftHandler.Image.Read", err)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	view, err := h.App.ComposerService.SelectImage(address(c), domain.DraftImage{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.SuccessUpdate.WithData(view))
}

// ClearImage 移除已选图片
// @Summary 移除图片
// @Tags 草稿
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft/image [delete]
func (h *DraftHandler) ClearImage(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.SuccessDelete.WithData(h.App.ComposerService.ClearImage(address(c))))
}

// DismissError 关闭错误提示
// @Summary 关闭错误提示
// @Tags 草稿
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.DraftDTO}
// @Router /api/diary/draft/dismiss [post]
func (h *DraftHandler) DismissError(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.SuccessUpdate.WithData(h.App.ComposerService.DismissError(address(c))))
}
