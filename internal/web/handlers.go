package web

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

type handlers struct {
	provider search.Provider
}

func (h *handlers) contents(ctx *gin.Context) {
	var req search.ContentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, errors.Wrapf(search.ErrInvalidRequest, "bind request: %v", err))
		return
	}

	result, err := h.provider.Contents(ctx, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *handlers) tags(ctx *gin.Context) {
	var req search.TagsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, errors.Wrapf(search.ErrInvalidRequest, "bind request: %v", err))
		return
	}

	result, err := h.provider.Tags(ctx, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *handlers) related(ctx *gin.Context) {
	var req search.ContentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, errors.Wrapf(search.ErrInvalidRequest, "bind request: %v", err))
		return
	}

	result, err := h.provider.Related(ctx, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// abortWithError renders err as a rejection payload.
// Search API failures keep their translated status.
func abortWithError(ctx *gin.Context, err error) {
	logger := gmw.GetLogger(ctx)

	var cfgErr *nico.ConfigurationError
	switch {
	case errors.Is(err, search.ErrInvalidRequest):
		logger.Debug("invalid search request", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusBadRequest, nico.Rejection{
			Status:           http.StatusBadRequest,
			Message:          http.StatusText(http.StatusBadRequest),
			ErrorDescription: err.Error(),
		})
		return
	case errors.As(err, &cfgErr):
		logger.Debug("missing search credentials", zap.Strings("missing", cfgErr.Missing))
		ctx.AbortWithStatusJSON(http.StatusBadRequest, nico.Rejection{
			Status:           http.StatusBadRequest,
			Message:          http.StatusText(http.StatusBadRequest),
			ErrorDescription: cfgErr.Error(),
		})
		return
	}

	if rej, ok := nico.AsRejection(err); ok {
		logger.Warn("search request rejected", zap.Error(err), zap.Int("status", rej.Status))
		ctx.AbortWithStatusJSON(rej.Status, rej)
		return
	}

	logger.Error("search request failed", zap.Error(err))
	ctx.AbortWithStatusJSON(http.StatusInternalServerError, nico.Rejection{
		Status:           http.StatusInternalServerError,
		Message:          http.StatusText(http.StatusInternalServerError),
		ErrorDescription: "internal error",
	})
}
