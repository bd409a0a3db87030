package delivery

import (
	"net/http"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	useCase usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewCategoryHandler(uc usecase.CatalogUseCase, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/categories", h.ListCategories)
}

// ListCategories returns the sub-categories a product can be filed under.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListSelectableCategories(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list categories: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}

	h.log.Infof("Retrieved %d categories", len(categories))
	if len(categories) == 0 {
		SuccessResponse(c, http.StatusOK, "No categories found", []domain.SelectableCategory{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}
