package delivery

import (
	"net/http"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	useCase usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewProductHandler(uc usecase.CatalogUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/products/:id", h.GetProductByID)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id := c.Param("id")
	product, err := h.useCase.GetProductByID(c.Request.Context(), id)
	if err != nil {
		statusCode := mapErrorToStatus(err) // Will map "not found" to 404
		h.log.Warnf("Failed to get product by ID %s: %v", id, err)
		ErrorResponse(c, statusCode, "Failed to retrieve product: "+err.Error())
		return
	}

	h.log.Infof("Product retrieved successfully: ID %s", id)
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}
