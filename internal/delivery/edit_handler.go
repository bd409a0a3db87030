package delivery

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxImageBytes = 10 << 20

type fieldUpdateRequest struct {
	Name  string      `json:"name" binding:"required"`
	Value interface{} `json:"value"`
}

type EditHandler struct {
	sessions *usecase.SessionRegistry
	useCase  usecase.ProductEditUseCase
	log      *logrus.Logger
}

func NewEditHandler(sessions *usecase.SessionRegistry, uc usecase.ProductEditUseCase, logger *logrus.Logger) *EditHandler {
	return &EditHandler{
		sessions: sessions,
		useCase:  uc,
		log:      logger,
	}
}

func (h *EditHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/products/:id/edit-sessions", h.OpenSession)

	sessions := router.Group("/edit-sessions/:sid")
	{
		sessions.GET("", h.GetSession)
		sessions.DELETE("", h.CloseSession)
		sessions.PATCH("/fields", h.UpdateField)
		sessions.PUT("/image", h.SetPrimaryImage)
		sessions.POST("/sub-images", h.AddSubImages)
		sessions.DELETE("/sub-images/:index", h.RemoveSubImage)
		sessions.POST("/submit", h.Submit)
		sessions.GET("/events", h.Events)
	}
}

type sessionView struct {
	SessionID string `json:"sessionId"`
	usecase.FormView
}

func viewOf(sess *usecase.EditSession) sessionView {
	return sessionView{SessionID: sess.ID, FormView: sess.Form.Snapshot()}
}

func (h *EditHandler) session(c *gin.Context) (*usecase.EditSession, bool) {
	sid := c.Param("sid")
	sess, ok := h.sessions.Get(sid)
	if !ok {
		h.log.Warnf("Edit session %s not found", sid)
		ErrorResponse(c, http.StatusNotFound, "Edit session not found")
		return nil, false
	}
	return sess, true
}

func (h *EditHandler) OpenSession(c *gin.Context) {
	productID := c.Param("id")
	sess, err := h.sessions.Open(productID)
	if err != nil {
		statusCode := mapErrorToStatus(err)
		h.log.Warnf("Failed to load product %s into session %s: %v", productID, sess.ID, err)
		ErrorResponseWithData(c, statusCode, sess.Form.Snapshot().Error, viewOf(sess))
		return
	}

	h.log.Infof("Edit session %s opened for product %s", sess.ID, productID)
	SuccessResponse(c, http.StatusCreated, "Edit session opened", viewOf(sess))
}

func (h *EditHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "Edit session retrieved", viewOf(sess))
}

func (h *EditHandler) CloseSession(c *gin.Context) {
	sid := c.Param("sid")
	if !h.sessions.Close(sid) {
		ErrorResponse(c, http.StatusNotFound, "Edit session not found")
		return
	}
	SuccessResponse(c, http.StatusOK, "Edit session closed", nil)
}

func (h *EditHandler) UpdateField(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req fieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for field update in session %s: %v", sess.ID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := sess.Form.UpdateField(req.Name, req.Value); err != nil {
		h.log.Warnf("Failed to update field %s in session %s: %v", req.Name, sess.ID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to update field: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Field updated", viewOf(sess))
}

func (h *EditHandler) SetPrimaryImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Image file is required")
		return
	}
	data, err := readUpload(file)
	if err != nil {
		h.log.Warnf("Failed to read image upload for session %s: %v", sess.ID, err)
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Form.AddPrimaryImage(data); err != nil {
		h.log.Warnf("Failed to set primary image in session %s: %v", sess.ID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to set image: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Image updated", viewOf(sess))
}

func (h *EditHandler) AddSubImages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	uploads := form.File["images"]
	if len(uploads) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "At least one image file is required")
		return
	}

	files := make([][]byte, 0, len(uploads))
	for _, upload := range uploads {
		data, err := readUpload(upload)
		if err != nil {
			h.log.Warnf("Failed to read sub-image %s for session %s: %v", upload.Filename, sess.ID, err)
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, data)
	}

	if err := sess.Form.AddSubImages(sess.Context(), files); err != nil {
		h.log.Warnf("Failed to add sub-images in session %s: %v", sess.ID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to add images: "+err.Error())
		return
	}
	h.log.Infof("Added %d sub-images in session %s", len(files), sess.ID)
	SuccessResponse(c, http.StatusOK, "Images added", viewOf(sess))
}

func (h *EditHandler) RemoveSubImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	indexStr := c.Param("index")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		h.log.Warnf("Invalid sub-image index parameter: %s", indexStr)
		ErrorResponse(c, http.StatusBadRequest, "Invalid image index format")
		return
	}
	sess.Form.RemoveSubImage(index)
	SuccessResponse(c, http.StatusOK, "Image removed", viewOf(sess))
}

func (h *EditHandler) Submit(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.useCase.Submit(sess.Context(), sess.Form); err != nil {
		statusCode := mapErrorToStatus(err)
		h.log.Warnf("Failed to save product %s from session %s: %v", sess.ProductID, sess.ID, err)
		ErrorResponseWithData(c, statusCode, err.Error(), viewOf(sess))
		return
	}

	view := viewOf(sess)
	h.log.Infof("Product %s saved from session %s", sess.ProductID, sess.ID)
	SuccessResponse(c, http.StatusOK, view.Success, view)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > maxImageBytes {
		return nil, errors.New("image file is too large")
	}
	f, err := file.Open()
	if err != nil {
		return nil, errors.New("failed to open image file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, errors.New("failed to read image file")
	}
	if len(data) > maxImageBytes {
		return nil, errors.New("image file is too large")
	}
	return data, nil
}
