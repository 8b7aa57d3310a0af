package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
	"github.com/ayoub195/safisaana/internal/repository"
)

type CatalogHandler struct {
	repo   *repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogHandler(repo *repository.CatalogRepository, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   repo,
		logger: logger,
	}
}

// Products

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		ImageURL:    req.ImageURL,
		InStock:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if err := h.repo.CreateProduct(c.Request.Context(), product); err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.repo.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.repo.ListProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Currency = req.Currency
	existing.ImageURL = req.ImageURL
	if req.InStock != nil {
		existing.InStock = *req.InStock
	}
	existing.UpdatedAt = time.Now().UTC()

	if _, err := h.repo.UpdateProduct(c.Request.Context(), existing); err != nil {
		h.logger.Error("failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": existing})
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	ok, err := h.repo.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Courses

func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req models.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	course := &models.Course{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Instructor:  req.Instructor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.CreateCourse(c.Request.Context(), course); err != nil {
		h.logger.Error("failed to create course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.repo.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load course"})
		return
	}
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.repo.ListCourses(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list courses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req models.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load course"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Currency = req.Currency
	existing.Instructor = req.Instructor
	existing.UpdatedAt = time.Now().UTC()

	if _, err := h.repo.UpdateCourse(c.Request.Context(), existing); err != nil {
		h.logger.Error("failed to update course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": existing})
}

func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	ok, err := h.repo.DeleteCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to delete course", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Ebooks

func (h *CatalogHandler) CreateEbook(c *gin.Context) {
	var req models.EbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	ebook := &models.Ebook{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Author:      req.Author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.CreateEbook(c.Request.Context(), ebook); err != nil {
		h.logger.Error("failed to create ebook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ebook"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ebook": ebook})
}

func (h *CatalogHandler) GetEbook(c *gin.Context) {
	ebook, err := h.repo.GetEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ebook"})
		return
	}
	if ebook == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ebook not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ebook": ebook})
}

func (h *CatalogHandler) ListEbooks(c *gin.Context) {
	ebooks, err := h.repo.ListEbooks(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list ebooks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ebooks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ebooks": ebooks})
}

func (h *CatalogHandler) UpdateEbook(c *gin.Context) {
	var req models.EbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ebook"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ebook not found"})
		return
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Currency = req.Currency
	existing.Author = req.Author
	existing.UpdatedAt = time.Now().UTC()

	if _, err := h.repo.UpdateEbook(c.Request.Context(), existing); err != nil {
		h.logger.Error("failed to update ebook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ebook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ebook": existing})
}

func (h *CatalogHandler) DeleteEbook(c *gin.Context) {
	ok, err := h.repo.DeleteEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to delete ebook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ebook"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ebook not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
