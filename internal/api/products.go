package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/gin-gonic/gin"
)

// ListProducts handles GET /products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.db.ListProducts(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	product, err := h.db.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(c *gin.Context) {
	var payload models.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if errs := payload.Validate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, errs)
		return
	}
	product, err := h.db.CreateProduct(c.Request.Context(), *payload.Name, *payload.Category)
	if err != nil {
		respondStoreError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PATCH/PUT /products/:id. Absent fields keep their
// prior value.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload models.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if payload.Name != nil && *payload.Name == "" {
		errs := models.FieldErrors{}
		errs.Add("name", models.ErrRequiredField)
		c.JSON(http.StatusBadRequest, errs)
		return
	}
	product, err := h.db.UpdateProduct(c.Request.Context(), id, payload)
	if err != nil {
		respondStoreError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteProduct(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadProductImage handles POST /products/:id/image
func (h *Handler) UploadProductImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := h.db.GetProduct(ctx, id); err != nil {
		respondStoreError(c, err, "Failed to fetch product")
		return
	}

	fileHeader, err := c.FormFile("productImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'productImage' form field"})
		return
	}
	if fileHeader.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	// Sniff the real content type from the first 512 bytes
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil && err != io.EOF {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file content"})
		return
	}
	file.Seek(0, 0)
	if !isValidImageType(http.DetectContentType(buffer)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only images are allowed"})
		return
	}

	// Try S3 first, fall back to local storage for development
	imageURL, err := uploadToS3(ctx, id, fileHeader, file)
	if err != nil {
		log.Printf("S3 upload failed, falling back to local storage: %v", err)
		imageURL, err = uploadToLocal(id, fileHeader, file)
		if err != nil {
			log.Printf("Local upload also failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
			return
		}
	}

	if err := h.db.SetProductImage(ctx, id, imageURL); err != nil {
		log.Printf("Failed to save image URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "File uploaded but failed to update product record"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image_url": imageURL})
}

func isValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// uploadToS3 puts the file under products/<id>/ and returns the CDN URL.
func uploadToS3(ctx context.Context, productID int64, fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	file.Seek(0, 0)

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "eu-central-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS default config: %w", err)
	}
	s3Client := s3.NewFromConfig(cfg)

	bucketName := os.Getenv("ASSETS_BUCKET")
	if bucketName == "" {
		bucketName = "cityscope-product-images"
	}
	objectKey := fmt.Sprintf("products/%d/%d%s", productID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))

	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucketName,
		Key:    &objectKey,
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	cdnBase := os.Getenv("ASSETS_CDN_BASE_URL")
	if cdnBase == "" {
		cdnBase = "https://assets.cityscope.city"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(cdnBase, "/"), objectKey), nil
}

// uploadToLocal stores the file under ./uploads for development.
func uploadToLocal(productID int64, fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	file.Seek(0, 0)

	uploadsDir := "./uploads/products"
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filename := fmt.Sprintf("%d_%d%s", productID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	filePath := filepath.Join(uploadsDir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	baseURL := os.Getenv("SERVICE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return fmt.Sprintf("%s/uploads/products/%s", baseURL, filename), nil
}
