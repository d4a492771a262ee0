// Package api provides HTTP handlers for the toolcast server REST API.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Handler holds dependencies for API handlers.
type Handler struct {
	catalog     *toolcast.CatalogService
	submissions *toolcast.SubmissionService
	reviews     *toolcast.ReviewService
	subscribers *toolcast.SubscriberManager
	bus         *toolcast.EventBus
	logger      toolcast.Logger
}

// NewHandler creates a new API handler. bus may be nil.
func NewHandler(
	catalog *toolcast.CatalogService,
	submissions *toolcast.SubmissionService,
	reviews *toolcast.ReviewService,
	subscribers *toolcast.SubscriberManager,
	bus *toolcast.EventBus,
	logger toolcast.Logger,
) *Handler {
	return &Handler{
		catalog:     catalog,
		submissions: submissions,
		reviews:     reviews,
		subscribers: subscribers,
		bus:         bus,
		logger:      logger,
	}
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(h.logger))
	h.Register(router)
	return router
}

// Register mounts the API under /api/v1.
func (h *Handler) Register(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.HandleHealth)

		items := v1.Group("/items")
		{
			items.POST("", h.HandleCreateItem)
			items.GET("", h.HandleListItems)
			items.GET("/:id", h.HandleGetItem)
			items.PATCH("/:id", h.HandleUpdateItem)
			items.PUT("/:id/status", h.HandleSetItemStatus)
			items.PUT("/:id/featured", h.HandleSetItemFeatured)
			items.DELETE("/:id", h.HandleDeleteItem)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.POST("", h.HandleSubmit)
			submissions.GET("", h.HandleListSubmissions)
			submissions.GET("/:id", h.HandleGetSubmission)
			submissions.PUT("/:id/status", h.HandleSetSubmissionStatus)
			submissions.DELETE("/:id", h.HandleDeleteSubmission)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.POST("", h.HandleAddReview)
			reviews.GET("", h.HandleListReviews)
			reviews.POST("/:id/helpful", h.HandleMarkHelpful)
			reviews.PUT("/:id/visibility", h.HandleSetReviewVisibility)
			reviews.POST("/:id/report", h.HandleReportReview)
			reviews.DELETE("/:id", h.HandleDeleteReview)
		}

		v1.POST("/subscribe", h.HandleSubscribe)
		v1.POST("/unsubscribe", h.HandleUnsubscribe)
		v1.GET("/subscribers/count", h.HandleCountSubscribers)
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// CreateItemRequest represents a catalog item creation request.
type CreateItemRequest struct {
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Link        string            `json:"link"`
	ImageURL    string            `json:"imageURL"`
	Pricing     model.PricingTier `json:"pricing"`
	Featured    bool              `json:"featured"`
}

// StatusRequest carries a new moderation status.
type StatusRequest struct {
	Status string `json:"status"`
}

// FlagRequest carries a boolean flag.
type FlagRequest struct {
	Value *bool `json:"value"`
}

// SubmitRequest represents a visitor submission.
type SubmitRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageURL"`
}

// ReviewRequest represents a new review.
type ReviewRequest struct {
	ToolID      string `json:"toolId"`
	ToolName    string `json:"toolName"`
	Rating      int    `json:"rating"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	Comment     string `json:"comment"`
}

// EmailRequest carries a subscriber address.
type EmailRequest struct {
	Email string `json:"email"`
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
	}
	if h.bus != nil {
		health["pendingEvents"] = h.bus.Pending()
		health["droppedEvents"] = h.bus.Dropped()
	}
	h.respondSuccess(c, http.StatusOK, health, "")
}

// HandleCreateItem handles POST /api/v1/items
func (h *Handler) HandleCreateItem(c *gin.Context) {
	var req CreateItemRequest
	if !h.bind(c, &req) {
		return
	}

	item := model.NewCatalogItem(req.Name, req.Category, req.Description, req.Link, req.Pricing)
	item.ImageURL = req.ImageURL
	item.Featured = req.Featured

	created, err := h.catalog.Create(c.Request.Context(), item)
	if err != nil {
		h.respondServiceError(c, err, "Failed to create item")
		return
	}
	h.respondSuccess(c, http.StatusCreated, created, "Item created successfully")
}

// HandleListItems handles GET /api/v1/items?status=&category=&featured=&page=&pageSize=
func (h *Handler) HandleListItems(c *gin.Context) {
	filter := model.CatalogFilter{
		Status:   model.ItemStatus(c.Query("status")),
		Category: c.Query("category"),
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "featured must be a boolean", toolcast.ErrCodeValidation)
			return
		}
		filter.Featured = &featured
	}

	result, err := h.catalog.List(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		h.respondServiceError(c, err, "Failed to list items")
		return
	}
	h.respondSuccess(c, http.StatusOK, result, "")
}

// HandleGetItem handles GET /api/v1/items/:id
func (h *Handler) HandleGetItem(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	item, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to load item")
		return
	}
	h.respondSuccess(c, http.StatusOK, item, "")
}

// HandleUpdateItem handles PATCH /api/v1/items/:id
func (h *Handler) HandleUpdateItem(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var update model.ItemUpdate
	if !h.bind(c, &update) {
		return
	}
	item, err := h.catalog.Update(c.Request.Context(), id, update)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update item")
		return
	}
	h.respondSuccess(c, http.StatusOK, item, "Item updated successfully")
}

// HandleSetItemStatus handles PUT /api/v1/items/:id/status
func (h *Handler) HandleSetItemStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.catalog.SetStatus(c.Request.Context(), id, model.ItemStatus(req.Status))
	if err != nil {
		h.respondServiceError(c, err, "Failed to change item status")
		return
	}
	h.respondSuccess(c, http.StatusOK, item, "")
}

// HandleSetItemFeatured handles PUT /api/v1/items/:id/featured
func (h *Handler) HandleSetItemFeatured(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req FlagRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Value == nil {
		h.respondError(c, http.StatusBadRequest, "value is required", toolcast.ErrCodeValidation)
		return
	}
	item, err := h.catalog.SetFeatured(c.Request.Context(), id, *req.Value)
	if err != nil {
		h.respondServiceError(c, err, "Failed to change featured flag")
		return
	}
	h.respondSuccess(c, http.StatusOK, item, "")
}

// HandleDeleteItem handles DELETE /api/v1/items/:id
func (h *Handler) HandleDeleteItem(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err, "Failed to delete item")
		return
	}
	h.respondSuccess(c, http.StatusOK, nil, "Item deleted")
}

// HandleSubmit handles POST /api/v1/submissions
func (h *Handler) HandleSubmit(c *gin.Context) {
	var req SubmitRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.submissions.Submit(c.Request.Context(),
		model.NewSubmission(req.Name, req.URL, req.Description, req.Category, req.ImageURL))
	if err != nil {
		h.respondServiceError(c, err, "Failed to create submission")
		return
	}
	h.respondSuccess(c, http.StatusCreated, sub, "Submission received")
}

// HandleListSubmissions handles GET /api/v1/submissions?status=&page=&pageSize=
func (h *Handler) HandleListSubmissions(c *gin.Context) {
	filter := model.SubmissionFilter{Status: model.SubmissionStatus(c.Query("status"))}
	result, err := h.submissions.List(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		h.respondServiceError(c, err, "Failed to list submissions")
		return
	}
	h.respondSuccess(c, http.StatusOK, result, "")
}

// HandleGetSubmission handles GET /api/v1/submissions/:id
func (h *Handler) HandleGetSubmission(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	sub, err := h.submissions.Get(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to load submission")
		return
	}
	h.respondSuccess(c, http.StatusOK, sub, "")
}

// HandleSetSubmissionStatus handles PUT /api/v1/submissions/:id/status
func (h *Handler) HandleSetSubmissionStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.submissions.SetStatus(c.Request.Context(), id, model.SubmissionStatus(req.Status))
	if err != nil {
		h.respondServiceError(c, err, "Failed to change submission status")
		return
	}
	h.respondSuccess(c, http.StatusOK, sub, "")
}

// HandleDeleteSubmission handles DELETE /api/v1/submissions/:id
func (h *Handler) HandleDeleteSubmission(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err, "Failed to delete submission")
		return
	}
	h.respondSuccess(c, http.StatusOK, nil, "Submission deleted")
}

// HandleAddReview handles POST /api/v1/reviews
func (h *Handler) HandleAddReview(c *gin.Context) {
	var req ReviewRequest
	if !h.bind(c, &req) {
		return
	}

	review := model.NewReview(req.ToolID, req.Rating, req.AuthorName, req.AuthorEmail, req.Comment)
	var (
		saved model.Review
		err   error
	)
	if req.ToolName != "" {
		saved, err = h.reviews.AddWithToolName(c.Request.Context(), review, req.ToolName)
	} else {
		saved, err = h.reviews.Add(c.Request.Context(), review)
	}
	if err != nil {
		h.respondServiceError(c, err, "Failed to add review")
		return
	}
	h.respondSuccess(c, http.StatusCreated, saved, "Review added")
}

// HandleListReviews handles GET /api/v1/reviews?toolId=&visible=&page=&pageSize=
func (h *Handler) HandleListReviews(c *gin.Context) {
	filter := model.ReviewFilter{ToolID: c.Query("toolId")}
	if raw := c.Query("visible"); raw != "" {
		visible, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, "visible must be a boolean", toolcast.ErrCodeValidation)
			return
		}
		filter.VisibleOnly = visible
	}

	result, err := h.reviews.List(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		h.respondServiceError(c, err, "Failed to list reviews")
		return
	}
	h.respondSuccess(c, http.StatusOK, result, "")
}

// HandleMarkHelpful handles POST /api/v1/reviews/:id/helpful
func (h *Handler) HandleMarkHelpful(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.reviews.MarkHelpful(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err, "Failed to mark review helpful")
		return
	}
	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to load review")
		return
	}
	h.respondSuccess(c, http.StatusOK, review, "")
}

// HandleSetReviewVisibility handles PUT /api/v1/reviews/:id/visibility
func (h *Handler) HandleSetReviewVisibility(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req FlagRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Value == nil {
		h.respondError(c, http.StatusBadRequest, "value is required", toolcast.ErrCodeValidation)
		return
	}
	review, err := h.reviews.SetVisibility(c.Request.Context(), id, *req.Value)
	if err != nil {
		h.respondServiceError(c, err, "Failed to change review visibility")
		return
	}
	h.respondSuccess(c, http.StatusOK, review, "")
}

// HandleReportReview handles POST /api/v1/reviews/:id/report
func (h *Handler) HandleReportReview(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	review, err := h.reviews.Report(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to report review")
		return
	}
	h.respondSuccess(c, http.StatusOK, review, "Review reported")
}

// HandleDeleteReview handles DELETE /api/v1/reviews/:id
func (h *Handler) HandleDeleteReview(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, err, "Failed to delete review")
		return
	}
	h.respondSuccess(c, http.StatusOK, nil, "Review deleted")
}

// HandleSubscribe handles POST /api/v1/subscribe
func (h *Handler) HandleSubscribe(c *gin.Context) {
	var req EmailRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.subscribers.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to subscribe")
		return
	}
	h.respondSuccess(c, http.StatusOK, sub, "Subscribed successfully")
}

// HandleUnsubscribe handles POST /api/v1/unsubscribe
func (h *Handler) HandleUnsubscribe(c *gin.Context) {
	var req EmailRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.subscribers.Unsubscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to unsubscribe")
		return
	}
	h.respondSuccess(c, http.StatusOK, sub, "Unsubscribed successfully")
}

// HandleCountSubscribers handles GET /api/v1/subscribers/count
func (h *Handler) HandleCountSubscribers(c *gin.Context) {
	n, err := h.subscribers.CountActive(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, "Failed to count subscribers")
		return
	}
	h.respondSuccess(c, http.StatusOK, gin.H{"active": n}, "")
}

// bind decodes the JSON body into dst and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// pathID parses the :id parameter and answers 400 on failure.
func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, http.StatusBadRequest, "Invalid ID", "INVALID_ID")
		return 0, false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) model.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	return model.Page{Number: number, Size: size}
}

// respondServiceError maps a toolcast error code to an HTTP status.
func (h *Handler) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case toolcast.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    toolcast.ErrCodeValidation,
			Message: message,
			Fields:  toolcast.FieldErrors(err),
		})
	case toolcast.IsNotFound(err):
		h.respondError(c, http.StatusNotFound, err.Error(), toolcast.ErrCodeNotFound)
	default:
		h.logger.Errorf("%s: %v", message, err)
		h.respondError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
	}
}

// respondError sends an error response.
func (h *Handler) respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{
		Error:   message,
		Code:    code,
		Message: message,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(logger toolcast.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger.Infof("%s %s", c.Request.Method, c.Request.URL.Path)
		c.Next()
		logger.Debugf("%s %s - %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
