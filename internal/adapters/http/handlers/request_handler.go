package handlers

import (
	"errors"
	"strconv"
	"time"

	"sitegear-custody/internal/adapters/http/middleware"
	"sitegear-custody/internal/core/domain"
	"sitegear-custody/internal/core/services"
	"sitegear-custody/internal/pkg/pagination"
	"sitegear-custody/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequestHandler handles custody request endpoints
type RequestHandler struct {
	workflowService *services.WorkflowService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(workflowService *services.WorkflowService) *RequestHandler {
	return &RequestHandler{
		workflowService: workflowService,
	}
}

// workflowError maps domain failures onto HTTP statuses: malformed input is
// 400, unmet guards and violated rules are 422, lost version races are 409.
func workflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Request not found")
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, "Request was modified concurrently, please retry")
	case errors.Is(err, services.ErrAssetNotFound):
		return response.NotFound(c, "Asset not found")
	case errors.Is(err, services.ErrAssetInactive):
		return response.BadRequest(c, "Asset is not active")
	case domain.IsValidation(err):
		return response.BadRequest(c, err.Error())
	case domain.IsPrecondition(err), domain.IsBusinessRule(err):
		return response.UnprocessableEntity(c, err.Error())
	default:
		return response.InternalServerError(c, "Failed to process request")
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}

// CreateRequestBody represents create request body
type CreateRequestBody struct {
	Kind           string `json:"kind"`
	SiteCode       string `json:"site_code"`
	Purpose        string `json:"purpose,omitempty"`
	ExpectedReturn string `json:"expected_return"`
	Items          []struct {
		AssetID  uint `json:"asset_id"`
		Quantity int  `json:"quantity"`
	} `json:"items"`
}

// Create creates a new custody request
// @Summary Create custody request
// @Description Create a new borrow or maintenance request in DRAFT
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateRequestBody true "Request data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var req CreateRequestBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Kind == "" {
		return response.BadRequest(c, "Kind is required")
	}
	if req.SiteCode == "" {
		return response.BadRequest(c, "Site code is required")
	}
	expectedReturn, err := time.Parse("2006-01-02", req.ExpectedReturn)
	if err != nil {
		return response.BadRequest(c, "Expected return must be a YYYY-MM-DD date")
	}

	input := &services.CreateRequestInput{
		Kind:           domain.Kind(req.Kind),
		SiteCode:       req.SiteCode,
		Purpose:        req.Purpose,
		ExpectedReturn: expectedReturn,
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, services.CreateItemInput{AssetID: it.AssetID, Quantity: it.Quantity})
	}

	request, err := h.workflowService.Create(c.Context(), input, middleware.ActorFromContext(c))
	if err != nil {
		return workflowError(c, err)
	}

	return response.Created(c, "Request created successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// List lists custody requests
// @Summary List custody requests
// @Description List requests with optional filters
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param kind query string false "Filter by kind"
// @Param status query string false "Filter by status"
// @Param site_code query string false "Filter by site"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	input := &services.ListInput{
		Page:     params.Page,
		Limit:    params.Limit,
		Kind:     domain.Kind(c.Query("kind")),
		Status:   domain.Status(c.Query("status")),
		SiteCode: c.Query("site_code"),
	}
	if requesterID := c.Query("requester_id"); requesterID != "" {
		id, _ := strconv.ParseUint(requesterID, 10, 32)
		input.RequesterID = uint(id)
	}

	requests, total, err := h.workflowService.List(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list requests")
	}

	now := time.Now()
	result := make([]interface{}, 0, len(requests))
	for _, r := range requests {
		result = append(result, r.ToResponse(now))
	}

	return response.Success(c, "Requests retrieved successfully", pagination.NewResponse(result, params, total))
}

// GetByID gets a custody request by ID
// @Summary Get custody request
// @Description Get a request with its items; overdue is computed at read time
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/{id} [get]
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	request, err := h.workflowService.GetByID(c.Context(), id)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request retrieved successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// GetByRequestNo gets a custody request by its request number
// @Summary Get custody request by number
// @Description Look up a request by the human-facing request number
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param requestNo path string true "Request number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/no/{requestNo} [get]
func (h *RequestHandler) GetByRequestNo(c *fiber.Ctx) error {
	requestNo := c.Params("requestNo")
	if requestNo == "" {
		return response.BadRequest(c, "Request number is required")
	}

	request, err := h.workflowService.GetByRequestNo(c.Context(), requestNo)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request retrieved successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// GetHistory gets the audit trail of a request
// @Summary Get request history
// @Description Get the append-only transition history of a request
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/{id}/history [get]
func (h *RequestHandler) GetHistory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	notes, err := h.workflowService.GetHistory(c.Context(), id)
	if err != nil {
		return workflowError(c, err)
	}

	result := make([]interface{}, 0, len(notes))
	for _, n := range notes {
		result = append(result, n.ToResponse())
	}

	return response.Success(c, "History retrieved successfully", result)
}

// ListOverdue lists overdue requests
// @Summary List overdue requests
// @Description List active requests past their expected return date
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /requests/overdue [get]
func (h *RequestHandler) ListOverdue(c *fiber.Ctx) error {
	now := time.Now()
	requests, err := h.workflowService.ListOverdue(c.Context(), now)
	if err != nil {
		return response.InternalServerError(c, "Failed to list overdue requests")
	}

	result := make([]interface{}, 0, len(requests))
	for _, r := range requests {
		result = append(result, r.ToResponse(now))
	}

	return response.Success(c, "Overdue requests retrieved successfully", result)
}

// Submit submits a draft request
// @Summary Submit request
// @Description Submit a draft; basic requests auto-approve, critical ones enter verification
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/submit [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	request, err := h.workflowService.Submit(c.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request submitted successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// VerifyBody represents verify request body
type VerifyBody struct {
	Checklist map[string]bool `json:"checklist"`
	Note      string          `json:"note,omitempty"`
}

// Verify verifies a pending request
// @Summary Verify request
// @Description Record the verifier's checklist pass (Verifier only)
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body VerifyBody true "Checklist confirmation"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/verify [post]
func (h *RequestHandler) Verify(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req VerifyBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.workflowService.Verify(c.Context(), id, middleware.ActorFromContext(c), req.Checklist, req.Note)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request verified successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// ApproveBody represents approve request body
type ApproveBody struct {
	Checklist map[string]bool `json:"checklist,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// Approve approves a verified request
// @Summary Approve request
// @Description Record the authorizer's approval (Authorizer only)
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body ApproveBody false "Approval note"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req ApproveBody
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.workflowService.Approve(c.Context(), id, middleware.ActorFromContext(c), req.Checklist, req.Note)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request approved successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// ActivateBody represents activate request body
type ActivateBody struct {
	ConditionOut map[uint]string `json:"condition_out,omitempty"`
}

// Activate hands the equipment over
// @Summary Activate request
// @Description Record the handover with per-line condition notes (Warehouseman only)
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body ActivateBody false "Handover condition notes"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/activate [post]
func (h *RequestHandler) Activate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req ActivateBody
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.workflowService.Activate(c.Context(), id, middleware.ActorFromContext(c), req.ConditionOut)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request activated successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// ReturnBody represents return request body
type ReturnBody struct {
	SubmissionID string `json:"submission_id"`
	Note         string `json:"note,omitempty"`
	Lines        []struct {
		LineItemID  uint   `json:"line_item_id"`
		Quantity    int    `json:"quantity"`
		ConditionIn string `json:"condition_in,omitempty"`
	} `json:"lines"`
}

// Return records a (possibly partial) return
// @Summary Return equipment
// @Description Apply a return submission; replaying the same submission_id is a no-op
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body ReturnBody true "Return submission"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/return [post]
func (h *RequestHandler) Return(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req ReturnBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.ReturnInput{
		SubmissionID: req.SubmissionID,
		Note:         req.Note,
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, services.ReturnLineInput{
			LineItemID:  l.LineItemID,
			Quantity:    l.Quantity,
			ConditionIn: l.ConditionIn,
		})
	}

	result, err := h.workflowService.Return(c.Context(), id, middleware.ActorFromContext(c), input)
	if err != nil {
		return workflowError(c, err)
	}

	message := "Return recorded successfully"
	if result.Replayed {
		message = "Return already recorded"
	}

	return response.Success(c, message, fiber.Map{
		"request":  result.Request.ToResponse(time.Now()),
		"replayed": result.Replayed,
	})
}

// ExtendBody represents extend request body
type ExtendBody struct {
	NewDate string `json:"new_date"`
	Reason  string `json:"reason"`
}

// Extend extends the expected return date
// @Summary Extend request
// @Description Push the expected return date out, bounded by the extension policy
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body ExtendBody true "Extension data"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/extend [post]
func (h *RequestHandler) Extend(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req ExtendBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	newDate, err := time.Parse("2006-01-02", req.NewDate)
	if err != nil {
		return response.BadRequest(c, "New date must be a YYYY-MM-DD date")
	}

	request, err := h.workflowService.Extend(c.Context(), id, middleware.ActorFromContext(c), newDate, req.Reason)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request extended successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// CancelBody represents cancel request body
type CancelBody struct {
	Reason string `json:"reason"`
}

// Cancel cancels a request before activation
// @Summary Cancel request
// @Description Cancel a request that has not yet gone active
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body CancelBody true "Cancellation reason"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/cancel [post]
func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}

	var req CancelBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.workflowService.Cancel(c.Context(), id, middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Request canceled successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}

// CancelItem cancels one batch member
// @Summary Cancel batch member
// @Description Cancel one line of a batch before activation; the batch status is re-derived
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param lineId path int true "Line item ID"
// @Param body body CancelBody true "Cancellation reason"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /requests/{id}/items/{lineId}/cancel [post]
func (h *RequestHandler) CancelItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}
	lineID, err := strconv.ParseUint(c.Params("lineId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid line item ID")
	}

	var req CancelBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.workflowService.CancelItem(c.Context(), id, uint(lineID), middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Batch member canceled successfully", fiber.Map{
		"request": request.ToResponse(time.Now()),
	})
}
