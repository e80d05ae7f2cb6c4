package handlers

import (
	"errors"
	"strconv"
	"strings"

	"sitegear-custody/internal/core/domain"
	"sitegear-custody/internal/core/services"
	"sitegear-custody/internal/pkg/pagination"
	"sitegear-custody/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssetHandler handles the equipment catalog endpoints
type AssetHandler struct {
	assetService *services.AssetService
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// CreateAsset handles asset creation (Warehouseman/Admin)
// @Summary Create asset
// @Description Register a piece of equipment in the catalog
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateAssetInput true "Asset data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /assets [post]
func (h *AssetHandler) CreateAsset(c *fiber.Ctx) error {
	var input services.CreateAssetInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input.AssetCode = strings.TrimSpace(input.AssetCode)
	if input.AssetCode == "" {
		return response.BadRequest(c, "Asset code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return response.BadRequest(c, "Asset name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return response.BadRequest(c, "Category is required")
	}
	if input.UnitValue < 0 {
		return response.BadRequest(c, "Unit value must not be negative")
	}
	if input.StockQty < 0 {
		return response.BadRequest(c, "Stock quantity must not be negative")
	}

	asset, err := h.assetService.Create(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrAssetCodeTaken) {
			return response.Conflict(c, "Asset code already exists")
		}
		return response.InternalServerError(c, "Failed to create asset")
	}

	return response.Created(c, "Asset created successfully", fiber.Map{
		"asset": asset.ToResponse(),
	})
}

// ListAssets handles listing assets
// @Summary List assets
// @Description List equipment, optionally filtered by category
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /assets [get]
func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	category := c.Query("category")

	assets, total, err := h.assetService.List(c.Context(), category, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list assets")
	}

	items := make([]interface{}, len(assets))
	for i, a := range assets {
		items[i] = a.ToResponse()
	}

	return response.Success(c, "Assets retrieved successfully", pagination.NewResponse(items, params, total))
}

// GetAsset handles getting an asset by ID
// @Summary Get asset
// @Description Get a piece of equipment by ID
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid asset ID")
	}

	asset, err := h.assetService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.InternalServerError(c, "Failed to get asset")
	}

	return response.Success(c, "Asset retrieved successfully", fiber.Map{
		"asset": asset.ToResponse(),
	})
}

// UpdateAsset handles updating an asset (Warehouseman/Admin)
// @Summary Update asset
// @Description Update catalog data. Existing requests keep their snapshots.
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Param body body services.UpdateAssetInput true "Update data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid asset ID")
	}

	var input services.UpdateAssetInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.UnitValue != nil && *input.UnitValue < 0 {
		return response.BadRequest(c, "Unit value must not be negative")
	}
	if input.StockQty != nil && *input.StockQty < 0 {
		return response.BadRequest(c, "Stock quantity must not be negative")
	}

	asset, err := h.assetService.Update(c.Context(), uint(id), &input)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.InternalServerError(c, "Failed to update asset")
	}

	return response.Success(c, "Asset updated successfully", fiber.Map{
		"asset": asset.ToResponse(),
	})
}

// DeleteAsset handles deleting an asset (Admin only)
// @Summary Delete asset
// @Description Soft delete a piece of equipment
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid asset ID")
	}

	if err := h.assetService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.InternalServerError(c, "Failed to delete asset")
	}

	return response.Success(c, "Asset deleted successfully", nil)
}
