package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/internal/domain"
	"github.com/mrEvil84/BlueStorage/internal/usecase"
)

// amountParam accepts an amount sent either as a JSON number or a string.
// The raw text is passed on and parsed by the use case.
type amountParam string

func (a *amountParam) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a numeric string")
	}
	*a = amountParam(n.String())
	return nil
}

type productRequest struct {
	Name   string      `json:"name" form:"name"`
	Amount amountParam `json:"amount" form:"amount"`
}

type ProductHandler struct {
	useCase usecase.ProductUseCase
	queries domain.QueryFactory
	log     *logrus.Logger
}

func NewProductHandler(uc usecase.ProductUseCase, queries domain.QueryFactory, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		queries: queries,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/product")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.CreateProduct)
		products.PATCH("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, err := intQuery(c, "page", domain.DefaultPage)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	perPage, err := intQuery(c, "perPage", domain.DefaultPerPage)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	var minAmount *int
	if raw, ok := c.GetQuery("minAmount"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			handleError(c, h.log, domain.Validationf(domain.OpQuery, "minAmount must be an integer, got %q", raw))
			return
		}
		minAmount = &v
	}

	query, err := h.queries.Build(
		c.DefaultQuery("search", string(domain.SearchExisting)),
		c.DefaultQuery("order", string(domain.OrderDescending)),
		page,
		perPage,
		minAmount,
	)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	products, err := h.useCase.Search(c.Request.Context(), query)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	h.log.Debugf("Retrieved %d products", len(products))
	SuccessResponse(c, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c, domain.OpGet)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	product, err := h.useCase.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		handleError(c, h.log, domain.Validationf(domain.OpAdd, "invalid request body: %v", err))
		return
	}

	h.execute(c, domain.CreateProductCommand{
		Name:   req.Name,
		Amount: string(req.Amount),
	})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, domain.OpUpdate)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		handleError(c, h.log, domain.Validationf(domain.OpUpdate, "invalid request body: %v", err))
		return
	}

	h.execute(c, domain.UpdateProductCommand{
		ID:     id,
		Name:   req.Name,
		Amount: string(req.Amount),
	})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c, domain.OpDelete)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	h.execute(c, domain.DeleteProductCommand{ID: id})
}

func (h *ProductHandler) execute(c *gin.Context, cmd domain.Command) {
	status, err := h.useCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, status)
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validationf(domain.OpQuery, "%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func pathID(c *gin.Context, op domain.Op) (int64, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, domain.Validationf(op, "product id must be an integer, got %q", idStr)
	}
	return id, nil
}
