package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"commerce-storefront/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type handlers struct {
	backend *Backend
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func pagingFrom(c *gin.Context, defaultSort string) Paging {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	if size <= 0 || size > 100 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	return Paging{
		Page:          page,
		Size:          size,
		SortBy:        c.DefaultQuery("sortBy", defaultSort),
		SortDirection: c.DefaultQuery("sortDirection", "asc"),
	}
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Mã định danh không hợp lệ")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, http.StatusBadRequest, "Dữ liệu gửi lên không hợp lệ")
		return false
	}
	return true
}

func (h *handlers) register(c *gin.Context) {
	var in RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.backend.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, sess, "Đăng ký thành công")
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.backend.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, sess, "Đăng nhập thành công")
}

func (h *handlers) me(c *gin.Context) {
	respond(c, http.StatusOK, currentUser(c), "")
}

func (h *handlers) listProducts(c *gin.Context) {
	q := ProductQuery{
		Keyword:    c.Query("keyword"),
		ActiveOnly: true,
		Paging:     pagingFrom(c, "id"),
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Danh mục không hợp lệ")
			return
		}
		q.CategoryID = &id
	}
	for param, dst := range map[string]**decimal.Decimal{"minPrice": &q.MinPrice, "maxPrice": &q.MaxPrice} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Khoảng giá không hợp lệ")
			return
		}
		*dst = &v
	}
	respond(c, http.StatusOK, h.backend.ListProducts(c.Request.Context(), q), "")
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.backend.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, p, "")
}

func (h *handlers) listCategories(c *gin.Context) {
	respond(c, http.StatusOK, h.backend.ListCategories(c.Request.Context()), "")
}

func (h *handlers) createProduct(c *gin.Context) {
	var in domain.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.backend.CreateProduct(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, p, "Tạo sản phẩm thành công")
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in domain.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.backend.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, p, "Cập nhật sản phẩm thành công")
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Xóa sản phẩm thành công")
}

func (h *handlers) getCart(c *gin.Context) {
	respond(c, http.StatusOK, h.backend.GetCart(c.Request.Context(), currentUser(c).ID), "")
}

func (h *handlers) addCartItem(c *gin.Context) {
	var in addItemRequest
	if !bindJSON(c, &in) {
		return
	}
	snap, err := h.backend.AddCartItem(c.Request.Context(), currentUser(c).ID, in.ProductID, in.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, snap, "Đã thêm vào giỏ hàng")
}

func (h *handlers) updateCartItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in updateItemRequest
	if !bindJSON(c, &in) {
		return
	}
	snap, err := h.backend.UpdateCartItem(c.Request.Context(), currentUser(c).ID, id, in.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, snap, "Đã cập nhật giỏ hàng")
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	snap, err := h.backend.RemoveCartItem(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, snap, "Đã xóa khỏi giỏ hàng")
}

func (h *handlers) clearCart(c *gin.Context) {
	respond(c, http.StatusOK, h.backend.ClearCart(c.Request.Context(), currentUser(c).ID), "Đã xóa giỏ hàng")
}

func (h *handlers) listOrders(scopeToUser bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := OrderQuery{
			Status: domain.OrderStatus(strings.ToUpper(c.Query("status"))),
			Paging: pagingFrom(c, "createdAt"),
		}
		if q.Status != "" && !q.Status.Valid() {
			respondError(c, http.StatusBadRequest, "Trạng thái không hợp lệ")
			return
		}
		if scopeToUser {
			id := currentUser(c).ID
			q.UserID = &id
		}
		respond(c, http.StatusOK, h.backend.ListOrders(c.Request.Context(), q), "")
	}
}

func (h *handlers) getOrder(scopeToUser bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var owner *int64
		if scopeToUser {
			uid := currentUser(c).ID
			owner = &uid
		}
		o, err := h.backend.GetOrder(c.Request.Context(), owner, id)
		if err != nil {
			writeError(c, err)
			return
		}
		respond(c, http.StatusOK, o, "")
	}
}

func (h *handlers) createOrder(c *gin.Context) {
	var in domain.CreateOrderRequest
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.backend.CreateOrder(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, o, "Đặt hàng thành công")
}

func (h *handlers) cancelOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.backend.CancelOrder(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o, "Đã hủy đơn hàng")
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in domain.UpdateOrderStatusRequest
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.backend.UpdateOrderStatus(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o, "Cập nhật trạng thái thành công")
}

func (h *handlers) validateDiscount(c *gin.Context) {
	var in domain.ValidateDiscountRequest
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.Code) == "" {
		respondError(c, http.StatusBadRequest, "Vui lòng nhập mã giảm giá")
		return
	}
	respond(c, http.StatusOK, h.backend.ValidateDiscount(c.Request.Context(), in), "")
}

func (h *handlers) listDiscounts(c *gin.Context) {
	q := DiscountQuery{Code: c.Query("code"), Paging: pagingFrom(c, "createdAt")}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Tham số active không hợp lệ")
			return
		}
		q.Active = &active
	}
	respond(c, http.StatusOK, h.backend.ListDiscounts(c.Request.Context(), q), "")
}

func (h *handlers) getDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.backend.GetDiscount(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, d, "")
}

func (h *handlers) createDiscount(c *gin.Context) {
	var in domain.DiscountInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.backend.CreateDiscount(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, d, "Tạo mã giảm giá thành công")
}

func (h *handlers) updateDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in domain.DiscountInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.backend.UpdateDiscount(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, d, "Cập nhật mã giảm giá thành công")
}

func (h *handlers) deleteDiscount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteDiscount(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Xóa mã giảm giá thành công")
}
