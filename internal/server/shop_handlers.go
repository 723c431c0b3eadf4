package server

import (
	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CategoryRequest is the body for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	ImageURL    string  `json:"imageUrl"`
	CategoryID  uint    `json:"categoryId"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
	}
}

// CartItemRequest is the body for adding to or updating the cart.
type CartItemRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// CheckoutRequest is the optional body of POST /api/orders/checkout.
type CheckoutRequest struct {
	TransactionID *string `json:"transactionId"`
}

// ListCategories handles GET /api/categories
// @Summary List shop categories
// @Tags shop
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	categories, err := s.catalogService.ListCategories(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/categories/:id
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := s.catalogService.GetCategory(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/categories
// @Summary Create a category
// @Tags shop
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 403 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := s.catalogService.CreateCategory(ctx, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := s.catalogService.UpdateCategory(ctx, id, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete a category
// @Description Fails with 409 while products still reference the category
// @Tags shop
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} object{message=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.catalogService.DeleteCategory(ctx, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}

// ListProducts handles GET /api/products
// @Summary List products
// @Tags shop
// @Produce json
// @Param categoryId query int false "Category filter"
// @Param q query string false "Name search"
// @Success 200 {array} models.ProductDTO
// @Router /products [get]
func (s *Server) ListProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{Query: c.Query("q")}
	if id := c.QueryInt("categoryId", 0); id > 0 {
		filter.CategoryID = uint(id)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := s.catalogService.ListProducts(ctx, filter)
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]models.ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, models.NewProductDTO(&products[i]))
	}
	return c.JSON(out)
}

// GetProduct handles GET /api/products/:id
func (s *Server) GetProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := s.catalogService.GetProduct(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewProductDTO(product))
}

// CreateProduct handles POST /api/products
// @Summary Create a product
// @Tags shop
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} models.ProductDTO
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := s.catalogService.CreateProduct(ctx, req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewProductDTO(product))
}

// UpdateProduct handles PUT /api/products/:id
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ProductRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := s.catalogService.UpdateProduct(ctx, id, req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewProductDTO(product))
}

// DeleteProduct handles DELETE /api/products/:id
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.catalogService.DeleteProduct(ctx, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// GetCart handles GET /api/cart
// @Summary Get the caller's cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CartDTO
// @Router /cart [get]
func (s *Server) GetCart(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := s.cartService.GetCart(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// AddToCart handles POST /api/cart
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CartItemRequest true "Line"
// @Success 200 {object} models.CartDTO
// @Failure 409 {object} models.ErrorResponse
// @Router /cart [post]
func (s *Server) AddToCart(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ProductID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Product ID is required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := s.cartService.AddItem(ctx, currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// UpdateCartItem handles PUT /api/cart/:cartItemId
func (s *Server) UpdateCartItem(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "cartItemId")
	if err != nil {
		return nil
	}
	var req CartItemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cart, err := s.cartService.UpdateItem(ctx, currentUserID(c), itemID, req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// RemoveCartItem handles DELETE /api/cart/:cartItemId
func (s *Server) RemoveCartItem(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "cartItemId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.cartService.RemoveItem(ctx, currentUserID(c), itemID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart"})
}

// ClearCart handles DELETE /api/cart
func (s *Server) ClearCart(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.cartService.Clear(ctx, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}

func orderDTOs(orders []models.Order) []models.OrderDTO {
	out := make([]models.OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, models.NewOrderDTO(&orders[i]))
	}
	return out
}

// Checkout handles POST /api/orders/checkout
// @Summary Check out the cart
// @Description Converts the cart into an order, decrementing stock atomically
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest false "Payment reference"
// @Success 201 {object} models.OrderDTO
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/checkout [post]
func (s *Server) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := s.orderService.Checkout(ctx, currentUserID(c), optionalString(req.TransactionID))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewOrderDTO(order))
}

// GetMyOrders handles GET /api/orders/me
func (s *Server) GetMyOrders(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := s.orderService.ListUserOrders(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(orderDTOs(orders))
}

// GetOrder handles GET /api/orders/:id
func (s *Server) GetOrder(c *fiber.Ctx) error {
	orderID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := s.orderService.GetOrder(ctx, currentUserID(c), orderID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.NewOrderDTO(order))
}
