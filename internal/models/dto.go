package models

import "time"

// UserSummary is the public view of a user.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	ImageURL string `json:"imageUrl"`
	Bio      string `json:"bio"`
}

func NewUserSummary(u *User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, ImageURL: u.ImageURL, Bio: u.Bio}
}

// UserSearchResult is a user hit annotated with the caller's connection status.
type UserSearchResult struct {
	UserSummary
	Email        string           `json:"email"`
	FollowStatus ConnectionStatus `json:"followStatus"`
}

// NearbyUser is a nearby-users hit. Distance is road-adjusted km.
type NearbyUser struct {
	ID       uint    `json:"id"`
	FullName string  `json:"fullName"`
	ImageURL string  `json:"imageUrl"`
	Distance float64 `json:"distance"`
}

// PendingRequest is an incoming follow request.
type PendingRequest struct {
	FollowID  uint        `json:"followId"`
	From      UserSummary `json:"from"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PetDTO is the response shape for a pet.
type PetDTO struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Breed     string `json:"breed"`
	Type      string `json:"type"`
	Age       int    `json:"age"`
	ImageURL  string `json:"imageUrl"`
	UserID    uint   `json:"userId"`
	OwnerName string `json:"ownerName"`
}

func NewPetDTO(p *Pet) PetDTO {
	dto := PetDTO{
		ID:       p.ID,
		Name:     p.Name,
		Breed:    p.Breed,
		Type:     p.Species,
		Age:      p.Age,
		ImageURL: p.ImageURL,
		UserID:   p.UserID,
	}
	if p.User != nil {
		dto.OwnerName = p.User.FullName
	}
	return dto
}

// PostDTO is the response shape for a feed post.
type PostDTO struct {
	PostID              uint       `json:"postId"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	ImageURL            string     `json:"imageUrl"`
	Visibility          Visibility `json:"visibility"`
	CreatedAt           time.Time  `json:"createdAt"`
	UserID              uint       `json:"userId"`
	UserFullName        string     `json:"userFullName"`
	UserProfileImageURL string     `json:"userProfileImageUrl"`
	LikesCount          int        `json:"likesCount"`
	CommentsCount       int        `json:"commentsCount"`
	LikedByMe           bool       `json:"likedByMe"`
}

func NewPostDTO(p *Post) PostDTO {
	dto := PostDTO{
		PostID:        p.ID,
		Title:         p.Title,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Visibility:    p.Visibility,
		CreatedAt:     p.CreatedAt,
		UserID:        p.UserID,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		LikedByMe:     p.LikedByMe,
	}
	if p.User != nil {
		dto.UserFullName = p.User.FullName
		dto.UserProfileImageURL = p.User.ImageURL
	}
	return dto
}

// CommentDTO is the response shape for a comment.
type CommentDTO struct {
	ID           uint      `json:"id"`
	Content      string    `json:"content"`
	PostID       uint      `json:"postId"`
	UserID       uint      `json:"userId"`
	UserFullName string    `json:"userFullName"`
	UserImageURL string    `json:"userImageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewCommentDTO(c *Comment) CommentDTO {
	dto := CommentDTO{ID: c.ID, Content: c.Content, PostID: c.PostID, UserID: c.UserID, CreatedAt: c.CreatedAt}
	if c.User != nil {
		dto.UserFullName = c.User.FullName
		dto.UserImageURL = c.User.ImageURL
	}
	return dto
}

// ProductDTO is the response shape for a product.
type ProductDTO struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	ImageURL     string  `json:"imageUrl"`
	IsAvailable  bool    `json:"isAvailable"`
	CategoryID   uint    `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
}

func NewProductDTO(p *Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		CategoryID:  p.CategoryID,
	}
	if p.Category != nil {
		dto.CategoryName = p.Category.Name
	}
	return dto
}

// CartItemDTO is one line of the cart response.
type CartItemDTO struct {
	CartItemID  uint    `json:"cartItemId"`
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Quantity    int     `json:"quantity"`
}

// CartDTO is the cart response.
type CartDTO struct {
	Items []CartItemDTO `json:"items"`
	Total float64       `json:"total"`
}

// OrderItemDTO is one line of an order response.
type OrderItemDTO struct {
	ProductID       uint    `json:"productId"`
	ProductName     string  `json:"productName"`
	ImageURL        string  `json:"imageUrl"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

// OrderDTO is the response shape for an order.
type OrderDTO struct {
	OrderID       uint           `json:"orderId"`
	TotalPrice    float64        `json:"totalPrice"`
	OrderStatus   OrderStatus    `json:"orderStatus"`
	TransactionID *string        `json:"transactionId"`
	CreatedAt     time.Time      `json:"createdAt"`
	ItemsCount    int            `json:"itemsCount"`
	Username      string         `json:"username"`
	UserEmail     string         `json:"userEmail"`
	Items         []OrderItemDTO `json:"items"`
}

func NewOrderDTO(o *Order) OrderDTO {
	dto := OrderDTO{
		OrderID:       o.ID,
		TotalPrice:    o.TotalPrice,
		OrderStatus:   o.Status,
		TransactionID: o.TransactionID,
		CreatedAt:     o.CreatedAt,
		ItemsCount:    len(o.Items),
		Items:         make([]OrderItemDTO, 0, len(o.Items)),
	}
	if o.User != nil {
		dto.Username = o.User.Username
		dto.UserEmail = o.User.Email
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ImageURL = item.Product.ImageURL
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

// NotificationDTO is the response and realtime payload for a notification.
type NotificationDTO struct {
	ID              uint             `json:"id"`
	Type            NotificationType `json:"type"`
	Message         string           `json:"message"`
	IsRead          bool             `json:"isRead"`
	RelatedPostID   *uint            `json:"relatedPostId,omitempty"`
	RelatedReportID *uint            `json:"relatedReportId,omitempty"`
	SenderID        *uint            `json:"senderId,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

func NewNotificationDTO(n *Notification) NotificationDTO {
	return NotificationDTO{
		ID:              n.ID,
		Type:            n.Type,
		Message:         n.Message,
		IsRead:          n.IsRead,
		RelatedPostID:   n.RelatedPostID,
		RelatedReportID: n.RelatedReportID,
		SenderID:        n.SenderID,
		CreatedAt:       n.CreatedAt,
	}
}

// MissingPetResponse is the response shape for a missing pet report.
// Distance is raw great-circle km, rounded.
type MissingPetResponse struct {
	ID               uint         `json:"id"`
	PetID            *uint        `json:"petId"`
	PetName          string       `json:"petName"`
	Species          string       `json:"species"`
	Breed            *string      `json:"breed"`
	Description      string       `json:"description"`
	LastSeenLocation string       `json:"lastSeenLocation"`
	Latitude         float64      `json:"latitude"`
	Longitude        float64      `json:"longitude"`
	ImageURL         string       `json:"imageUrl"`
	Status           ReportStatus `json:"status"`
	ReporterName     string       `json:"reporterName"`
	ReporterID       uint         `json:"reporterId"`
	ContactCount     int          `json:"contactCount"`
	CreatedAt        time.Time    `json:"createdAt"`
	Distance         float64      `json:"distance"`
}

func NewMissingPetResponse(r *MissingPetReport, distance float64) MissingPetResponse {
	dto := MissingPetResponse{
		ID:               r.ID,
		PetID:            r.PetID,
		PetName:          r.PetName,
		Species:          r.Species,
		Breed:            r.Breed,
		Description:      r.Description,
		LastSeenLocation: r.LastSeenLocation,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		ImageURL:         r.ImageURL,
		Status:           r.Status,
		ReporterID:       r.ReporterID,
		ContactCount:     r.ContactCount,
		CreatedAt:        r.CreatedAt,
		Distance:         distance,
	}
	if r.Reporter != nil {
		dto.ReporterName = r.Reporter.FullName
	}
	return dto
}

// ContactResponse is the response shape for a missing pet contact.
type ContactResponse struct {
	ID               uint      `json:"id"`
	ContactUserID    uint      `json:"contactUserId"`
	ContactUserName  string    `json:"contactUserName"`
	ContactUserImage string    `json:"contactUserImage"`
	Message          string    `json:"message"`
	ContactPhone     string    `json:"contactPhone"`
	ContactEmail     string    `json:"contactEmail"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewContactResponse(c *MissingPetContact) ContactResponse {
	dto := ContactResponse{
		ID:            c.ID,
		ContactUserID: c.ContactUserID,
		Message:       c.Message,
		ContactPhone:  c.ContactPhone,
		ContactEmail:  c.ContactEmail,
		CreatedAt:     c.CreatedAt,
	}
	if c.ContactUser != nil {
		dto.ContactUserName = c.ContactUser.FullName
		dto.ContactUserImage = c.ContactUser.ImageURL
	}
	return dto
}

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalPets          int64 `json:"totalPets"`
	TotalPosts         int64 `json:"totalPosts"`
	TotalOrders        int64 `json:"totalOrders"`
	TotalProducts      int64 `json:"totalProducts"`
	OpenMissingReports int64 `json:"openMissingReports"`
}
