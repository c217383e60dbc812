package domain

// Product statuses. Only PUBLISHED plans are purchasable.
const (
	ProductDraft     = "DRAFT"
	ProductPublished = "PUBLISHED"
	ProductArchived  = "ARCHIVED"
	ProductSuspended = "SUSPENDED"
)

// Order statuses. COMPLETED, FAILED and CANCELLED are terminal.
const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderCompleted  = "COMPLETED"
	OrderFailed     = "FAILED"
	OrderCancelled  = "CANCELLED"
)

// Review statuses.
const (
	ReviewPendingModeration = "PENDING_MODERATION"
	ReviewPublished         = "PUBLISHED"
	ReviewFlagged           = "FLAGGED"
	ReviewRemoved           = "REMOVED"
)

// Review vote values.
const (
	VoteHelpful    = "HELPFUL"
	VoteNotHelpful = "NOT_HELPFUL"
)

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// Product is a downloadable furniture build plan.
type Product struct {
	ID          string  `db:"id" json:"id"`
	CategoryID  string  `db:"category_id" json:"category_id"`
	SellerID    string  `db:"seller_id" json:"seller_id"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	FileRef     string  `db:"file_ref" json:"-"`
	ImagesJSON  string  `db:"images_json" json:"images_json"`
	Status      string  `db:"status" json:"status"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at,omitempty"`
}

func (p Product) Purchasable() bool { return p.Status == ProductPublished }

// CartItem carries the price snapshot taken when the plan was added;
// later price changes to the product never touch it.
type CartItem struct {
	BuyerID           string  `db:"buyer_id" json:"-"`
	ProductID         string  `db:"product_id" json:"product_id"`
	UnitPriceSnapshot float64 `db:"unit_price_snapshot" json:"unit_price"`
	Qty               int     `db:"qty" json:"qty"`
	AddedAt           string  `db:"added_at" json:"added_at"`
}

// Order is an immutable financial snapshot: total = subtotal + platform_fee
// at creation time and is never recomputed.
type Order struct {
	ID               string  `db:"id" json:"id"`
	OrderNumber      string  `db:"order_number" json:"order_number"`
	BuyerID          string  `db:"buyer_id" json:"buyer_id"`
	Status           string  `db:"status" json:"status"`
	Subtotal         float64 `db:"subtotal" json:"subtotal"`
	PlatformFee      float64 `db:"platform_fee" json:"platform_fee"`
	Total            float64 `db:"total" json:"total"`
	Currency         string  `db:"currency" json:"currency"`
	PaymentIntentRef string  `db:"payment_intent_ref" json:"payment_intent_ref,omitempty"`
	PaymentStatus    string  `db:"payment_status" json:"payment_status,omitempty"`
	ProviderError    string  `db:"provider_error" json:"provider_error,omitempty"`
	CreatedAt        string  `db:"created_at" json:"created_at"`
	PaidAt           *string `db:"paid_at" json:"paid_at,omitempty"`
	CompletedAt      *string `db:"completed_at" json:"completed_at,omitempty"`
}

func (o Order) Terminal() bool {
	return o.Status == OrderCompleted || o.Status == OrderFailed || o.Status == OrderCancelled
}

// OrderItem snapshots the plan at purchase time for audit; the listing may
// change later, the line item must not.
type OrderItem struct {
	OrderID             string  `db:"order_id" json:"order_id"`
	ProductID           string  `db:"product_id" json:"product_id"`
	SellerID            string  `db:"seller_id" json:"seller_id"`
	UnitPrice           float64 `db:"unit_price" json:"unit_price"`
	Qty                 int     `db:"qty" json:"qty"`
	TitleSnapshot       string  `db:"title_snapshot" json:"title"`
	DescriptionSnapshot string  `db:"description_snapshot" json:"description"`
}

// DownloadToken is an opaque, time- and count-limited credential for one
// purchased plan. download_count never exceeds download_limit.
type DownloadToken struct {
	ID             string  `db:"id" json:"id"`
	Token          string  `db:"token" json:"token"`
	OrderID        string  `db:"order_id" json:"order_id"`
	ProductID      string  `db:"product_id" json:"product_id"`
	BuyerID        string  `db:"buyer_id" json:"buyer_id"`
	DownloadLimit  int     `db:"download_limit" json:"download_limit"`
	DownloadCount  int     `db:"download_count" json:"download_count"`
	ExpiresAt      string  `db:"expires_at" json:"expires_at"`
	IsActive       bool    `db:"is_active" json:"is_active"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	LastDownloadAt *string `db:"last_download_at" json:"last_download_at,omitempty"`
	LastIP         string  `db:"last_ip" json:"-"`
	LastUserAgent  string  `db:"last_user_agent" json:"-"`
}

type Review struct {
	ID              string `db:"id" json:"id"`
	OrderID         string `db:"order_id" json:"order_id"`
	ProductID       string `db:"product_id" json:"product_id"`
	BuyerID         string `db:"buyer_id" json:"buyer_id"`
	SellerID        string `db:"seller_id" json:"seller_id"`
	Rating          int    `db:"rating" json:"rating"`
	Title           string `db:"title" json:"title,omitempty"`
	Comment         string `db:"comment" json:"comment"`
	Pros            string `db:"pros" json:"pros,omitempty"`
	Cons            string `db:"cons" json:"cons,omitempty"`
	Status          string `db:"status" json:"status"`
	IsVerified      bool   `db:"is_verified" json:"is_verified"`
	HelpfulCount    int    `db:"helpful_count" json:"helpful_count"`
	NotHelpfulCount int    `db:"not_helpful_count" json:"not_helpful_count"`
	CreatedAt       string `db:"created_at" json:"created_at"`
}

type ReviewVote struct {
	ReviewID string `db:"review_id" json:"review_id"`
	UserID   string `db:"user_id" json:"user_id"`
	Vote     string `db:"vote" json:"vote"`
}

type ReviewResponse struct {
	ReviewID  string `db:"review_id" json:"review_id"`
	SellerID  string `db:"seller_id" json:"seller_id"`
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// RatingSummary aggregates PUBLISHED reviews for a plan.
type RatingSummary struct {
	Average float64 `db:"average" json:"average"`
	Count   int     `db:"count" json:"count"`
}
