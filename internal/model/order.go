package model

// Order statuses. The spellings are part of the persisted contract.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusReady      = "ready"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentRefunded  = "refunded"
	PaymentCancelled = "cancelled"
)

// Order id prefixes distinguishing standard orders from custom cake orders.
const (
	OrderIDPrefix       = "ord-"
	CustomOrderIDPrefix = "custom-"
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusInProgress: true,
	StatusReady:      true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

var validPaymentStatuses = map[string]bool{
	PaymentPending:   true,
	PaymentPaid:      true,
	PaymentRefunded:  true,
	PaymentCancelled: true,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool { return validStatuses[s] }

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool { return validPaymentStatuses[s] }

// Order represents a standard cart order.
type Order struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"payment_status"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at,omitempty"`
	Notes         Notes       `json:"notes,omitempty"`
	SessionID     string      `json:"session_id,omitempty"`

	Extra Extra `json:"-"`
}

// DocumentID returns the order id.
func (o Order) DocumentID() string { return o.ID }

type orderFields Order

func (o Order) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(orderFields(o), o.Extra)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var f orderFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*o = Order(f)
	o.Extra = extra
	return nil
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`

	Extra Extra `json:"-"`
}

type itemFields OrderItem

func (i OrderItem) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(itemFields(i), i.Extra)
}

func (i *OrderItem) UnmarshalJSON(data []byte) error {
	var f itemFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*i = OrderItem(f)
	i.Extra = extra
	return nil
}

// OrderNote is an operator note attached to an order.
type OrderNote struct {
	Text string `json:"text"`
	Date string `json:"date"`
	By   string `json:"by"`
}

// CustomOrder represents a custom cake order.
type CustomOrder struct {
	ID            string             `json:"id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	UserID        string             `json:"user_id,omitempty"`
	Details       CustomOrderDetails `json:"details"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at,omitempty"`
	Notes         Notes              `json:"notes,omitempty"`

	Extra Extra `json:"-"`
}

// DocumentID returns the custom order id.
func (o CustomOrder) DocumentID() string { return o.ID }

type customOrderFields CustomOrder

func (o CustomOrder) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(customOrderFields(o), o.Extra)
}

func (o *CustomOrder) UnmarshalJSON(data []byte) error {
	var f customOrderFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*o = CustomOrder(f)
	o.Extra = extra
	return nil
}

// CustomOrderDetails describes the requested cake.
type CustomOrderDetails struct {
	Size                string `json:"size"`
	Flavor              string `json:"flavor"`
	Filling             string `json:"filling,omitempty"`
	Frosting            string `json:"frosting"`
	Message             string `json:"message,omitempty"`
	DesignDetails       string `json:"design_details"`
	ReferenceImage      string `json:"reference_image,omitempty"`
	PickupDate          string `json:"pickup_date"`
	Allergies           string `json:"allergies,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`

	Extra Extra `json:"-"`
}

type detailsFields CustomOrderDetails

func (d CustomOrderDetails) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(detailsFields(d), d.Extra)
}

func (d *CustomOrderDetails) UnmarshalJSON(data []byte) error {
	var f detailsFields
	extra, err := decodeWithExtra(data, &f)
	if err != nil {
		return err
	}
	*d = CustomOrderDetails(f)
	d.Extra = extra
	return nil
}

// CheckoutRequest is the cart payload submitted by the storefront.
type CheckoutRequest struct {
	Items    []OrderItem  `json:"items"`
	Total    *float64     `json:"total,omitempty"`
	Customer CustomerInfo `json:"customer"`
}

// CustomerInfo identifies the buyer.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CheckoutResponse carries the hosted payment page the client must redirect to.
type CheckoutResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CustomOrderRequest is the custom cake order intake payload.
type CustomOrderRequest struct {
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Phone   string             `json:"phone,omitempty"`
	UserID  string             `json:"user_id,omitempty"`
	Details CustomOrderDetails `json:"details"`
}

// OrderView is either a standard or a custom order, as returned by order lookups.
type OrderView struct {
	Order       *Order       `json:"order,omitempty"`
	CustomOrder *CustomOrder `json:"custom_order,omitempty"`
	IsCustom    bool         `json:"is_custom"`
}

// StatusUpdate is an admin status/payment-status override.
type StatusUpdate struct {
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// BatchStatusUpdate applies a StatusUpdate to several orders of either kind.
type BatchStatusUpdate struct {
	OrderIDs []string `json:"order_ids"`
	StatusUpdate
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	Type          string // all, standard, custom
	Query         string
}

// OrderList is the admin order listing.
type OrderList struct {
	Orders       []Order       `json:"orders"`
	CustomOrders []CustomOrder `json:"custom_orders"`
}

// ContactRequest is a storefront contact form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}
