package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"annies-bakery/internal/live"
	"annies-bakery/internal/metrics"
	"annies-bakery/internal/model"
	"annies-bakery/internal/notify"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	customRepo repository.CustomOrderRepository
	notifier   notify.Sender
	events     EventPublisher
	metrics    *metrics.Metrics
	baseURL    string
	now        func() time.Time
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	customRepo repository.CustomOrderRepository,
	notifier notify.Sender,
	events EventPublisher,
	m *metrics.Metrics,
	baseURL string,
	logger zerolog.Logger,
) OrderService {
	if events == nil {
		events = nopPublisher{}
	}

	return &orderService{
		orderRepo:  orderRepo,
		customRepo: customRepo,
		notifier:   notifier,
		events:     events,
		metrics:    m,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
		logger:     logger.With().Str("service", "order").Logger(),
	}
}

// GetOrder looks up standard orders first, then custom orders.
func (s *orderService) GetOrder(ctx context.Context, id string) (*model.OrderView, error) {
	if id == "" {
		return nil, model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return &model.OrderView{Order: order}, nil
	}

	custom, err := s.customRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if custom != nil {
		return &model.OrderView{CustomOrder: custom, IsCustom: true}, nil
	}

	s.logger.Debug().Str("order_id", id).Msg("order not found")
	return nil, model.ErrOrderNotFound
}

// ListOrders returns both kinds of orders matching filter, newest first.
func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error) {
	kind := strings.ToLower(filter.Type)
	switch kind {
	case "", "all", "standard", "custom":
	default:
		return nil, model.InvalidInput("order type must be all, standard or custom")
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matches := func(id, name, email, status, paymentStatus string) bool {
		if filter.Status != "" && status != filter.Status {
			return false
		}
		if filter.PaymentStatus != "" && paymentStatus != filter.PaymentStatus {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(id), query) ||
			strings.Contains(strings.ToLower(name), query) ||
			strings.Contains(strings.ToLower(email), query)
	}

	list := &model.OrderList{Orders: []model.Order{}, CustomOrders: []model.CustomOrder{}}

	if kind != "custom" {
		orders, err := s.orderRepo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if matches(o.ID, o.CustomerName, o.CustomerEmail, o.Status, o.PaymentStatus) {
				list.Orders = append(list.Orders, o)
			}
		}
		sort.SliceStable(list.Orders, func(i, j int) bool {
			return list.Orders[i].CreatedAt > list.Orders[j].CreatedAt
		})
	}

	if kind != "standard" {
		custom, err := s.customRepo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range custom {
			if matches(o.ID, o.CustomerName, o.CustomerEmail, o.Status, o.PaymentStatus) {
				list.CustomOrders = append(list.CustomOrders, o)
			}
		}
		sort.SliceStable(list.CustomOrders, func(i, j int) bool {
			return list.CustomOrders[i].CreatedAt > list.CustomOrders[j].CreatedAt
		})
	}

	return list, nil
}

// UpdateStatus overrides the status and/or payment status of one order.
// Any transition is allowed; only the spellings are checked.
func (s *orderService) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.OrderView, error) {
	if err := validateStatusUpdate(update); err != nil {
		return nil, err
	}

	stamp := model.Timestamp(s.now())
	view, err := s.modifyEither(ctx, id,
		func(o *model.Order) bool {
			applyStatus(&o.Status, &o.PaymentStatus, update)
			o.UpdatedAt = stamp
			return true
		},
		func(o *model.CustomOrder) bool {
			applyStatus(&o.Status, &o.PaymentStatus, update)
			o.UpdatedAt = stamp
			return true
		},
	)
	if err != nil {
		return nil, err
	}

	if update.Status != "" {
		s.metrics.OrderTransition(update.Status)
	}
	s.publishView(view)

	s.logger.Info().
		Str("order_id", id).
		Str("status", update.Status).
		Str("payment_status", update.PaymentStatus).
		Msg("order status updated")

	return view, nil
}

// BatchUpdate writes the orders collection, then the custom orders
// collection. Each write is atomic on its own; a failure on the second
// leaves the first applied.
func (s *orderService) BatchUpdate(ctx context.Context, req model.BatchStatusUpdate) (int, error) {
	if len(req.OrderIDs) == 0 {
		return 0, model.InvalidInput("no orders selected")
	}
	if err := validateStatusUpdate(req.StatusUpdate); err != nil {
		return 0, err
	}

	stamp := model.Timestamp(s.now())
	var changed []live.Event

	n, err := s.orderRepo.ModifyMany(ctx, req.OrderIDs, func(o *model.Order) bool {
		applyStatus(&o.Status, &o.PaymentStatus, req.StatusUpdate)
		o.UpdatedAt = stamp
		changed = append(changed, orderEvent(live.EventOrderUpdated, o.ID, o.Status, o.PaymentStatus, stamp))
		return true
	})
	if err != nil {
		return 0, err
	}

	m, err := s.customRepo.ModifyMany(ctx, req.OrderIDs, func(o *model.CustomOrder) bool {
		applyStatus(&o.Status, &o.PaymentStatus, req.StatusUpdate)
		o.UpdatedAt = stamp
		changed = append(changed, orderEvent(live.EventOrderUpdated, o.ID, o.Status, o.PaymentStatus, stamp))
		return true
	})
	if err != nil {
		s.logger.Error().Err(err).Int("standard_updated", n).Msg("batch update failed on custom orders")
		return n, err
	}

	for _, ev := range changed {
		s.events.Publish(ev)
		if req.Status != "" {
			s.metrics.OrderTransition(req.Status)
		}
	}

	s.logger.Info().
		Int("requested", len(req.OrderIDs)).
		Int("updated", n+m).
		Str("status", req.Status).
		Str("payment_status", req.PaymentStatus).
		Msg("batch status update")

	return n + m, nil
}

// AddNote appends an operator note to an order.
func (s *orderService) AddNote(ctx context.Context, id, text, by string) (*model.OrderView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.InvalidInput("note text is required")
	}
	if by == "" {
		by = "admin"
	}

	stamp := model.Timestamp(s.now())
	note := model.OrderNote{Text: text, Date: stamp, By: by}

	view, err := s.modifyEither(ctx, id,
		func(o *model.Order) bool {
			o.Notes = append(o.Notes, note)
			o.UpdatedAt = stamp
			return true
		},
		func(o *model.CustomOrder) bool {
			o.Notes = append(o.Notes, note)
			o.UpdatedAt = stamp
			return true
		},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", id).Str("by", by).Msg("note added")
	return view, nil
}

// DeleteOrder removes an order of either kind.
func (s *orderService) DeleteOrder(ctx context.Context, id string) error {
	ok, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		ok, err = s.customRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
	}
	if !ok {
		return model.ErrOrderNotFound
	}

	s.events.Publish(live.Event{Type: live.EventOrderDeleted, OrderID: id, UpdatedAt: model.Timestamp(s.now())})
	s.logger.Info().Str("order_id", id).Msg("order deleted")
	return nil
}

// CreateCustomOrder records a custom cake order and notifies the operator.
func (s *orderService) CreateCustomOrder(ctx context.Context, req *model.CustomOrderRequest) (*model.CustomOrder, error) {
	if err := validateCustomOrderRequest(req); err != nil {
		return nil, err
	}

	order := &model.CustomOrder{
		ID:            newID(model.CustomOrderIDPrefix),
		CustomerName:  strings.TrimSpace(req.Name),
		CustomerEmail: strings.TrimSpace(req.Email),
		CustomerPhone: strings.TrimSpace(req.Phone),
		UserID:        req.UserID,
		Details:       req.Details,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     model.Timestamp(s.now()),
	}

	if err := s.customOrderCreate(ctx, order); err != nil {
		return nil, err
	}

	s.events.Publish(orderEvent(live.EventOrderCreated, order.ID, order.Status, order.PaymentStatus, order.CreatedAt))

	msg := notify.CustomOrderReceived(order, s.baseURL+"/admin/orders")
	go sendAsync(s.notifier, msg, s.metrics, s.logger)

	s.logger.Info().Str("order_id", order.ID).Str("pickup_date", order.Details.PickupDate).Msg("custom order received")
	return order, nil
}

func (s *orderService) customOrderCreate(ctx context.Context, order *model.CustomOrder) error {
	if err := s.customRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to store custom order")
		return err
	}
	return nil
}

// SubmitContact forwards a contact form synchronously and reports delivery.
func (s *orderService) SubmitContact(ctx context.Context, req *model.ContactRequest) (bool, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return false, model.InvalidInput("name, email and message are required")
	}
	if s.notifier == nil {
		return false, nil
	}

	msg := notify.ContactRequest(*req)
	ok := s.notifier.Notify(ctx, msg)
	s.metrics.Notification(msg.Kind, ok)
	return ok, nil
}

// modifyEither applies the matching function to the standard order with id,
// or failing that the custom order with id.
func (s *orderService) modifyEither(
	ctx context.Context,
	id string,
	standard repository.ModifyFunc[model.Order],
	custom repository.ModifyFunc[model.CustomOrder],
) (*model.OrderView, error) {
	order, err := s.orderRepo.Modify(ctx, id, standard)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return &model.OrderView{Order: order}, nil
	}

	co, err := s.customRepo.Modify(ctx, id, custom)
	if err != nil {
		return nil, err
	}
	if co != nil {
		return &model.OrderView{CustomOrder: co, IsCustom: true}, nil
	}

	return nil, model.ErrOrderNotFound
}

func (s *orderService) publishView(view *model.OrderView) {
	if view.IsCustom {
		o := view.CustomOrder
		s.events.Publish(orderEvent(live.EventOrderUpdated, o.ID, o.Status, o.PaymentStatus, o.UpdatedAt))
		return
	}
	o := view.Order
	s.events.Publish(orderEvent(live.EventOrderUpdated, o.ID, o.Status, o.PaymentStatus, o.UpdatedAt))
}

func applyStatus(status, paymentStatus *string, update model.StatusUpdate) {
	if update.Status != "" {
		*status = update.Status
	}
	if update.PaymentStatus != "" {
		*paymentStatus = update.PaymentStatus
	}
}

func validateStatusUpdate(update model.StatusUpdate) error {
	if update.Status == "" && update.PaymentStatus == "" {
		return model.InvalidInput("status or payment_status is required")
	}
	if update.Status != "" && !model.ValidStatus(update.Status) {
		return model.InvalidInput("unknown status: " + update.Status)
	}
	if update.PaymentStatus != "" && !model.ValidPaymentStatus(update.PaymentStatus) {
		return model.InvalidInput("unknown payment status: " + update.PaymentStatus)
	}
	return nil
}

func validateCustomOrderRequest(req *model.CustomOrderRequest) error {
	if req == nil {
		return model.InvalidInput("custom order request is required")
	}

	required := []struct {
		field string
		value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"size", req.Details.Size},
		{"flavor", req.Details.Flavor},
		{"frosting", req.Details.Frosting},
		{"design_details", req.Details.DesignDetails},
		{"pickup_date", req.Details.PickupDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.InvalidInput(r.field + " is required")
		}
	}
	return nil
}
