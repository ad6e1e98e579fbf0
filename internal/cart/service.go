package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
	"github.com/wolfman30/salon-scheduler/internal/notify"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// ProductCatalog resolves product ids.
type ProductCatalog interface {
	Product(id string) (catalog.Product, bool)
}

// View is a cart together with its derived summary.
type View struct {
	Cart    Cart    `json:"cart"`
	Summary Summary `json:"summary"`
}

// CheckoutResult is the hand-off produced when a client checks out.
type CheckoutResult struct {
	View
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
}

// Config configures the cart service.
type Config struct {
	Catalog        ProductCatalog
	Store          Store
	Policy         DiscountPolicy
	WhatsAppNumber string
	Logger         *logging.Logger
	Metrics        *observemetrics.SchedulerMetrics
	Now            func() time.Time
}

// Service runs cart operations against a Store.
type Service struct {
	catalog        ProductCatalog
	store          Store
	policy         DiscountPolicy
	whatsAppNumber string
	logger         *logging.Logger
	metrics        *observemetrics.SchedulerMetrics
	now            func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Catalog == nil {
		panic("cart: catalog required")
	}
	if cfg.Store == nil {
		panic("cart: store required")
	}
	if cfg.Policy == nil {
		cfg.Policy = TieredDiscount{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		catalog:        cfg.Catalog,
		store:          cfg.Store,
		policy:         cfg.Policy,
		whatsAppNumber: cfg.WhatsAppNumber,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		now:            cfg.Now,
	}
}

// Policy returns the active discount policy.
func (s *Service) Policy() DiscountPolicy { return s.policy }

func (s *Service) Create(ctx context.Context) (*View, error) {
	now := s.now()
	c := Cart{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(*c), nil
}

// AddItem adds one unit of productID.
func (s *Service) AddItem(ctx context.Context, id, productID string) (*View, error) {
	product, ok := s.catalog.Product(productID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	return s.mutate(ctx, id, func(c *Cart) {
		c.Add(product)
	})
}

// SetQuantity sets a line's quantity; zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, id, productID string, quantity int) (*View, error) {
	product, ok := s.catalog.Product(productID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	return s.mutate(ctx, id, func(c *Cart) {
		if !c.SetQuantity(productID, quantity) && quantity > 0 {
			c.Add(product)
			c.SetQuantity(productID, quantity)
		}
	})
}

func (s *Service) RemoveItem(ctx context.Context, id, productID string) (*View, error) {
	return s.mutate(ctx, id, func(c *Cart) {
		c.Remove(productID)
	})
}

func (s *Service) Clear(ctx context.Context, id string) (*View, error) {
	return s.mutate(ctx, id, func(c *Cart) {
		c.Clear()
	})
}

// Checkout renders the order message and its WhatsApp link. The cart is
// left intact so the client can return to it.
func (s *Service) Checkout(ctx context.Context, id string) (*CheckoutResult, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*c)
	if v.Summary.ItemCount == 0 {
		return nil, ErrEmptyCart
	}
	msg := OrderMessage(v.Cart.Lines, v.Summary)
	s.metrics.ObserveCartCheckout(strconv.Itoa(v.Summary.DiscountPercent))
	s.logger.Info("cart checked out",
		"cart_id", id,
		"items", v.Summary.ItemCount,
		"total", v.Summary.Total,
		"discount_percent", v.Summary.DiscountPercent,
	)
	return &CheckoutResult{
		View:        *v,
		Message:     msg,
		WhatsAppURL: notify.WhatsAppLink(s.whatsAppNumber, msg),
	}, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Cart)) (*View, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(c)
	c.UpdatedAt = s.now()
	if err := s.store.Save(ctx, *c); err != nil {
		return nil, err
	}
	return s.view(*c), nil
}

func (s *Service) view(c Cart) *View {
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &View{Cart: c, Summary: Summarize(c.Lines, s.policy)}
}
