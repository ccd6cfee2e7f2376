// Package rates quotes shipping for a cart across the carrier's mail classes.
package rates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/albumpages/paper-shipping/internal/calculator"
	"github.com/albumpages/paper-shipping/internal/carrier"
	"github.com/albumpages/paper-shipping/internal/cart"
)

const (
	Currency = "USD"
	Provider = "USPS"
)

// ErrInvalidAddress is wrapped by address validation failures.
var ErrInvalidAddress = errors.New("invalid shipping address")

// Address is the destination of a quote
type Address struct {
	Zip   string `json:"zip"`
	State string `json:"state,omitempty"`
	City  string `json:"city,omitempty"`
}

// Validate checks the fields the carrier needs.
func (a Address) Validate() error {
	zip := strings.TrimSpace(a.Zip)
	switch {
	case zip == "":
		return fmt.Errorf("%w: zip is required", ErrInvalidAddress)
	case utf8.RuneCountInString(zip) > 10:
		return fmt.Errorf("%w: zip may not be longer than 10 characters", ErrInvalidAddress)
	case utf8.RuneCountInString(strings.TrimSpace(a.State)) > 2:
		return fmt.Errorf("%w: state may not be longer than 2 characters", ErrInvalidAddress)
	case utf8.RuneCountInString(strings.TrimSpace(a.City)) > 100:
		return fmt.Errorf("%w: city may not be longer than 100 characters", ErrInvalidAddress)
	}
	return nil
}

// Tier is a mail class offered to customers
type Tier struct {
	MailClass   string `json:"mail_class"`
	DisplayName string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TypicalDays string `json:"typical_days"`
}

// ServiceCode is the lower-cased mail class, e.g. priorityexpress.
func (t Tier) ServiceCode() string {
	return strings.ToLower(t.MailClass)
}

// DeliveryDays is the customer-facing estimate.
func (t Tier) DeliveryDays() string {
	return t.TypicalDays + " business days"
}

var tiers = []Tier{
	{
		MailClass:   carrier.MailClassPriority,
		DisplayName: "Priority Mail",
		Name:        "USPS Priority Mail",
		Description: "Fast delivery with tracking",
		TypicalDays: "2-3",
	},
	{
		MailClass:   carrier.MailClassPriorityExpress,
		DisplayName: "Priority Mail Express",
		Name:        "USPS Priority Mail Express",
		Description: "Overnight to 2-day delivery",
		TypicalDays: "1-2",
	},
	{
		MailClass:   carrier.MailClassFirst,
		DisplayName: "First-Class Mail",
		Name:        "USPS First-Class Mail",
		Description: "Affordable option for lighter packages",
		TypicalDays: "2-5",
	},
	{
		MailClass:   carrier.MailClassMediaMail,
		DisplayName: "Media Mail",
		Name:        "USPS Media Mail",
		Description: "Economical rate for media",
		TypicalDays: "2-8",
	},
}

// MailClasses lists the quoted tiers in request order.
func MailClasses() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Rate is one priced shipping option
type Rate struct {
	ServiceCode  string  `json:"service_code"`
	ServiceName  string  `json:"service_name"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
	DeliveryDays string  `json:"delivery_days"`
	Provider     string  `json:"provider"`
	PackageType  string  `json:"package_type,omitempty"`
	Zone         string  `json:"zone,omitempty"`
}

// FallbackRates is the static table used when no live rate came back.
func FallbackRates() []Rate {
	return []Rate{
		{ServiceCode: "first", ServiceName: "USPS First-Class Mail", Cost: 5.99, Currency: Currency, DeliveryDays: "2-5 business days", Provider: Provider},
		{ServiceCode: "priority", ServiceName: "USPS Priority Mail", Cost: 9.99, Currency: Currency, DeliveryDays: "2-3 business days", Provider: Provider},
		{ServiceCode: "priority_express", ServiceName: "USPS Priority Mail Express", Cost: 29.99, Currency: Currency, DeliveryDays: "1-2 business days", Provider: Provider},
	}
}

// Quoter prices a single mailpiece.
type Quoter interface {
	CalculatePostageRate(ctx context.Context, req carrier.PostageRateRequest) (*carrier.PostageRate, error)
}

// Service quotes carts against the carrier.
type Service struct {
	quoter Quoter
	calc   *calculator.Calculator
	logger *zap.Logger
}

// NewService wires a quoter and a calculator. A nil logger discards output.
func NewService(quoter Quoter, calc *calculator.Calculator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{quoter: quoter, calc: calc, logger: logger}
}

// Quote is the answer to a rate request
type Quote struct {
	Rates     []Rate               `json:"rates"`
	Breakdown calculator.Breakdown `json:"breakdown"`
	Fallback  bool                 `json:"fallback"`
}

// GetRates returns the live rates for a cart, cheapest first. Tiers the
// carrier could not price are left out; the only error is a bad address.
func (s *Service) GetRates(ctx context.Context, addr Address, crt *cart.Cart) ([]Rate, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return s.liveRates(ctx, strings.TrimSpace(addr.Zip), s.calc.Breakdown(crt)), nil
}

// Quote returns live rates, or the fallback table when there are none.
func (s *Service) Quote(ctx context.Context, addr Address, crt *cart.Cart) (Quote, error) {
	if err := addr.Validate(); err != nil {
		return Quote{}, err
	}

	breakdown := s.calc.Breakdown(crt)
	live := s.liveRates(ctx, strings.TrimSpace(addr.Zip), breakdown)
	if len(live) == 0 {
		s.logger.Warn("no live shipping rates, using fallback table",
			zap.String("zip", addr.Zip),
			zap.Float64("weight_oz", breakdown.TotalWeightOz),
		)
		return Quote{Rates: FallbackRates(), Breakdown: breakdown, Fallback: true}, nil
	}
	return Quote{Rates: live, Breakdown: breakdown}, nil
}

func (s *Service) liveRates(ctx context.Context, zip string, b calculator.Breakdown) []Rate {
	results := make([]*Rate, len(tiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		g.Go(func() error {
			rate, err := s.quoter.CalculatePostageRate(gctx, carrier.PostageRateRequest{
				MailClass:   tier.MailClass,
				WeightOz:    b.TotalWeightOz,
				Shape:       b.Dimensions.Shape,
				PackageType: b.Dimensions.PackageType,
				Length:      b.Dimensions.Length,
				Width:       b.Dimensions.Width,
				Height:      b.Dimensions.Height,
				ToZIP:       zip,
			})
			if err != nil {
				s.logger.Warn("failed to get rate",
					zap.String("mail_class", tier.MailClass),
					zap.Error(err),
				)
				return nil
			}
			results[i] = &Rate{
				ServiceCode:  tier.ServiceCode(),
				ServiceName:  tier.DisplayName,
				Cost:         rate.Amount,
				Currency:     Currency,
				DeliveryDays: tier.DeliveryDays(),
				Provider:     Provider,
				PackageType:  b.PackageType,
				Zone:         rate.Zone,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Rate, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

// TestConnection prices a small Priority flat to New York and reports
// whether the carrier answered with a usable rate.
func (s *Service) TestConnection(ctx context.Context) bool {
	_, err := s.quoter.CalculatePostageRate(ctx, carrier.PostageRateRequest{
		MailClass:   carrier.MailClassPriority,
		WeightOz:    5,
		Shape:       "Flat",
		PackageType: calculator.PackageEnvelope,
		Length:      10,
		Width:       8,
		Height:      1,
		ToZIP:       "10001",
	})
	if err != nil {
		s.logger.Error("carrier connection test failed", zap.Error(err))
		return false
	}
	return true
}
