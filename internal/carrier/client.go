// Package carrier talks to the Endicia label server to price postage.
package carrier

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/albumpages/paper-shipping/internal/measure"
)

const (
	// Test server URL
	TestAPIURL = "https://elstestserver.endicia.com/LabelService/EwsLabelService.asmx"
	// Production server URL
	ProductionAPIURL = "https://labelserver.endicia.com/LabelService/EwsLabelService.asmx"

	SOAPAction     = "http://www.endicia.com/CalculatePostageRate"
	DefaultFromZIP = "90210"

	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 250 * time.Millisecond
	maxErrorBody         = 2048
)

// Mail classes understood by the rate endpoint.
const (
	MailClassPriority        = "Priority"
	MailClassPriorityExpress = "PriorityExpress"
	MailClassFirst           = "First"
	MailClassMediaMail       = "MediaMail"
)

var (
	// ErrNotConfigured is returned when account credentials are missing.
	ErrNotConfigured = errors.New("carrier: account not configured")
	// ErrRateUnavailable covers any answer that does not carry a usable price.
	ErrRateUnavailable = errors.New("carrier: rate unavailable")
)

// APIError is a non-2xx HTTP answer.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrRateUnavailable }

// RateError is a well formed answer in which the carrier refused to quote.
type RateError struct {
	Status  int
	Message string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("carrier status %d: %s", e.Status, e.Message)
}

func (e *RateError) Unwrap() error { return ErrRateUnavailable }

// OAuthConfig enables client-credentials bearer auth in front of the API,
// as used by some gateway deployments.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Config holds carrier API configuration
type Config struct {
	APIURL     string
	AccountID  string
	PassPhrase string
	FromZIP    string
	TestMode   bool

	Timeout       time.Duration
	MaxRetries    uint64
	RetryInterval time.Duration

	OAuth *OAuthConfig
	// HTTPClient replaces the default client; its Timeout is left alone.
	HTTPClient *http.Client
}

// Client is the carrier rate API client
type Client struct {
	config     Config
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient creates a new carrier API client
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		if cfg.TestMode {
			cfg.APIURL = TestAPIURL
		} else {
			cfg.APIURL = ProductionAPIURL
		}
	}
	if cfg.FromZIP == "" {
		cfg.FromZIP = DefaultFromZIP
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.OAuth != nil && cfg.OAuth.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		authed := cc.Client(ctx)
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		tracer:     otel.Tracer("github.com/albumpages/paper-shipping/internal/carrier"),
	}
}

// IsConfigured returns true if account credentials are set
func (c *Client) IsConfigured() bool {
	return c.config.AccountID != "" && c.config.PassPhrase != ""
}

// APIURL returns the endpoint in use.
func (c *Client) APIURL() string { return c.config.APIURL }

// FromZIP returns the origin postal code.
func (c *Client) FromZIP() string { return c.config.FromZIP }

// TestMode reports whether the client targets the test server.
func (c *Client) TestMode() bool { return c.config.TestMode }

// PostageRateRequest describes one mailpiece to price
type PostageRateRequest struct {
	MailClass   string
	WeightOz    float64
	Shape       string
	PackageType string
	Length      float64
	Width       float64
	Height      float64
	ToZIP       string
}

// PostageRate is a priced mailpiece
type PostageRate struct {
	MailClass string  `json:"mail_class"`
	Amount    float64 `json:"amount"`
	Zone      string  `json:"zone,omitempty"`
}

// CalculatePostageRate prices a mailpiece. Transport failures are retried;
// anything the server actually answered is returned as is.
func (c *Client) CalculatePostageRate(ctx context.Context, req PostageRateRequest) (*PostageRate, error) {
	ctx, span := c.tracer.Start(ctx, "carrier.CalculatePostageRate", trace.WithAttributes(
		attribute.String("carrier.mail_class", req.MailClass),
		attribute.String("carrier.shape", req.Shape),
		attribute.Float64("carrier.weight_oz", req.WeightOz),
	))
	defer span.End()

	rate, err := c.calculate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Float64("carrier.amount", rate.Amount))
	return rate, nil
}

func (c *Client) calculate(ctx context.Context, req PostageRateRequest) (*PostageRate, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	payload, err := c.buildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	var body []byte
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/xml")
		httpReq.Header.Set("SOAPAction", SOAPAction)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Body: string(msg)})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInterval
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.config.MaxRetries), ctx)); err != nil {
		return nil, fmt.Errorf("rate request for %s failed: %w", req.MailClass, err)
	}

	return parseResponse(body, req.MailClass)
}

type certifiedIntermediary struct {
	AccountID  string `xml:"AccountID"`
	PassPhrase string `xml:"PassPhrase"`
}

type rateServices struct {
	DeliveryConfirmation string `xml:"DeliveryConfirmation"`
}

type postageRateRequest struct {
	RequesterID           string                `xml:"RequesterID"`
	CertifiedIntermediary certifiedIntermediary `xml:"CertifiedIntermediary"`
	MailClass             string                `xml:"MailClass"`
	DateAdvance           int                   `xml:"DateAdvance"`
	WeightOz              string                `xml:"WeightOz"`
	WeightLbs             int                   `xml:"WeightLbs"`
	MailpieceShape        string                `xml:"MailpieceShape"`
	AutomationRate        string                `xml:"AutomationRate"`
	Machinable            string                `xml:"Machinable"`
	Services              rateServices          `xml:"Services"`
	FromPostalCode        string                `xml:"FromPostalCode"`
	ToPostalCode          string                `xml:"ToPostalCode"`
	ToCountryCode         string                `xml:"ToCountryCode"`
	Length                string                `xml:"Length,omitempty"`
	Width                 string                `xml:"Width,omitempty"`
	Height                string                `xml:"Height,omitempty"`
}

type requestWrapper struct {
	Namespace string             `xml:"xmlns,attr"`
	Request   postageRateRequest `xml:"CalculatePostageRateRequest"`
}

type requestEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	SOAP    string   `xml:"xmlns:soap,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	Body    struct {
		Request requestWrapper `xml:"CalculatePostageRateRequest"`
	} `xml:"soap:Body"`
}

// splitWeight turns ounces into whole pounds plus the remaining ounces.
func splitWeight(oz float64) (int, float64) {
	lbs := math.Floor(oz / measure.OuncesPerPound)
	return int(lbs), measure.Round(oz-lbs*measure.OuncesPerPound, measure.WeightPlaces)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Client) buildRequest(req PostageRateRequest) ([]byte, error) {
	lbs, oz := splitWeight(req.WeightOz)

	inner := postageRateRequest{
		RequesterID: c.config.AccountID,
		CertifiedIntermediary: certifiedIntermediary{
			AccountID:  c.config.AccountID,
			PassPhrase: c.config.PassPhrase,
		},
		MailClass:      req.MailClass,
		DateAdvance:    0,
		WeightOz:       formatNumber(oz),
		WeightLbs:      lbs,
		MailpieceShape: req.Shape,
		AutomationRate: "FALSE",
		Machinable:     "TRUE",
		Services:       rateServices{DeliveryConfirmation: "OFF"},
		FromPostalCode: c.config.FromZIP,
		ToPostalCode:   req.ToZIP,
		ToCountryCode:  "US",
	}
	if req.PackageType == "box" {
		inner.Length = formatNumber(req.Length)
		inner.Width = formatNumber(req.Width)
		inner.Height = formatNumber(req.Height)
	}

	env := requestEnvelope{
		SOAP: "http://schemas.xmlsoap.org/soap/envelope/",
		XSI:  "http://www.w3.org/2001/XMLSchema-instance",
		XSD:  "http://www.w3.org/2001/XMLSchema",
	}
	env.Body.Request = requestWrapper{Namespace: "http://www.endicia.com/", Request: inner}

	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

type postageRateResult struct {
	Status       string `xml:"Status"`
	ErrorMessage string `xml:"ErrorMessage"`
	Zone         string `xml:"Zone"`
	Postage      struct {
		TotalAmount string `xml:"TotalAmount"`
	} `xml:"Postage"`
}

type responseEnvelope struct {
	Body struct {
		Response struct {
			Result *postageRateResult `xml:"CalculatePostageRateResponse"`
		} `xml:"CalculatePostageRateResponse"`
	} `xml:"Body"`
}

func parseResponse(body []byte, mailClass string) (*PostageRate, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse rate response: %w: %w", ErrRateUnavailable, err)
	}

	result := env.Body.Response.Result
	if result == nil {
		return nil, fmt.Errorf("%w: empty response for %s", ErrRateUnavailable, mailClass)
	}

	if s := strings.TrimSpace(result.Status); s != "" && s != "0" {
		status, _ := strconv.Atoi(s)
		msg := strings.TrimSpace(result.ErrorMessage)
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &RateError{Status: status, Message: msg}
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(result.Postage.TotalAmount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, fmt.Errorf("%w: no postage quoted for %s", ErrRateUnavailable, mailClass)
	}

	return &PostageRate{
		MailClass: mailClass,
		Amount:    amount,
		Zone:      strings.TrimSpace(result.Zone),
	}, nil
}
