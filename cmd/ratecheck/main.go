// Command ratecheck exercises the carrier integration end to end: it prints
// the carrier settings, weighs a test cart, checks the connection and fetches
// live rates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/albumpages/paper-shipping/internal/calculator"
	"github.com/albumpages/paper-shipping/internal/carrier"
	"github.com/albumpages/paper-shipping/internal/cart"
	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/config"
	"github.com/albumpages/paper-shipping/internal/observability"
	"github.com/albumpages/paper-shipping/internal/paper"
	"github.com/albumpages/paper-shipping/internal/rates"
)

const rule = "-------------------------------------------"

var errNotConfigured = errors.New("carrier credentials not configured")

type options struct {
	zip   string
	pages int
	paper float64
}

func main() {
	os.Exit(run())
}

// run parses flags and performs the check, returning the process exit code.
func run() int {
	zip := flag.String("zip", "10001", "Test destination ZIP code")
	pages := flag.Int("pages", 50, "Number of pages to test")
	paperPrice := flag.String("paper", "0.25", "Paper type price per page")
	flag.Parse()

	price, err := strconv.ParseFloat(*paperPrice, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -paper value %q: %v\n", *paperPrice, err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	cat := catalog.MustDefault()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	client := carrier.NewClient(cfg.Carrier.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := options{zip: *zip, pages: *pages, paper: price}
	if err := check(ctx, os.Stdout, cat, client, opts, logger); err != nil {
		fmt.Fprintln(os.Stderr, "FAILED:", err)
		return 1
	}
	return 0
}

// carrierClient is the part of carrier.Client the check needs
type carrierClient interface {
	rates.Quoter
	IsConfigured() bool
	APIURL() string
	FromZIP() string
	TestMode() bool
}

func check(ctx context.Context, out io.Writer, cat *catalog.Catalog, client carrierClient, opts options, logger *zap.Logger) error {
	p := message.NewPrinter(language.AmericanEnglish)
	money := func(v float64) string {
		return p.Sprint(currency.Symbol(currency.USD.Amount(v)))
	}

	p.Fprintln(out, "===========================================")
	p.Fprintln(out, "   Carrier Integration Test")
	p.Fprintln(out, "===========================================")
	p.Fprintln(out)

	p.Fprintln(out, "Step 1: Checking Configuration")
	p.Fprintln(out, rule)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "API URL\t%s\n", client.APIURL())
	fmt.Fprintf(tw, "Credentials\t%s\n", setOrNot(client.IsConfigured()))
	fmt.Fprintf(tw, "From ZIP\t%s\n", client.FromZIP())
	fmt.Fprintf(tw, "Test Mode\t%s\n", yesNo(client.TestMode()))
	tw.Flush()
	p.Fprintln(out)

	if !client.IsConfigured() {
		p.Fprintln(out, "Add ENDICIA_ACCOUNT_ID and ENDICIA_PASS_PHRASE to your .env file")
		return errNotConfigured
	}

	p.Fprintln(out, "Step 2: Creating Test Cart")
	p.Fprintln(out, rule)
	qty := 1
	line := cart.Line{
		ID:       "test_item",
		Country:  "Test Country",
		Quantity: &qty,
		OrderGroups: []cart.Group{{
			Country:    "Test Country",
			TotalPages: opts.pages,
			PaperType:  opts.paper,
		}},
	}
	resolver := paper.NewResolver(cat)
	total, err := cart.Price(resolver, line)
	if err != nil {
		return err
	}
	line.Total = total
	testCart := &cart.Cart{Lines: []cart.Line{line}}

	p.Fprintf(out, "Pages: %d\n", opts.pages)
	p.Fprintf(out, "Paper Type: %s/page (%s)\n", money(opts.paper), cat.NormalizePaperTypeID(opts.paper))
	p.Fprintf(out, "Order Total: %s\n\n", money(total))

	p.Fprintln(out, "Step 3: Calculating Weight & Dimensions")
	p.Fprintln(out, rule)
	calc := calculator.New(resolver, calculator.DefaultPackaging(), logger)
	b := calc.Breakdown(testCart)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	p.Fprintf(tw, "Weight (oz)\t%.2f\n", b.TotalWeightOz)
	p.Fprintf(tw, "Weight (lbs)\t%.2f\n", b.TotalWeightLbs)
	p.Fprintf(tw, "Length\t%v\"\n", b.Dimensions.Length)
	p.Fprintf(tw, "Width\t%v\"\n", b.Dimensions.Width)
	p.Fprintf(tw, "Height\t%v\"\n", b.Dimensions.Height)
	p.Fprintf(tw, "Package Type\t%s\n", b.Dimensions.PackageType)
	p.Fprintf(tw, "Carrier Shape\t%s\n", b.Dimensions.Shape)
	tw.Flush()
	p.Fprintln(out)

	if len(b.Groups) > 0 {
		p.Fprintln(out, "Paper Type Breakdown:")
		for _, g := range b.Groups {
			p.Fprintf(out, "  * %s: %d pages, %.2f oz\n", g.Name, g.Pages, g.WeightOz)
		}
		p.Fprintln(out)
	}

	p.Fprintln(out, "Step 4: Testing API Connection")
	p.Fprintln(out, rule)
	service := rates.NewService(client, calc, logger)
	if !service.TestConnection(ctx) {
		p.Fprintln(out, "Connection failed. Check the logs for the carrier response.")
		return errors.New("carrier connection test failed")
	}
	p.Fprintln(out, "Successfully connected to carrier API")
	p.Fprintln(out)

	p.Fprintln(out, "Step 5: Fetching Shipping Rates")
	p.Fprintln(out, rule)
	p.Fprintf(out, "Destination ZIP: %s\n\n", opts.zip)
	live, err := service.GetRates(ctx, rates.Address{Zip: opts.zip}, testCart)
	if err != nil {
		return err
	}
	if len(live) == 0 {
		p.Fprintln(out, "No rates returned.")
		return errors.New("no live rates")
	}

	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Service\tCost\tDelivery")
	for _, r := range live {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ServiceName, money(r.Cost), r.DeliveryDays)
	}
	tw.Flush()
	p.Fprintln(out)
	p.Fprintln(out, "All tests passed.")
	return nil
}

func setOrNot(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}

func yesNo(ok bool) string {
	if ok {
		return "Yes"
	}
	return "No"
}
