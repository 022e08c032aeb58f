package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dealradar/dealradar/internal/config"
	"github.com/dealradar/dealradar/internal/geocode"
	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/pkg/arearules"
	"github.com/dealradar/dealradar/pkg/deal"
	"github.com/dealradar/dealradar/pkg/finder"
	"github.com/joho/godotenv"
)

func main() {
	var (
		serverURL   = flag.String("server", "http://localhost:8001", "Deal Radar API base URL")
		location    = flag.String("location", "", "Location to search deals around (e.g. \"Brigade Road\")")
		category    = flag.String("category", "all", "Deal category: all, retail, restaurant, other")
		radius      = flag.Float64("radius", 5, "Search radius in miles (1, 3, 5, 10, 25)")
		minDiscount = flag.Float64("min-discount", 15, "Minimum discount percentage (15, 25, 50, 75)")
		rulesFile   = flag.String("rules", "", "Area rules YAML file (uses built-in rules if empty)")
		timeout     = flag.Duration("timeout", 2*time.Minute, "Overall search timeout")
		subscribe   = flag.Bool("subscribe", false, "Register a push subscription after searching")
		showHelp    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showHelp {
		fmt.Println("Deal Radar Finder")
		fmt.Println("Usage: go run cmd/finder/main.go [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("")
		fmt.Println("Examples:")
		fmt.Println("  go run cmd/finder/main.go -location \"Brigade Road\"")
		fmt.Println("  go run cmd/finder/main.go -location Jayanagar -category retail -radius 3")
		fmt.Println("  go run cmd/finder/main.go -location \"MG Road\" -min-discount 50 -subscribe")
		return
	}

	if *location == "" {
		log.Fatal("a -location is required, see -help")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	config.LoadConfig()
	appLogger := logger.New(logger.FromConfig(config.AppConfig.LogLevel, config.AppConfig.LogFormat))

	rules := arearules.Default()
	if *rulesFile != "" {
		loaded, err := arearules.LoadFile(*rulesFile)
		if err != nil {
			log.Fatalf("Failed to load area rules: %v", err)
		}
		rules = loaded
	}

	geocoder := geocode.NewService(config.AppConfig.GeocoderBaseURL, config.AppConfig.GeocoderUserAgent, appLogger)
	client := finder.NewClient(*serverURL, geocoder, rules)
	session := finder.NewSession(client)

	criteria := deal.FilterCriteria{
		Category:    deal.Category(*category),
		RadiusMiles: *radius,
		MinDiscount: *minDiscount,
		Currency:    "USD",
	}
	if err := criteria.Validate(); err != nil {
		log.Fatalf("Invalid search criteria: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Searching deals near %q...\n\n", *location)

	state := session.Search(ctx, *location, criteria)
	switch state.Status {
	case finder.StatusError:
		log.Fatalf("Search failed: %s", state.ErrorMessage)
	case finder.StatusEmpty:
		fmt.Println("No deals found in this area. Try widening the radius or lowering the discount filter.")
	default:
		printDeals(os.Stdout, state.Deals)
	}

	if *subscribe {
		registerSubscription(ctx, client, *serverURL)
	}
}

func printDeals(w io.Writer, found []deal.Deal) {
	fmt.Fprintf(w, "Found %d deal(s):\n", len(found))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, d := range found {
		fmt.Fprintf(w, "[%d] %s at %s\n", i+1, d.Title, d.BusinessName)
		fmt.Fprintf(w, "    %.0f%% off", d.DiscountPercentage)
		if d.OriginalPrice != nil && d.SalePrice != nil {
			fmt.Fprintf(w, "  ($%.2f -> $%.2f)", *d.OriginalPrice, *d.SalePrice)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    %s\n", d.Location.Address)
		if d.Distance != nil {
			fmt.Fprintf(w, "    %.2f miles away\n", *d.Distance)
		}
		if d.ExpirationDate != nil {
			fmt.Fprintf(w, "    Expires: %s\n", d.ExpirationDate.Format("2006-01-02"))
		}
		fmt.Fprintln(w)
	}
}

// registerSubscription runs the push handshake with stand-in collaborators:
// the terminal grants permission and a no-op registry stands in for a real
// worker runtime.
func registerSubscription(ctx context.Context, client *finder.Client, serverURL string) {
	subscriber := finder.NewSubscriber(terminalPrompter{}, localRegistry{})

	if !subscriber.IsSupported() {
		fmt.Println("Push notifications are not supported here.")
		return
	}

	sub := subscriber.Subscribe(ctx, serverURL+"/api/notifications/public-key")
	if sub == nil {
		fmt.Println("Could not set up push notifications.")
		return
	}

	if err := client.RegisterSubscription(ctx, sub); err != nil {
		fmt.Printf("Could not register push subscription: %v\n", err)
		return
	}
	fmt.Println("Push notifications enabled.")
}

type terminalPrompter struct{}

func (terminalPrompter) RequestPermission(ctx context.Context) (bool, error) {
	fmt.Print("Enable deal notifications? [y/N] ")
	var answer string
	if _, err := fmt.Fscanln(os.Stdin, &answer); err != nil {
		return false, nil
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

type localRegistry struct{}

func (localRegistry) Register(ctx context.Context, scriptPath string) (*finder.Registration, error) {
	return &finder.Registration{
		ScriptPath:   scriptPath,
		PushEndpoint: "https://push.dealradar.dev/endpoint/" + fmt.Sprintf("%d", time.Now().UnixNano()),
	}, nil
}
