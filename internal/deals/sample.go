package deals

import (
	"context"
	"fmt"
	"time"

	"github.com/dealradar/dealradar/pkg/deal"
)

// SeedSampleDeals replaces the sample data set. Existing deals from the sample
// businesses are removed first so reseeding never duplicates them.
func (s *Service) SeedSampleDeals(ctx context.Context) (int, error) {
	samples := sampleDeals()

	names := make([]string, 0, len(samples))
	for _, d := range samples {
		names = append(names, d.BusinessName)
	}

	if err := s.store.DeleteByBusinesses(ctx, names); err != nil {
		return 0, fmt.Errorf("failed to clear sample deals: %w", err)
	}

	for _, d := range samples {
		if _, err := s.store.Insert(ctx, d); err != nil {
			return 0, err
		}
	}

	return len(samples), nil
}

func sampleDeals() []deal.Deal {
	return []deal.Deal{
		{
			Title:              "50% Off All Clothing",
			Description:        "Get 50% off all clothing items in store. Limited time offer!",
			DiscountPercentage: 50,
			BusinessName:       "Fashion Outlet",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 37.7749, Lng: -122.4194, Address: "123 Market St, San Francisco, CA"},
			OriginalPrice:      price(100),
			SalePrice:          price(50),
			ExpirationDate:     expiry(2026, time.May, 1),
			URL:                "https://example-retail.com/deals/clothing-sale",
		},
		{
			Title:              "Buy One Get One Free Pizza",
			Description:        "Order any large pizza and get a second one free. Valid for dine-in only.",
			DiscountPercentage: 50,
			BusinessName:       "Pizza Paradise",
			Category:           deal.CategoryRestaurant,
			Location:           deal.Location{Lat: 37.7739, Lng: -122.4312, Address: "456 Mission St, San Francisco, CA"},
			OriginalPrice:      price(25),
			SalePrice:          price(12.5),
			ExpirationDate:     expiry(2026, time.April, 15),
			URL:                "https://example-restaurant.com/deals/bogo-pizza",
		},
		{
			Title:              "30% Off All Electronics",
			Description:        "Save 30% on all electronics. Includes TVs, computers, and smartphones.",
			DiscountPercentage: 30,
			BusinessName:       "Tech World",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 37.7833, Lng: -122.4167, Address: "789 Powell St, San Francisco, CA"},
			OriginalPrice:      price(1000),
			SalePrice:          price(700),
			ExpirationDate:     expiry(2026, time.April, 30),
			URL:                "https://example-retail.com/deals/electronics-sale",
		},
		{
			Title:              "Flat 40% Off Apparel",
			Description:        "End of season sale across all apparel sections.",
			DiscountPercentage: 40,
			BusinessName:       "Lifestyle Brigade Road",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 12.9720, Lng: 77.6081, Address: "12 Brigade Road, Bengaluru"},
			OriginalPrice:      price(2500),
			SalePrice:          price(1500),
			ExpirationDate:     expiry(2026, time.May, 20),
			URL:                "https://example-retail.com/deals/lifestyle-apparel",
		},
		{
			Title:              "Buy 2 Get 1 Free Footwear",
			Description:        "Mix and match across the full running range.",
			DiscountPercentage: 33,
			BusinessName:       "Adidas Store Brigade Road",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 12.9716, Lng: 77.6089, Address: "45 Brigade Road, Bengaluru"},
			OriginalPrice:      price(6000),
			SalePrice:          price(4000),
			ExpirationDate:     expiry(2026, time.June, 1),
			URL:                "https://example-retail.com/deals/adidas-footwear",
		},
		{
			Title:              "25% Off Everything",
			Description:        "Storewide discount on clothing and home decor.",
			DiscountPercentage: 25,
			BusinessName:       "Zudio Jayanagar",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 12.9399, Lng: 77.5826, Address: "5 Jayanagar 2nd Block, Bengaluru"},
			OriginalPrice:      price(1200),
			SalePrice:          price(900),
			ExpirationDate:     expiry(2026, time.May, 10),
			URL:                "https://example-retail.com/deals/zudio-storewide",
		},
		{
			Title:              "Denim Fest: Up to 50% Off",
			Description:        "Signature denim styles at half price.",
			DiscountPercentage: 50,
			BusinessName:       "Levi's Store Jayanagar",
			Category:           deal.CategoryRetail,
			Location:           deal.Location{Lat: 12.9382, Lng: 77.5834, Address: "21 Jayanagar 4th Block, Bengaluru"},
			OriginalPrice:      price(3000),
			SalePrice:          price(1500),
			ExpirationDate:     expiry(2026, time.May, 25),
			URL:                "https://example-retail.com/deals/levis-denim",
		},
	}
}

func price(v float64) *float64 {
	return &v
}

func expiry(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
