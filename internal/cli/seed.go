package cli

import (
	"errors"
	"log"

	"storefront/internal/app"
	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo catalog and an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts.RootOptions)
			if err != nil {
				return err
			}
			defer database.Close(db)

			a, err := app.New(opts.Config, db)
			if err != nil {
				return err
			}
			defer a.Close()

			return Seed(a, opts.AdminUsername, opts.AdminEmail, opts.AdminPassword)
		},
	}

	cmd.Flags().StringVar(&opts.AdminUsername, "admin-username", "admin", "username of the seeded administrator")
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "admin@example.com", "email of the seeded administrator")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "admin123", "password of the seeded administrator")

	return cmd
}

// demoProducts is the catalog loaded by Seed.
func demoProducts() []models.Product {
	return []models.Product{
		{ID: "prod-1", Name: "Laptop", SKU: "LPT-001", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00"), Stock: 10,
			Categories: []string{"category:Electronics", "subcategory:Computers"}},
		{ID: "prod-2", Name: "Keyboard", SKU: "KBD-001", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00"), Stock: 25,
			Categories: []string{"category:Electronics", "subcategory:Peripherals"}},
		{ID: "prod-3", Name: "Mouse", SKU: "MSE-001", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), Stock: 50,
			Categories: []string{"category:Electronics", "subcategory:Peripherals"}},
		{ID: "prod-4", Name: "Go Programming Book", SKU: "BK-GO-01", Description: "Idiomatic Go, second edition", Price: decimal.RequireFromString("39.90"), Stock: 30,
			Categories: []string{"category:Books", "subcategory:Programming"}},
	}
}

// Seed loads the demo catalog and the admin account. Records that already
// exist are skipped, so seeding twice is harmless.
func Seed(a *app.App, adminUsername, adminEmail, adminPassword string) error {
	products := demoProducts()
	for i := range products {
		if _, err := a.Products.GetProductByID(products[i].ID); err == nil {
			log.Printf("Product %s already present, skipping", products[i].ID)
			continue
		}
		if err := a.Products.CreateProduct(&products[i]); err != nil {
			return err
		}
		log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
	}

	admin := &models.User{
		Username: adminUsername,
		Email:    adminEmail,
		Password: adminPassword,
		Role:     models.RoleAdmin,
	}
	if err := a.Auth.RegisterUser(admin); err != nil {
		if errors.Is(err, models.ErrConflict) {
			log.Printf("Admin user %s already present, skipping", adminUsername)
			return nil
		}
		return err
	}
	log.Printf("Seeded admin user: %s", adminUsername)
	return nil
}
