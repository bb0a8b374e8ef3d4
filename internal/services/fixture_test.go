package services_test

import (
	"testing"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	products *repositories.MockProductRepository
	users    *repositories.MockUserRepository
	orders   *repositories.MockOrderRepository
	carts    *repositories.MockCartRepository
	ledger   *inventory.Ledger
	cart     *services.CartService
	order    *services.OrderService
	userID   string
}

func newFixture(t *testing.T, opts ...services.OrderServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		products: repositories.NewMockProductRepository(),
		users:    repositories.NewMockUserRepository(),
		orders:   repositories.NewMockOrderRepository(),
		carts:    repositories.NewMockCartRepository(),
	}
	f.ledger = inventory.NewLedger(f.products)
	f.cart = services.NewCartService(f.carts, f.products, f.users, f.ledger)
	opts = append([]services.OrderServiceOption{services.WithDefaultCountry("ID")}, opts...)
	f.order = services.NewOrderService(f.orders, f.products, f.users, f.ledger, f.cart, opts...)
	f.userID = f.addUser(t, "alice")
	return f
}

func (f *fixture) addUser(t *testing.T, name string) string {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "secret123"}
	require.NoError(t, f.users.Create(u))
	return u.ID
}

func (f *fixture) addProduct(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	require.NoError(t, f.products.Create(&models.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	n, err := f.ledger.Available(id)
	require.NoError(t, err)
	return n
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{Street: "Jl. Merdeka 1", City: "Bandung", PostalCode: "40111"}
}

func orderRequest(lines ...services.OrderLineRequest) services.CreateOrderRequest {
	return services.CreateOrderRequest{Items: lines, ShippingAddress: testAddress()}
}

func line(productID string, quantity int) services.OrderLineRequest {
	return services.OrderLineRequest{ProductID: productID, Quantity: quantity}
}
