package fakeapi

import (
	"context"
	"fmt"

	"commerce-storefront/internal/domain"
)

// Demo accounts created by Seed.
const (
	DemoAdminEmail       = "admin@example.com"
	DemoAdminPassword    = "Admin1234"
	DemoCustomerEmail    = "customer@example.com"
	DemoCustomerPassword = "Customer1234"
)

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       string
	Stock       int
	Category    string
}

type discountSeed struct {
	Code     string
	Type     domain.DiscountType
	Value    string
	MinOrder string
	MaxCap   string
}

// Seed inserts demo data for manual testing. Products are keyed by SKU so a
// second run updates instead of duplicating.
func (b *Backend) Seed(ctx context.Context) error {
	categories := map[string]int64{}
	for _, name := range []string{"Đồ gia dụng", "Thời trang"} {
		if id, ok := b.categoryID(name); ok {
			categories[name] = id
			continue
		}
		categories[name] = b.AddCategory(ctx, name, "").ID
	}

	products := []productSeed{
		{SKU: "SKU-DEMO-MUG", Name: "Demo Mug", Description: "Ceramic mug with demo logo", Price: "10", Stock: 50, Category: "Đồ gia dụng"},
		{SKU: "SKU-DEMO-TSHIRT", Name: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", Price: "19.99", Stock: 30, Category: "Thời trang"},
		{SKU: "SKU-DEMO-BOTTLE", Name: "Demo Bottle", Description: "Insulated steel bottle", Price: "24.50", Stock: 20, Category: "Đồ gia dụng"},
	}
	for _, p := range products {
		cat := categories[p.Category]
		_, err := b.CreateProduct(ctx, domain.ProductInput{
			Name:          p.Name,
			Description:   p.Description,
			Price:         money(p.Price),
			StockQuantity: p.Stock,
			SKU:           p.SKU,
			CategoryID:    &cat,
		})
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.SKU, err)
		}
	}

	discounts := []discountSeed{
		{Code: "SALE10", Type: domain.DiscountPercentage, Value: "10", MaxCap: "50"},
		{Code: "FIXED5", Type: domain.DiscountFixed, Value: "5", MinOrder: "20"},
	}
	for _, d := range discounts {
		in := domain.DiscountInput{Code: d.Code, Type: d.Type, Value: money(d.Value), Active: true}
		if d.MinOrder != "" {
			v := money(d.MinOrder)
			in.MinOrderAmount = &v
		}
		if d.MaxCap != "" {
			v := money(d.MaxCap)
			in.MaxDiscountAmount = &v
		}
		if _, err := b.CreateDiscount(ctx, in); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("seed discount %s: %w", d.Code, err)
		}
	}

	accounts := []struct {
		email, password, name, role string
	}{
		{DemoAdminEmail, DemoAdminPassword, "Quản trị viên", domain.RoleAdmin},
		{DemoCustomerEmail, DemoCustomerPassword, "Khách hàng mẫu", domain.RoleCustomer},
	}
	for _, a := range accounts {
		if _, err := b.addUser(a.email, a.password, a.name, "", a.role); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("seed user %s: %w", a.email, err)
		}
	}
	return nil
}

func (b *Backend) categoryID(name string) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}
