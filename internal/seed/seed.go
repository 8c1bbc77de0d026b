// Package seed loads the demo catalog and the default accounts into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/model"
	"storefront/internal/repository"
)

// Result counts the rows a run created.
type Result struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Users      int `json:"users"`
}

type productData struct {
	name, description, price string
	stock                    int
	imageURL                 string
}

type categoryData struct {
	name, description string
	products          []productData
}

type userData struct {
	username, email, password string
	firstName, lastName       string
	role                      model.Role
	address, phone            string
}

var catalog = []categoryData{
	{"Electronics", "Electronic devices and gadgets", []productData{
		{"iPhone 15 Pro", "Latest Apple smartphone with advanced features", "999.99", 50, "https://images.unsplash.com/photo-1592750475338-74b7b21085ab?w=400"},
		{"Samsung Galaxy S24", "Premium Android smartphone with excellent camera", "899.99", 45, "https://images.unsplash.com/photo-1610945265064-0e34e5519bbf?w=400"},
		{"MacBook Air M2", "Lightweight laptop with Apple M2 chip", "1199.99", 30, "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=400"},
		{"Sony WH-1000XM5", "Premium noise-canceling headphones", "399.99", 75, "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400"},
	}},
	{"Clothing", "Fashion and apparel", []productData{
		{"Classic White T-Shirt", "100% cotton comfortable t-shirt", "19.99", 100, "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400"},
		{"Denim Jeans", "Classic blue denim jeans", "59.99", 80, "https://images.unsplash.com/photo-1542272604-787c3835535d?w=400"},
		{"Leather Jacket", "Genuine leather jacket for style", "199.99", 25, "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400"},
		{"Running Shoes", "Comfortable athletic shoes for running", "89.99", 60, "https://images.unsplash.com/photo-1549298916-b41d501d3772?w=400"},
	}},
	{"Books", "Books and literature", []productData{
		{"The Great Gatsby", "Classic American novel by F. Scott Fitzgerald", "12.99", 200, "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=400"},
		{"To Kill a Mockingbird", "Timeless novel by Harper Lee", "14.99", 150, "https://images.unsplash.com/photo-1481627834876-b7833e8f5570?w=400"},
		{"1984", "Dystopian novel by George Orwell", "13.99", 180, "https://images.unsplash.com/photo-1495640388908-05fa85288e61?w=400"},
	}},
	{"Home & Garden", "Home improvement and garden supplies", []productData{
		{"Coffee Maker", "Programmable drip coffee maker", "79.99", 40, "https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=400"},
		{"Indoor Plant Set", "Set of 3 low-maintenance indoor plants", "49.99", 35, "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=400"},
		{"Kitchen Knife Set", "Professional chef knife set", "129.99", 20, "https://images.unsplash.com/photo-1593618998160-e34014e67546?w=400"},
	}},
	{"Sports", "Sports and outdoor equipment", []productData{
		{"Yoga Mat", "Non-slip exercise yoga mat", "29.99", 90, "https://images.unsplash.com/photo-1544367567-0f2fcb009e0b?w=400"},
		{"Basketball", "Official size basketball", "24.99", 70, "https://images.unsplash.com/photo-1546519638-68e109498ffc?w=400"},
		{"Tennis Racket", "Professional tennis racket", "149.99", 15, "https://images.unsplash.com/photo-1551698618-1dfe5d97d256?w=400"},
	}},
}

var users = []userData{
	{"admin", "admin@ecommerce.com", "admin123", "Admin", "User", model.RoleAdmin, "", ""},
	{"user", "user@ecommerce.com", "user123", "John", "Doe", model.RoleCustomer, "123 Main St, City, State 12345", "555-0123"},
}

// Run seeds the catalog when no category exists yet and creates each default
// account whose username is free. It is safe to call repeatedly.
func Run(ctx context.Context, store repository.Store) (Result, error) {
	var res Result
	err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		res = Result{}

		count, err := tx.Categories().Count(ctx)
		if err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if count == 0 {
			if err := seedCatalog(ctx, tx, &res); err != nil {
				return err
			}
		}

		return seedUsers(ctx, tx, &res)
	})
	return res, err
}

func seedCatalog(ctx context.Context, tx repository.Store, res *Result) error {
	for _, c := range catalog {
		category := &model.Category{Name: c.name, Description: c.description}
		if err := tx.Categories().Create(ctx, category); err != nil {
			return fmt.Errorf("create category %s: %w", c.name, err)
		}
		res.Categories++

		for _, p := range c.products {
			price, err := decimal.NewFromString(p.price)
			if err != nil {
				return fmt.Errorf("price of %s: %w", p.name, err)
			}
			product := &model.Product{
				Name:          p.name,
				Description:   p.description,
				Price:         price,
				StockQuantity: p.stock,
				ImageURL:      p.imageURL,
				CategoryID:    category.ID,
			}
			if err := tx.Products().Create(ctx, product); err != nil {
				return fmt.Errorf("create product %s: %w", p.name, err)
			}
			res.Products++
		}
	}
	return nil
}

func seedUsers(ctx context.Context, tx repository.Store, res *Result) error {
	for _, u := range users {
		exists, err := tx.Users().ExistsByUsername(ctx, u.username)
		if err != nil {
			return fmt.Errorf("check user %s: %w", u.username, err)
		}
		if exists {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user := &model.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			FirstName:    u.firstName,
			LastName:     u.lastName,
			Address:      u.address,
			Phone:        u.phone,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", u.username, err)
		}
		res.Users++
	}
	return nil
}
