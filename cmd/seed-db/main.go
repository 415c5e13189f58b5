// Command seed-db loads demo users, API keys, products and opening stock.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/product"
	"github.com/xenking/shop-ledger/internal/handler"
	"github.com/xenking/shop-ledger/internal/storage/postgres"
)

type seedProduct struct {
	Title string
	Price string
	Stock int64
}

var products = []seedProduct{
	{Title: "Waffle with Berries", Price: "6.50", Stock: 40},
	{Title: "Vanilla Bean Crème Brûlée", Price: "7.00", Stock: 25},
	{Title: "Macaron Mix of Five", Price: "8.00", Stock: 30},
	{Title: "Classic Tiramisu", Price: "5.50", Stock: 20},
	{Title: "Pistachio Baklava", Price: "4.00", Stock: 50},
	{Title: "Lemon Meringue Pie", Price: "5.00", Stock: 15},
	{Title: "Red Velvet Cake", Price: "4.50", Stock: 0},
}

type config struct {
	databaseURL string
	pepper      string
	adminKey    string
	customerKey string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&cfg.pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.StringVar(&cfg.adminKey, "admin-key", "", "API key for the admin user, generated when empty")
	flag.StringVar(&cfg.customerKey, "customer-key", "", "API key for the customer user, generated when empty")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.databaseURL == "" {
		cfg.databaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if cfg.pepper == "" {
		cfg.pepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}
	if cfg.pepper == "" {
		lg.Fatal("API key pepper is required: set --api-key-pepper or SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	pool, err := postgres.NewPool(ctx, cfg.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	users := postgres.NewUserRepository(pool)
	keys := postgres.NewAPIKeyRepository(pool)
	catalog := postgres.NewProductRepository(pool)
	inv := inventory.NewService(postgres.NewLedgerRepository(pool, 5*time.Second), catalog, users)

	admin := &auth.User{Email: "admin@shop.local", Role: auth.RoleAdmin}
	customer := &auth.User{Email: "customer@shop.local", Role: auth.RoleUser}
	for _, seed := range []struct {
		user *auth.User
		key  string
	}{
		{user: admin, key: cfg.adminKey},
		{user: customer, key: cfg.customerKey},
	} {
		if err := users.Upsert(ctx, seed.user); err != nil {
			return errors.Wrap(err, "seed user")
		}

		key := seed.key
		if key == "" {
			key = uuid.NewString()
		}
		if err := keys.Upsert(ctx, &auth.APIKey{
			KeyHash: handler.HashKey([]byte(cfg.pepper), key),
			Name:    seed.user.Email,
			UserID:  seed.user.ID,
		}); err != nil {
			return errors.Wrap(err, "seed api key")
		}
		lg.Info("Seeded user",
			zap.Int64("user_id", seed.user.ID),
			zap.String("email", seed.user.Email),
			zap.String("role", string(seed.user.Role)),
			zap.String("api_key", key),
		)
	}

	// Opening stock goes through the ledger so quantity always equals the sum
	// of entries. Re-running tops products up to their seed stock.
	actor := auth.Actor{UserID: admin.ID, Role: admin.Role}
	for _, sp := range products {
		p := &product.Product{Title: sp.Title, Price: decimal.RequireFromString(sp.Price)}
		if err := catalog.Upsert(ctx, p); err != nil {
			return errors.Wrap(err, "seed product")
		}

		if missing := sp.Stock - p.Quantity; missing > 0 {
			if _, err := inv.AddEntry(ctx, actor, p.ID, missing); err != nil {
				return errors.Wrapf(err, "seed stock for %q", p.Title)
			}
		}
		lg.Info("Seeded product",
			zap.Int64("product_id", p.ID),
			zap.String("title", p.Title),
			zap.Int64("stock", max(sp.Stock, p.Quantity)),
		)
	}

	return nil
}
