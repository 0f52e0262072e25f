package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var (
	verbose bool
	cfgPath string
)

// Configuration is the on-disk TOML shape. See config.example.toml.
type Configuration struct {
	Server struct {
		Addr        string `toml:"addr"`
		FrontendURL string `toml:"frontend_url"`
	} `toml:"server"`
	Auth struct {
		SigningKey      string `toml:"signing_key"`
		TokenExpiration int    `toml:"token_expiration"`
		Issuer          string `toml:"issuer"`
		CookieName      string `toml:"cookie_name"`
	} `toml:"auth"`
	Store struct {
		DSN string `toml:"dsn"`
	} `toml:"store"`
	Mail struct {
		From     string `toml:"from"`
		Password string `toml:"password"`
		Server   string `toml:"server"`
		Addr     string `toml:"addr"`
	} `toml:"mail"`
}

func (c Configuration) GetSigningKey() string   { return c.Auth.SigningKey }
func (c Configuration) GetTokenExpiration() int { return c.Auth.TokenExpiration }
func (c Configuration) GetIssuer() string       { return c.Auth.Issuer }
func (c Configuration) GetCookieName() string {
	if c.Auth.CookieName == "" {
		return storefront.DefaultCookieName
	}
	return c.Auth.CookieName
}
func (c Configuration) GetFrontendURL() string { return c.Server.FrontendURL }

func loadConfig() (Configuration, error) {
	var cfg Configuration

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("error reading configuration: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// environment wins over the file for deploy-time secrets
	if v := os.Getenv("STOREFRONT_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("STOREFRONT_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("STOREFRONT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":4000"
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = "file:storefront.db?cache=shared&_pragma=foreign_keys(1)"
	}

	return cfg, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open store: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*storefront.User)(nil),
		(*storefront.Item)(nil),
		(*storefront.CartItem)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return nil, fmt.Errorf("could not create schema: %w", err)
		}
	}

	// one row per (user, item), AddToCart increments instead of duplicating
	_, err = db.NewCreateIndex().
		Model((*storefront.CartItem)(nil)).
		Index("idx_cart_items_user_item").
		Unique().
		Column("user_id", "item_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create cart index: %w", err)
	}

	return db, nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := openDB(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storefront.NewRepositoryManager(db)

	auther := storefront.NewAuthenticator(repo, cfg)

	mailer := storefront.NewSMTPMailer(
		cfg.Mail.From,
		cfg.Mail.Password,
		cfg.Mail.Server,
		cfg.Mail.Addr,
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		a.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.FrontendURL,
			AllowCredentials: true,
		}))
		return router.DefaultFiberOptions(a)
	})

	storefront.RegisterStorefrontRoutes(srv.Router(), &storefront.StorefrontController{
		Debug:  verbose,
		Repo:   repo,
		Auther: auther,
		Mailer: mailer,
		Config: cfg,
	})

	srv.Serve(cfg.Server.Addr)

	waitExitSignal()

	return nil
}

func waitExitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront API server",
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose mode")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.toml", "path to TOML configuration")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
