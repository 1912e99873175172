package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	logging "github.com/op/go-logging"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/config"
	"github.com/iliyamo/restaurant-pos/internal/database"
	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/report"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/router"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

var log = logging.MustGetLogger("server")

// InitLogger parses the go-logging level name and installs a leveled
// stdout backend for every module.
func InitLogger(logLevel string) error {
	baseBackend := logging.NewLogBackend(os.Stdout, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s} %{module} %{message}`,
	)
	backendFormatter := logging.NewBackendFormatter(baseBackend, format)

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	level, err := logging.LogLevel(strings.ToUpper(logLevel))
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(level, "")
	logging.SetBackend(backendLeveled)
	return nil
}

func main() {
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Infof("no .env file loaded: %v", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("log level %q: %v", cfg.LogLevel, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("report zone: %v", err)
	}
	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	tables := repository.NewTableRepo()
	orders := repository.NewOrderRepo()
	sales := repository.NewSaleRepo()
	reservations := repository.NewReservationRepo()
	menu := repository.NewMenuRepo()
	inventory := repository.NewInventoryRepo()
	if cfg.SeedDemoData {
		if err := repository.SeedDemo(tables, menu, inventory, time.Now()); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Info("demo data seeded")
	}
	users, err := repository.NewUserRepo([]repository.Credential{
		{Username: cfg.AdminUsername, Password: cfg.AdminPassword, DisplayName: "Administrador", Role: model.RoleAdmin},
		{Username: cfg.WaiterUsername, Password: cfg.WaiterPassword, DisplayName: "Mesero", Role: model.RoleWaiter},
	}, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("users: %v", err)
	}

	opts := lifecycle.Options{
		ReleaseGrace:    cfg.ReleaseGrace,
		ReleaseTick:     cfg.ReleaseTick,
		TimerAlertAfter: cfg.TimerAlertAfter,
		Events:          service.NopPublisher{},
	}

	if cfg.DB.Enabled {
		db, err := database.Open(cfg.DB)
		if err != nil {
			log.Warningf("mysql unavailable, sales are kept in memory only: %v", err)
		} else {
			defer db.Close()
			archive := repository.NewSaleArchiveRepo(db)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = archive.EnsureSchema(ctx)
			cancel()
			if err != nil {
				log.Warningf("sale archive schema: %v", err)
			} else {
				opts.Archive = archive
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				n, err := archive.CountSince(ctx, time.Now().Add(-24*time.Hour))
				cancel()
				if err != nil {
					log.Warningf("sale archive count: %v", err)
				}
				log.Infof("sale archive enabled on %s:%s/%s (%d sales in the last day)", cfg.DB.Host, cfg.DB.Port, cfg.DB.Name, n)
			}
		}
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.RabbitMQ.Enabled {
		opts.Events = service.NewAMQPPublisher(cfg.RabbitMQ.URL)
		go func() {
			sc := queue.SalesConsumer{URL: cfg.RabbitMQ.URL, Dir: cfg.SalesLogDir}
			if err := sc.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("sales consumer stopped: %v", err)
			}
		}()
		log.Info("rabbitmq events enabled")
	}

	ctl := lifecycle.NewController(lifecycle.Stores{
		Tables:       tables,
		Orders:       orders,
		Sales:        sales,
		Reservations: reservations,
		Menu:         menu,
	}, opts)
	engine := report.NewEngine(sales, reservations, loc, nil)

	var rdb *redis.Client
	if cfg.RateLimit.Enabled || cfg.Cache.Enabled {
		if rdb = config.NewRedisClient(cfg.Redis); rdb != nil {
			defer rdb.Close()
		} else {
			log.Warningf("redis unreachable at %s, rate limit and report cache disabled", cfg.Redis.Addr)
		}
	}

	e := router.New(cfg, rdb,
		handler.NewAuthHandler(cfg, users),
		handler.NewPOSHandler(ctl, menu, inventory, engine),
	)

	addr := ":" + cfg.Port
	go func() {
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	stopConsumer()
	ctl.Close()
}
