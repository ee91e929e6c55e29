package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/config"
	"github.com/pizzapizza/pizzeria/events"
	"github.com/pizzapizza/pizzeria/handlers"
	"github.com/pizzapizza/pizzeria/notification"
	"github.com/pizzapizza/pizzeria/payment"
	"github.com/pizzapizza/pizzeria/server"
	"github.com/pizzapizza/pizzeria/store"
)

const (
	shutdownTimeout = 10 * time.Second
	eventBufferSize = 64
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open data directory: %v", err)
	}

	users := mustCollection(log, st, "users")
	tokens := mustCollection(log, st, "tokens")
	menus := mustCollection(log, st, "menus")
	carts := mustCollection(log, st, "carts")
	orders := mustCollection(log, st, "orders")

	if err := handlers.SeedMenu(menus); err != nil {
		log.Fatalf("failed to seed menu: %v", err)
	}

	authSvc := auth.NewService(tokens, cfg.TokenTTL)
	bus := events.NewBus(log, eventBufferSize)
	gateway := payment.NewStripeClient(cfg.StripeAPIKey, cfg.GatewayTimeout)
	mailer := notification.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailSender, cfg.GatewayTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notification.NewListener(mailer, log).Run(ctx, bus.Events())

	svr := server.SetupRoutes(log, server.Handlers{
		Users: &handlers.UserHandler{Users: users, Auth: authSvc, Log: log},
		Menu:  &handlers.MenuHandler{Menus: menus, Auth: authSvc},
		Cart:  &handlers.CartHandler{Carts: carts, Menus: menus, Auth: authSvc},
		Order: &handlers.OrderHandler{
			Users:    users,
			Carts:    carts,
			Menus:    menus,
			Orders:   orders,
			Auth:     authSvc,
			Payments: gateway,
			Bus:      bus,
			Log:      log,
		},
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := svr.Run(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-done

	log.Info("shutting down...")
	if err := svr.Shutdown(shutdownTimeout); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	bus.Close()
}

func mustCollection(log *logrus.Logger, st *store.Store, name string) *store.Collection {
	c, err := st.Collection(name)
	if err != nil {
		log.Fatalf("failed to open collection %s: %v", name, err)
	}
	return c
}
