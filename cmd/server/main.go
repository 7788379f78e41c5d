package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursecms/config"
	"coursecms/internal/database"
	"coursecms/internal/router"
	"coursecms/internal/ws"
	"coursecms/pkg/cloudinary"
	"coursecms/pkg/payment"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedAdmin(db, &cfg.Admin); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Println("[cloudinary] CLOUDINARY_CLOUD_NAME not set, course image upload disabled")
	}

	gateway := newGateway(&cfg.Payment)
	log.Printf("[payment] using %s gateway", gateway.Name())

	done := make(chan struct{})
	engine, reconciler := router.Setup(cfg, db, router.Deps{
		Gateway: gateway,
		Cloud:   cloud,
		Hub:     ws.NewHub(),
		Done:    done,
	})
	if cfg.Reconcile.Enabled {
		if err := reconciler.Start(cfg.Reconcile.Schedule); err != nil {
			log.Fatalf("reconcile schedule %q: %v", cfg.Reconcile.Schedule, err)
		}
		defer reconciler.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	close(done)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	fmt.Println("server stopped")
}

func newGateway(cfg *config.PaymentConfig) payment.Gateway {
	switch cfg.Provider {
	case "hosted":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			log.Fatal("[payment] PAYMENT_KEY_ID and PAYMENT_KEY_SECRET are required for the hosted gateway")
		}
		return payment.NewHostedGateway(cfg.BaseURL, cfg.KeyID, cfg.KeySecret, cfg.Timeout)
	case "", "stub":
		return &payment.StubGateway{}
	default:
		log.Fatalf("[payment] unknown PAYMENT_PROVIDER %q", cfg.Provider)
		return nil
	}
}
