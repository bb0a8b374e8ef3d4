package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/database"
	"storefront/internal/services"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	db, err := openDatabase(opts)
	if err != nil {
		return err
	}
	defer database.Close(db)

	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.SeedDemoData {
		if err := Seed(a, "admin", "admin@example.com", "admin123"); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if a.Events != nil {
		done, err := a.Events.ConsumeEvents(auditEvent)
		if err != nil {
			return fmt.Errorf("failed to start RabbitMQ consumer: %w", err)
		}
		log.Println("Started RabbitMQ audit consumer for order events")
		g.Go(func() error {
			select {
			case <-done:
				if ctx.Err() == nil {
					return errors.New("RabbitMQ delivery stream closed unexpectedly")
				}
			case <-ctx.Done():
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := a.Fiber.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Printf("Error during Fiber shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("Server gracefully stopped")
	return nil
}

// auditEvent logs every order event received from the broker.
func auditEvent(msg amqp.Delivery) error {
	ev, err := services.DecodeOrderEvent(msg.Body)
	if err != nil {
		return err
	}
	log.Printf("Audit: %s order=%s user=%s status=%s total=%s lines=%d stock_released=%t",
		ev.Type, ev.OrderID, ev.UserID, ev.Status, ev.TotalAmount, len(ev.Items), ev.StockReleased)
	return nil
}
