package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/scanbill/pos-client/internal/admin"
	"github.com/scanbill/pos-client/internal/app"
	"github.com/scanbill/pos-client/internal/backend"
	"github.com/scanbill/pos-client/pkg/config"
	"github.com/scanbill/pos-client/pkg/enums"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/metrics"
	"github.com/scanbill/pos-client/pkg/notify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	baseURL := cfg.Backend.BaseURL
	if !cfg.Backend.Configured() {
		// The controller announces the missing address on start; a local
		// default keeps the client constructible in the meantime.
		baseURL = "http://localhost:8080"
	}
	api, err := backend.NewClient(baseURL, backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	clientMetrics := metrics.NewClientMetrics(registry)
	if cfg.App.MetricsAddr != "" {
		go serveMetrics(cfg.App.MetricsAddr, registry, logg)
	}

	center := notify.NewCenter(0)
	printer := notify.Func(func(n notify.Notification) {
		center.Notify(n)
		fmt.Printf("[%s] %s\n", n.Severity, n.Message)
	})

	controller, err := app.New(cfg, logg, printer, api, clientMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire application", err)
		os.Exit(1)
	}

	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)
	logg.Info(ctx, "starting pos client")
	controller.Start(ctx)

	runLoop(ctx, controller, center, logg)
}

func serveMetrics(addr string, registry *prometheus.Registry, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logg.Error(context.Background(), "metrics listener stopped", err)
	}
}

// runLoop is the line-oriented operator console. It is presentation plumbing
// only; every decision lives in the controller and its components.
func runLoop(ctx context.Context, controller *app.App, center *notify.Center, logg *logger.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`type "help" for commands`)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "quit", "exit":
			return
		case "login":
			if len(args) != 2 {
				fmt.Println("usage: login <username> <password>")
				continue
			}
			if err := controller.Login(ctx, args[0], args[1]); err != nil {
				logg.Debug(ctx, fmt.Sprintf("login failed: %v", err))
			}
		case "logout":
			controller.Logout(ctx)
		case "view":
			if len(args) != 1 {
				fmt.Println("usage: view <catalog|cart|checkout|history|admin>")
				continue
			}
			view, err := enums.ParseView(args[0])
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := controller.SetView(ctx, view); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("view:", controller.Nav().Active())
		case "unlock":
			if len(args) != 1 {
				fmt.Println("usage: unlock <secret>")
				continue
			}
			if controller.Unlock(ctx, args[0]) {
				fmt.Println("view:", controller.Nav().Active())
			}
		case "add":
			if len(args) != 1 {
				fmt.Println("usage: add <serial>")
				continue
			}
			if err := controller.Sync().AddUnit(ctx, args[0]); err != nil {
				logg.Debug(ctx, fmt.Sprintf("add unit failed: %v", err))
			}
		case "remove":
			if len(args) != 1 {
				fmt.Println("usage: remove <serial>")
				continue
			}
			if err := controller.Sync().RemoveUnit(ctx, args[0]); err != nil {
				logg.Debug(ctx, fmt.Sprintf("remove unit failed: %v", err))
			}
		case "cart":
			printCart(controller)
		case "orders":
			printOrders(controller)
		case "draft":
			if len(args) != 2 {
				fmt.Println("usage: draft <customer-name> <customer-mobile>")
				continue
			}
			controller.Checkout().SetDraft(args[0], args[1])
		case "checkout":
			if err := controller.Checkout().Submit(ctx); err != nil {
				logg.Debug(ctx, fmt.Sprintf("checkout failed: %v", err))
			}
		case "stores":
			printStores(ctx, controller)
		case "select":
			if len(args) != 1 {
				fmt.Println("usage: select <store-id>")
				continue
			}
			storeID, err := uuid.Parse(args[0])
			if err != nil {
				fmt.Println("invalid store id")
				continue
			}
			if err := controller.SelectStore(storeID); err != nil {
				fmt.Println(err)
			}
		case "back":
			controller.Nav().Back()
		case "stats":
			stats, err := controller.Stats(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("revenue=%s orders=%d\n", stats.TotalRevenue.StringFixed(2), stats.TotalOrders)
		case "products":
			printProducts(ctx, controller)
		case "store-orders":
			orders, err := controller.StoreOrders(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if len(orders) == 0 {
				fmt.Println("no orders")
				continue
			}
			for _, order := range orders {
				fmt.Printf("  %s  %s  %s  %s\n", order.ID, order.CustomerName, order.TotalAmount.StringFixed(2), order.Timestamp.Format("2006-01-02 15:04"))
			}
		case "product-add":
			if len(args) != 5 {
				fmt.Println("usage: product-add <barcode> <name> <price> <category> <initial-stock>")
				continue
			}
			price, err := decimal.NewFromString(args[2])
			if err != nil {
				fmt.Println("invalid price")
				continue
			}
			stock, err := strconv.Atoi(args[4])
			if err != nil {
				fmt.Println("invalid stock")
				continue
			}
			form := admin.ProductForm{Barcode: args[0], Name: args[1], Price: price, Category: args[3], InitialStock: stock}
			if _, err := controller.CreateProduct(ctx, form); err != nil {
				fmt.Println(err)
			}
		case "inventory":
			if len(args) != 2 {
				fmt.Println("usage: inventory <barcode> <quantity>")
				continue
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Println("invalid quantity")
				continue
			}
			if err := controller.AddInventory(ctx, args[0], qty); err != nil {
				fmt.Println(err)
			}
		case "product-del":
			if len(args) != 1 {
				fmt.Println("usage: product-del <product-id>")
				continue
			}
			productID, err := uuid.Parse(args[0])
			if err != nil {
				fmt.Println("invalid product id")
				continue
			}
			if err := controller.Admin().DeleteProduct(ctx, productID); err != nil {
				fmt.Println(err)
			}
		case "store-register":
			if len(args) != 4 {
				fmt.Println("usage: store-register <name> <location> <admin-user> <admin-pass>")
				continue
			}
			form := admin.StoreForm{Name: args[0], Location: args[1], AdminUsername: args[2], AdminPassword: args[3]}
			if err := controller.Admin().RegisterStore(ctx, form); err != nil {
				fmt.Println(err)
			}
		case "notice":
			if current := center.Current(); current != nil {
				fmt.Printf("[%s] %s\n", current.Severity, current.Message)
			} else {
				fmt.Println("no active notification")
			}
		default:
			fmt.Println("unknown command; type \"help\"")
		}
	}
}

func printCart(controller *app.App) {
	cart := controller.Sync().Cart()
	if cart == nil || len(cart.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range cart.Items {
		fmt.Printf("  %s  %s  %s\n", item.SerialNumber, item.ProductName, item.Price.StringFixed(2))
	}
	fmt.Println("total:", cart.TotalAmount.StringFixed(2))
}

func printOrders(controller *app.App) {
	orders := controller.Sync().Orders()
	if len(orders) == 0 {
		fmt.Println("no orders")
		return
	}
	for _, order := range orders {
		fmt.Printf("  %s  %s  %s  %s\n", order.ID, order.CustomerName, order.TotalAmount.StringFixed(2), order.Timestamp.Format("2006-01-02 15:04"))
	}
}

func printStores(ctx context.Context, controller *app.App) {
	stores, err := controller.Admin().Stores(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, store := range stores {
		fmt.Printf("  %s  %s  %s\n", store.ID, store.Name, store.Location)
	}
}

func printProducts(ctx context.Context, controller *app.App) {
	products, err := controller.Products(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, product := range products {
		fmt.Printf("  %s  %s  %s  %s\n", product.Barcode, product.Name, product.Price.StringFixed(2), product.Category)
	}
}

func printHelp() {
	fmt.Println(`session:   login <user> <pass> | logout
navigate:  view <catalog|cart|checkout|history|admin> | unlock <secret>
cart:      add <serial> | remove <serial> | cart
checkout:  draft <name> <mobile> | checkout | orders
platform:  stores | select <store-id> | back | store-register <name> <loc> <user> <pass>
store:     stats | products | store-orders | product-add <barcode> <name> <price> <category> <stock> | product-del <id> | inventory <barcode> <qty>
misc:      notice | help | quit`)
}
