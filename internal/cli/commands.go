package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// View keys. Commands sharing a key replace each other's pending output.
const (
	viewSession = "session"
	viewCatalog = "catalog"
	viewProduct = "product"
	viewCart    = "cart"
	viewOrders  = "orders"
)

type command struct {
	name    string
	usage   string
	view    string
	minArgs int
	// mutates commands always report their outcome, even when a later
	// command on the same view has replaced their output.
	mutates bool
	run     func(ctx context.Context, svc Services, args []string) (string, error)
}

var commands = map[string]command{}

func register(c command) { commands[c.name] = c }

func init() {
	register(command{name: "login", usage: "<username> <password>", view: viewSession, minArgs: 2, mutates: true, run: runLogin})
	register(command{name: "register", usage: "<username> <password> <email> [admin <code>]", view: viewSession, minArgs: 3, mutates: true, run: runRegister})
	register(command{name: "logout", view: viewSession, mutates: true, run: runLogout})
	register(command{name: "whoami", view: viewSession, run: runWhoami})
	register(command{name: "refresh", view: viewSession, mutates: true, run: runRefresh})

	register(command{name: "products", view: viewCatalog, run: runProducts})
	register(command{name: "product", usage: "<id>", view: viewProduct, minArgs: 1, run: runProduct})
	register(command{name: "add-product", usage: "<price> <name...>", view: viewCatalog, minArgs: 2, mutates: true, run: runAddProduct})
	register(command{name: "update-product", usage: "<id> <price> <name...>", view: viewCatalog, minArgs: 3, mutates: true, run: runUpdateProduct})
	register(command{name: "delete-product", usage: "<id>", view: viewCatalog, minArgs: 1, mutates: true, run: runDeleteProduct})
	register(command{name: "review", usage: "<product-id> <rating 0-5> <text...>", view: viewProduct, minArgs: 3, mutates: true, run: runReview})

	register(command{name: "cart", view: viewCart, run: runCart})
	register(command{name: "add", usage: "<product-id> [quantity]", view: viewCart, minArgs: 1, mutates: true, run: runAdd})
	register(command{name: "remove", usage: "<line-id>", view: viewCart, minArgs: 1, mutates: true, run: runRemove})
	register(command{name: "checkout", usage: "<address...>", view: viewCart, minArgs: 1, mutates: true, run: runCheckout})

	register(command{name: "orders", view: viewOrders, run: runOrders})
	register(command{name: "order", usage: "<id>", view: viewOrders, minArgs: 1, run: runOrder})
	register(command{name: "cancel", usage: "<order-id>", view: viewOrders, minArgs: 1, mutates: true, run: runCancel})
}

// --- Session ---

func runLogin(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := svc.Session.Login(ctx, args[0], args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("signed in as %s (%s)\n", u.Username, u.Role), nil
}

func runRegister(ctx context.Context, svc Services, args []string) (string, error) {
	account := ports.NewAccount{Username: args[0], Password: args[1], Email: args[2], Role: string(domain.RoleUser)}
	if len(args) >= 4 && strings.EqualFold(args[3], "admin") {
		account.Role = string(domain.RoleAdmin)
		if len(args) >= 5 {
			account.AdminCode = args[4]
		}
	}
	u, err := svc.Session.Register(ctx, account)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("welcome, %s (%s)\n", u.Username, u.Role), nil
}

func runLogout(ctx context.Context, svc Services, _ []string) (string, error) {
	if err := svc.Session.Logout(ctx); err != nil {
		return "", err
	}
	return "signed out\n", nil
}

func runWhoami(ctx context.Context, svc Services, _ []string) (string, error) {
	u, err := svc.Session.Current(ctx)
	if err != nil {
		return "", err
	}
	v := svc.Resolver.Resolve(ctx, u)
	return fmt.Sprintf("%s <%s> id=%s admin=%t (%s)\n", u.Username, u.Email, u.ID, v.IsAdmin, v.Source), nil
}

func runRefresh(ctx context.Context, svc Services, _ []string) (string, error) {
	u, err := svc.Session.Current(ctx)
	if err != nil {
		return "", err
	}
	v, err := svc.Resolver.Refresh(ctx, u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("role refreshed: %s\n", v.Role), nil
}

// --- Catalog ---

func runProducts(ctx context.Context, svc Services, _ []string) (string, error) {
	products, err := svc.Catalog.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	return renderProducts(products), nil
}

func runProduct(ctx context.Context, svc Services, args []string) (string, error) {
	p, err := svc.Catalog.GetProduct(ctx, args[0])
	if err != nil {
		return "", err
	}
	return renderProduct(*p), nil
}

func runAddProduct(ctx context.Context, svc Services, args []string) (string, error) {
	u, p, err := productInput(ctx, svc, args[0], args[1:])
	if err != nil {
		return "", err
	}
	created, err := svc.Catalog.AddProduct(ctx, u, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("added %s (%s)\n", created.DisplayName(), created.ID), nil
}

func runUpdateProduct(ctx context.Context, svc Services, args []string) (string, error) {
	u, p, err := productInput(ctx, svc, args[1], args[2:])
	if err != nil {
		return "", err
	}
	updated, err := svc.Catalog.UpdateProduct(ctx, u, args[0], p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s\n", updated.DisplayName()), nil
}

func runDeleteProduct(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	if err := svc.Catalog.DeleteProduct(ctx, u, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %s\n", args[0]), nil
}

func runReview(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("%w: rating must be a number", domain.ErrValidation)
	}
	p, err := svc.Catalog.AddReview(ctx, u, args[0], rating, strings.Join(args[2:], " "))
	if err != nil {
		return "", err
	}
	return renderProduct(*p), nil
}

func productInput(ctx context.Context, svc Services, price string, name []string) (*domain.User, domain.Product, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return nil, domain.Product{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(price, "$"))
	if err != nil {
		return nil, domain.Product{}, fmt.Errorf("%w: price must be a number", domain.ErrValidation)
	}
	return u, domain.Product{Name: strings.Join(name, " "), Price: amount}, nil
}

// --- Cart ---

func runCart(ctx context.Context, svc Services, _ []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	cart, err := svc.Cart.View(ctx, u.ID)
	if err != nil {
		return "", err
	}
	return renderCart(*cart, svc.Checkout.Summary(*cart)), nil
}

func runAdd(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("%w: quantity must be a number", domain.ErrValidation)
		}
	}
	p, err := svc.Catalog.GetProduct(ctx, args[0])
	if err != nil {
		return "", err
	}
	cart, err := svc.Cart.AddToCart(ctx, u.ID, *p, qty)
	if err != nil {
		return "", err
	}
	return renderCart(*cart, svc.Checkout.Summary(*cart)), nil
}

func runRemove(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	cart, err := svc.Cart.RemoveAndRefresh(ctx, args[0], u.ID)
	if err != nil {
		return "", err
	}
	return renderCart(*cart, svc.Checkout.Summary(*cart)), nil
}

func runCheckout(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	cart, err := svc.Cart.GetCart(ctx, u.ID)
	if err != nil {
		return "", err
	}
	order, err := svc.Checkout.PlaceOrder(ctx, cart, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	return renderConfirmation(*order), nil
}

// --- Orders ---

func runOrders(ctx context.Context, svc Services, _ []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	orders, err := svc.Orders.List(ctx, u.ID)
	if err != nil {
		return "", err
	}
	return renderOrders(orders), nil
}

func runOrder(ctx context.Context, svc Services, args []string) (string, error) {
	u, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	o, err := svc.Orders.Get(ctx, u.ID, args[0])
	if err != nil {
		return "", err
	}
	return renderOrder(*o), nil
}

func runCancel(ctx context.Context, svc Services, args []string) (string, error) {
	remaining, err := svc.Orders.Delete(ctx, args[0])
	if err != nil {
		return "", err
	}
	return renderOrders(remaining), nil
}

func currentUser(ctx context.Context, svc Services) (*domain.User, error) {
	return svc.Session.Current(ctx)
}
