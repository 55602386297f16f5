package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"commerce-storefront/internal/app"
	"commerce-storefront/internal/checkout"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/session"
	"commerce-storefront/internal/store"
	"commerce-storefront/internal/store/discount"
	"commerce-storefront/internal/store/order"
	"commerce-storefront/internal/store/product"
	"github.com/shopspring/decimal"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app.App, args []string) error
}

var commands = map[string]command{
	"login":           {"sign in and remember the session", runLogin},
	"register":        {"create a customer account", runRegister},
	"logout":          {"forget the session and cached cart", runLogout},
	"whoami":          {"print the remembered session user", runWhoami},
	"products":        {"list the catalog", runProducts},
	"product":         {"show one product", runProduct},
	"categories":      {"list categories", runCategories},
	"cart":            {"show the cart", runCart},
	"cart-add":        {"add a product to the cart", runCartAdd},
	"cart-update":     {"change a cart line quantity", runCartUpdate},
	"cart-remove":     {"remove a cart line", runCartRemove},
	"cart-clear":      {"empty the cart", runCartClear},
	"orders":          {"list my orders", runOrders(false)},
	"order":           {"show one of my orders", runOrder},
	"cancel":          {"cancel one of my orders", runCancel},
	"validate":        {"check a discount code against the cart", runValidate},
	"checkout":        {"place an order from the cart", runCheckout},
	"admin-orders":    {"list all orders (admin)", runOrders(true)},
	"admin-status":    {"change an order status (admin)", runAdminStatus},
	"admin-discounts": {"list discount codes (admin)", runAdminDiscounts},
	"admin-product":   {"create or update a product (admin)", runAdminProduct},
	"admin-delete":    {"delete a product (admin)", runAdminDelete},
}

// listFlags binds the shared paging flags.
type listFlags struct {
	page int
	size int
	sort string
	dir  string
}

func (l *listFlags) bind(fs *flag.FlagSet) {
	fs.IntVar(&l.page, "page", 0, "zero-based page")
	fs.IntVar(&l.size, "size", 0, "page size")
	fs.StringVar(&l.sort, "sort", "", "sort field")
	fs.StringVar(&l.dir, "dir", "", "sort direction (asc|desc)")
}

func filters[C store.Criteria](l listFlags, c C) store.Filters[C] {
	return store.Filters[C]{Criteria: c, Page: l.page, Size: l.size, SortBy: l.sort, SortDirection: l.dir}
}

func idArg(fs *flag.FlagSet, what string) (int64, error) {
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("expected one %s id", what)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, fs.Arg(0))
	}
	return id, nil
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return &v, nil
}

// stateError turns the store's recorded message into the command error so the
// user sees the same text a view would show.
func stateError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if msg != "" {
		return errors.New(msg)
	}
	return err
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.Session.Login(ctx, *email, *password)
	if err != nil {
		return stateError(err, a.Session.Snapshot().Error)
	}
	return printJSON(sess.User)
}

func runRegister(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req session.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.Session.Register(ctx, req)
	if err != nil {
		return stateError(err, a.Session.Snapshot().Error)
	}
	return printJSON(sess.User)
}

func runLogout(ctx context.Context, a *app.App, _ []string) error {
	return a.Session.Logout(ctx)
}

func runWhoami(ctx context.Context, a *app.App, _ []string) error {
	sess, err := a.Session.Current(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return errors.New("not signed in")
	}
	if err != nil {
		return err
	}
	return printJSON(sess.User)
}

func runProducts(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	var l listFlags
	l.bind(fs)
	keyword := fs.String("q", "", "keyword")
	category := fs.Int64("category", 0, "category id")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := product.Criteria{Keyword: *keyword}
	if *category > 0 {
		c.CategoryID = category
	}
	var err error
	if c.MinPrice, err = optionalDecimal(*minPrice); err != nil {
		return err
	}
	if c.MaxPrice, err = optionalDecimal(*maxPrice); err != nil {
		return err
	}
	if err := a.Products.Load(ctx, filters(l, c)); err != nil {
		return stateError(err, a.Products.Snapshot().Error)
	}
	return printJSON(a.Products.Snapshot())
}

func runProduct(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("product", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "product")
	if err != nil {
		return err
	}
	p, err := a.Products.FetchByID(ctx, id)
	if err != nil {
		return stateError(err, a.Products.Snapshot().Error)
	}
	return printJSON(p)
}

func runCategories(ctx context.Context, a *app.App, _ []string) error {
	cats, err := a.Products.Categories(ctx)
	if err != nil {
		return err
	}
	return printJSON(cats)
}

func runCart(ctx context.Context, a *app.App, _ []string) error {
	if err := a.Cart.Fetch(ctx); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	return printJSON(a.Cart.Snapshot().Cart)
}

func runCartAdd(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("cart-add", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "product")
	if err != nil {
		return err
	}
	if err := a.Cart.AddItem(ctx, id, *qty); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	return printJSON(a.Cart.Snapshot().Cart)
}

func runCartUpdate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("cart-update", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "new quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "cart item")
	if err != nil {
		return err
	}
	if err := a.Cart.UpdateItem(ctx, id, *qty); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	return printJSON(a.Cart.Snapshot().Cart)
}

func runCartRemove(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("cart-remove", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "cart item")
	if err != nil {
		return err
	}
	if err := a.Cart.RemoveItem(ctx, id); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	return printJSON(a.Cart.Snapshot().Cart)
}

func runCartClear(ctx context.Context, a *app.App, _ []string) error {
	if err := a.Cart.Clear(ctx); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	return printJSON(a.Cart.Snapshot().Cart)
}

func runOrders(admin bool) func(ctx context.Context, a *app.App, args []string) error {
	return func(ctx context.Context, a *app.App, args []string) error {
		s := a.Orders
		if admin {
			s = a.AdminOrders
		}
		fs := flag.NewFlagSet("orders", flag.ContinueOnError)
		var l listFlags
		l.bind(fs)
		status := fs.String("status", "", "filter by status")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c := order.Criteria{Status: domain.OrderStatus(strings.ToUpper(*status))}
		if err := s.Load(ctx, filters(l, c)); err != nil {
			return stateError(err, s.Snapshot().Error)
		}
		return printJSON(s.Snapshot())
	}
}

func runOrder(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "order")
	if err != nil {
		return err
	}
	o, err := a.Orders.FetchByID(ctx, id)
	if err != nil {
		return stateError(err, a.Orders.Snapshot().Error)
	}
	return printJSON(struct {
		*domain.OrderDetail
		Cancellable bool `json:"cancellable"`
	}{o, domain.CanCancelOrder(o.Status)})
}

func runCancel(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "order")
	if err != nil {
		return err
	}
	if _, err := a.Orders.FetchByID(ctx, id); err != nil {
		return stateError(err, a.Orders.Snapshot().Error)
	}
	o, err := a.Orders.Cancel(ctx, id)
	if err != nil {
		return stateError(err, a.Orders.Snapshot().Error)
	}
	return printJSON(o)
}

func runValidate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected a discount code")
	}
	if err := a.Cart.Fetch(ctx); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}
	v, err := a.Discounts.Validate(ctx, fs.Arg(0), a.Cart.Subtotal())
	if err != nil && v.Outcome != discount.OutcomeError {
		return err
	}
	return printJSON(v)
}

func runCheckout(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var form checkout.ContactForm
	fs.StringVar(&form.ShippingAddress, "address", "", "shipping address")
	fs.StringVar(&form.CustomerName, "name", "", "recipient name")
	fs.StringVar(&form.CustomerEmail, "email", "", "contact email")
	fs.StringVar(&form.PhoneNumber, "phone", "", "contact phone")
	fs.StringVar(&form.Notes, "notes", "", "delivery notes")
	code := fs.String("code", "", "discount code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.Cart.Fetch(ctx); err != nil {
		return stateError(err, a.Cart.Snapshot().Error)
	}

	flow := a.Checkout
	flow.SetContact(form)
	flow.Continue()
	if *code != "" {
		flow.SetDiscountCode(*code)
		if v, _ := flow.ApplyDiscount(ctx); !v.Valid() {
			fmt.Printf("discount %s not applied: %s\n", *code, v.Reason)
		}
	}
	flow.Continue()
	o, err := flow.Submit(ctx)
	if err != nil {
		return stateError(err, flow.Snapshot().Error)
	}
	return printJSON(o)
}

func runAdminStatus(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("admin-status", flag.ContinueOnError)
	status := fs.String("status", "", "new status")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "order")
	if err != nil {
		return err
	}
	o, err := a.AdminOrders.UpdateStatus(ctx, id, domain.OrderStatus(strings.ToUpper(*status)), *notes)
	if err != nil {
		return stateError(err, a.AdminOrders.Snapshot().Error)
	}
	return printJSON(o)
}

func runAdminDiscounts(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("admin-discounts", flag.ContinueOnError)
	var l listFlags
	l.bind(fs)
	code := fs.String("code", "", "code filter")
	active := fs.String("active", "", "true|false")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := discount.Criteria{Code: *code}
	if *active != "" {
		v, err := strconv.ParseBool(*active)
		if err != nil {
			return fmt.Errorf("invalid -active %q", *active)
		}
		c.Active = &v
	}
	if err := a.Discounts.Load(ctx, filters(l, c)); err != nil {
		return stateError(err, a.Discounts.Snapshot().Error)
	}
	return printJSON(a.Discounts.Snapshot())
}

func runAdminProduct(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("admin-product", flag.ContinueOnError)
	id := fs.Int64("id", 0, "product id to update; omit to create")
	var in domain.ProductInput
	fs.StringVar(&in.Name, "name", "", "name")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.SKU, "sku", "", "sku")
	fs.StringVar(&in.ImageURL, "image", "", "image url")
	fs.IntVar(&in.StockQuantity, "stock", 0, "stock quantity")
	price := fs.String("price", "", "price")
	category := fs.Int64("category", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := optionalDecimal(*price)
	if err != nil {
		return err
	}
	if p != nil {
		in.Price = *p
	}
	if *category > 0 {
		in.CategoryID = category
	}

	var out *domain.Product
	if *id > 0 {
		out, err = a.Products.Update(ctx, *id, in)
	} else {
		out, err = a.Products.Create(ctx, in)
	}
	if err != nil {
		return stateError(err, a.Products.Snapshot().Error)
	}
	return printJSON(out)
}

func runAdminDelete(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("admin-delete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := idArg(fs, "product")
	if err != nil {
		return err
	}
	if err := a.Products.Delete(ctx, id); err != nil {
		return stateError(err, a.Products.Snapshot().Error)
	}
	return nil
}
