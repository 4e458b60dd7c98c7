// Package shell is the interactive storefront client. It renders the
// session, the catalog and the cart as text and turns commands into calls
// on the client layer.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/cart"
	"github.com/atinyakov/storefront/internal/client/checkout"
	"github.com/atinyakov/storefront/internal/client/session"
	"github.com/atinyakov/storefront/internal/models"
)

const helpText = `Available commands:
  help                 show this help
  login                sign in
  signup               create an account
  logout               sign out
  whoami               show the signed-in user
  products             list the catalog
  add <id> [qty]       add a product to the cart
  qty <id> <n>         change the quantity of a cart line
  rm <id>              remove a cart line
  cart                 show the cart
  clear                empty the cart
  coupon <code>        apply a coupon
  uncoupon             drop the applied coupon
  checkout             place the order
  orders               show your order history
  approve [id]         list pending accounts, or approve one (admins)
  exit                 leave the shell`

// Shell is one interactive session on top of the client layer.
type Shell struct {
	prompt   *Prompter
	out      io.Writer
	session  *session.Manager
	cart     *cart.Store
	checkout *checkout.Service
	client   *api.Client
	log      *zap.Logger

	mu       sync.Mutex
	coupon   *models.Coupon
	products map[string]models.Product
}

// New creates a Shell.
func New(
	prompt *Prompter,
	out io.Writer,
	sess *session.Manager,
	store *cart.Store,
	co *checkout.Service,
	client *api.Client,
	log *zap.Logger,
) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		prompt:   prompt,
		out:      out,
		session:  sess,
		cart:     store,
		checkout: co,
		client:   client,
		log:      log,
		products: make(map[string]models.Product),
	}
}

// Run reads commands until exit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	defer s.WatchSession()()

	fmt.Fprintln(s.out, "Type 'help' for a list of commands.")
	for {
		line, err := s.prompt.Line("storefront> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.Exec(ctx, line) {
			return nil
		}
	}
}

// WatchSession prints "signed out" whenever the session is lost, whether by
// logout or because the backend rejected the credentials.
func (s *Shell) WatchSession() (unsubscribe func()) {
	var mu sync.Mutex
	last := s.session.Session().Status
	return s.session.Subscribe(func(sess session.Session) {
		mu.Lock()
		prev := last
		last = sess.Status
		mu.Unlock()
		if prev != session.StatusUnauthenticated && sess.Status == session.StatusUnauthenticated {
			fmt.Fprintln(s.out, "signed out")
		}
	})
}

// Exec runs one command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "login":
		s.login(ctx)
	case "signup":
		s.signup(ctx)
	case "logout":
		s.session.SignOut(ctx)
	case "whoami":
		s.whoami()
	case "products":
		s.listProducts(ctx)
	case "add":
		s.add(ctx, args[1:])
	case "qty":
		s.updateQty(args[1:])
	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: rm <id>")
			return false
		}
		s.cart.Remove(args[1])
		s.printCart()
	case "cart":
		s.printCart()
	case "clear":
		s.cart.Clear()
		fmt.Fprintln(s.out, "Cart cleared")
	case "coupon":
		s.applyCoupon(ctx, strings.Join(args[1:], " "))
	case "uncoupon":
		s.setCoupon(nil)
		fmt.Fprintln(s.out, "Coupon removed")
	case "checkout":
		s.placeOrder(ctx)
	case "orders":
		s.listOrders(ctx)
	case "approve":
		s.approve(ctx, args[1:])
	case "exit", "quit":
		fmt.Fprintln(s.out, "Bye")
		return true
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return false
}

func (s *Shell) login(ctx context.Context) {
	if s.session.Session().Status == session.StatusAuthenticated {
		fmt.Fprintln(s.out, "Already signed in, use 'logout' first")
		return
	}
	email, password, err := s.prompt.Credentials()
	if err != nil {
		return
	}
	if err := s.session.SignIn(ctx, email, password); err != nil {
		fmt.Fprintln(s.out, errorText(err, "Sign-in failed"))
		return
	}
	fmt.Fprintf(s.out, "Signed in as %s\n", displayName(s.session.Session().User))
}

func (s *Shell) signup(ctx context.Context) {
	req, err := s.prompt.Registration()
	if err != nil {
		return
	}
	resp, err := s.session.SignUp(ctx, req)
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Registration failed"))
		return
	}
	if s.session.Session().Status == session.StatusAuthenticated {
		fmt.Fprintf(s.out, "Registered and signed in as %s\n", displayName(s.session.Session().User))
		return
	}
	msg := resp.Message
	if msg == "" {
		msg = "Registered, use 'login' to sign in"
	}
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) whoami() {
	sess := s.session.Session()
	switch sess.Status {
	case session.StatusAuthenticated:
		u := sess.User
		if u == nil {
			fmt.Fprintln(s.out, "Signed in")
			return
		}
		fmt.Fprintf(s.out, "%s <%s> %s\n", displayName(u), u.Email, u.Role)
	case session.StatusLoading:
		fmt.Fprintln(s.out, "Verifying session...")
	default:
		fmt.Fprintln(s.out, "Not signed in")
	}
}

func (s *Shell) listProducts(ctx context.Context) {
	products, err := s.client.ListProducts(ctx)
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Cannot load products"))
		return
	}

	s.mu.Lock()
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.mu.Unlock()

	if len(products) == 0 {
		fmt.Fprintln(s.out, "No products")
		return
	}
	for _, p := range products {
		fmt.Fprintf(s.out, "%-6s %-24s %10.2f  stock %d\n", p.ID, p.Name, p.Price, p.Stock)
	}
}

func (s *Shell) product(ctx context.Context, id string) (models.Product, error) {
	s.mu.Lock()
	p, ok := s.products[id]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	fetched, err := s.client.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	s.mu.Lock()
	s.products[fetched.ID] = *fetched
	s.mu.Unlock()
	return *fetched, nil
}

func (s *Shell) add(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: add <id> [qty]")
		return
	}
	qty := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintln(s.out, "Quantity must be a number")
			return
		}
		qty = n
	}

	p, err := s.product(ctx, args[0])
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Product not found"))
		return
	}
	s.cart.Add(p, qty)
	fmt.Fprintf(s.out, "Added %s, %d item(s) in cart\n", p.Name, s.cart.TotalItems())
}

func (s *Shell) updateQty(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: qty <id> <n>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintln(s.out, "Quantity must be a number")
		return
	}
	s.cart.UpdateQty(args[0], n)
	s.printCart()
}

func (s *Shell) printCart() {
	items := s.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Cart is empty")
		return
	}
	for _, it := range items {
		fmt.Fprintf(s.out, "%-6s %-24s %3d x %10.2f\n", it.Product.ID, it.Product.Name, it.Quantity, it.Product.Price)
	}
	fmt.Fprintf(s.out, "Items: %d  Subtotal: %.2f\n", s.cart.TotalItems(), s.cart.TotalPrice())

	if c := s.currentCoupon(); c != nil {
		fmt.Fprintf(s.out, "Coupon %s  Total: %.2f\n", c.Code, s.checkout.Preview(c))
	}
}

func (s *Shell) applyCoupon(ctx context.Context, code string) {
	c, err := s.checkout.ApplyCoupon(ctx, code)
	if err != nil {
		s.setCoupon(nil)
		fmt.Fprintln(s.out, errorText(err, "Invalid coupon"))
		return
	}
	s.setCoupon(c)
	fmt.Fprintf(s.out, "Coupon %s applied, total %.2f\n", c.Code, s.checkout.Preview(c))
}

// signedIn reports whether a protected command may run, and says why not.
func (s *Shell) signedIn() bool {
	switch s.session.Session().Status {
	case session.StatusLoading:
		fmt.Fprintln(s.out, "Verifying session, try again in a moment")
		return false
	case session.StatusUnauthenticated:
		fmt.Fprintln(s.out, "Please 'login' first")
		return false
	}
	return true
}

func (s *Shell) placeOrder(ctx context.Context) {
	if !s.signedIn() {
		return
	}
	if s.cart.TotalItems() == 0 {
		fmt.Fprintln(s.out, checkout.ErrEmptyCart)
		return
	}

	req, err := s.prompt.Order()
	if err != nil {
		return
	}
	if c := s.currentCoupon(); c != nil {
		req.CouponCode = c.Code
	}

	res, err := s.checkout.PlaceOrder(ctx, req)
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Checkout failed"))
		return
	}
	s.setCoupon(nil)
	fmt.Fprintf(s.out, "Order %s placed, paid %.2f\n", res.Order.ID, float64(res.Payment.Amount))
}

func (s *Shell) listOrders(ctx context.Context) {
	if !s.signedIn() {
		return
	}
	orders, err := s.client.MyOrders(ctx)
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Cannot load orders"))
		return
	}
	if len(orders) == 0 {
		fmt.Fprintln(s.out, "No orders yet")
		return
	}
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		placed := "-"
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(s.out, "%s  %s  %-8s %3d item(s)  total %.2f\n", o.ID, placed, o.Status, items, float64(o.Total))
	}
}

// approve lists the pending accounts without an argument and approves the
// given account otherwise. The backend decides who is an admin.
func (s *Shell) approve(ctx context.Context, args []string) {
	if !s.signedIn() {
		return
	}
	if len(args) == 0 {
		users, err := s.client.PendingUsers(ctx)
		if err != nil {
			fmt.Fprintln(s.out, errorText(err, "Cannot load pending accounts"))
			return
		}
		if len(users) == 0 {
			fmt.Fprintln(s.out, "No pending accounts")
			return
		}
		for _, u := range users {
			fmt.Fprintf(s.out, "%s  %s\n", u.ID, u.Email)
		}
		return
	}

	user, err := s.client.ApproveUser(ctx, args[0])
	if err != nil {
		fmt.Fprintln(s.out, errorText(err, "Approval failed"))
		return
	}
	fmt.Fprintf(s.out, "Approved %s\n", user.Email)
}

func (s *Shell) currentCoupon() *models.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

func (s *Shell) setCoupon(c *models.Coupon) {
	s.mu.Lock()
	s.coupon = c
	s.mu.Unlock()
}

// errorText picks the message shown for err.
func errorText(err error, fallback string) string {
	switch {
	case errors.Is(err, api.ErrUnavailable):
		return "Cannot reach the store, try again later"
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoCard),
		errors.Is(err, checkout.ErrNoCoupon),
		errors.Is(err, session.ErrNoToken):
		return err.Error()
	}
	return api.Message(err, fallback)
}

func displayName(u *models.User) string {
	switch {
	case u == nil:
		return "unknown"
	case u.FullName != "":
		return u.FullName
	default:
		return u.Email
	}
}
