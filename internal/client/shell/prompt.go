package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/storefront/internal/client/checkout"
	"github.com/atinyakov/storefront/internal/models"
)

// Prompter reads answers from the user, one line at a time.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
	// secret reads a line without echo. Nil when the input is not a terminal.
	secret func() (string, error)
}

// NewPrompter reads from in and writes prompts to out. When in is a terminal,
// secrets are read with echo disabled.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewScanner(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

// Line prints label and returns the trimmed answer. It returns io.EOF when
// the input is exhausted.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Secret is Line without echo.
func (p *Prompter) Secret(label string) (string, error) {
	if p.secret == nil {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	return p.secret()
}

// Credentials asks for an email and a password.
func (p *Prompter) Credentials() (email, password string, err error) {
	if email, err = p.Line("Email: "); err != nil {
		return "", "", err
	}
	if password, err = p.Secret("Password: "); err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Registration asks for the sign-up form.
func (p *Prompter) Registration() (models.RegisterRequest, error) {
	email, password, err := p.Credentials()
	if err != nil {
		return models.RegisterRequest{}, err
	}
	name, err := p.Line("Full name (optional): ")
	if err != nil {
		return models.RegisterRequest{}, err
	}
	return models.RegisterRequest{Email: email, Password: password, FullName: name}, nil
}

// Order asks for the payment card and the addresses of an order.
func (p *Prompter) Order() (checkout.Request, error) {
	var req checkout.Request
	var err error
	if req.Card.Number, err = p.Secret("Card number: "); err != nil {
		return req, err
	}
	if req.Card.Brand, err = p.Line("Card brand (optional): "); err != nil {
		return req, err
	}
	if req.ShippingAddress, err = p.Line("Shipping address: "); err != nil {
		return req, err
	}
	if req.BillingAddress, err = p.Line("Billing address (empty = same): "); err != nil {
		return req, err
	}
	if req.BillingAddress == "" {
		req.BillingAddress = req.ShippingAddress
	}
	return req, nil
}
