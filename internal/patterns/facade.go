package patterns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/patternshell/internal/command"
	"github.com/dshills/patternshell/internal/console"
)

// Facade errors.
var (
	ErrUnknownItem       = errors.New("unknown item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentDeclined   = errors.New("payment declined")
)

// Inventory tracks stock per item.
type Inventory struct {
	mu    sync.Mutex
	stock map[string]int
	price map[string]float64
}

// NewInventory creates an inventory with the demo catalog.
func NewInventory() *Inventory {
	return &Inventory{
		stock: map[string]int{"book": 5, "lamp": 2, "chair": 1},
		price: map[string]float64{"book": 12.50, "lamp": 30, "chair": 85},
	}
}

// Reserve takes qty units of item out of stock and returns the unit price.
func (inv *Inventory) Reserve(item string, qty int) (float64, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	have, ok := inv.stock[item]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownItem, item)
	}
	if have < qty {
		return 0, fmt.Errorf("%w: %d %s left", ErrInsufficientStock, have, item)
	}
	inv.stock[item] = have - qty
	return inv.price[item], nil
}

// Release returns qty units of item to stock.
func (inv *Inventory) Release(item string, qty int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stock[item] += qty
}

// Levels returns item names sorted with their stock.
func (inv *Inventory) Levels() ([]string, map[string]int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	names := make([]string, 0, len(inv.stock))
	levels := make(map[string]int, len(inv.stock))
	for k, v := range inv.stock {
		names = append(names, k)
		levels[k] = v
	}
	sort.Strings(names)
	return names, levels
}

// Payments charges and refunds amounts up to a limit per charge.
type Payments struct {
	mu      sync.Mutex
	Limit   float64
	charged float64
}

// Charge records a payment.
func (p *Payments) Charge(amount float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Limit > 0 && amount > p.Limit {
		return fmt.Errorf("%w: %.2f exceeds limit %.2f", ErrPaymentDeclined, amount, p.Limit)
	}
	p.charged += amount
	return nil
}

// Refund reverses a payment.
func (p *Payments) Refund(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charged -= amount
}

// Charged returns the net amount charged.
func (p *Payments) Charged() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charged
}

// Shipping hands out tracking numbers.
type Shipping struct {
	mu   sync.Mutex
	next int
}

// Ship returns a tracking number.
func (s *Shipping) Ship(item string, qty int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("TRK-%04d", s.next)
}

// Receipt describes a placed order.
type Receipt struct {
	Item     string
	Quantity int
	Amount   float64
	Tracking string
}

// OrderFacade places orders across the three subsystems.
type OrderFacade struct {
	Inventory *Inventory
	Payments  *Payments
	Shipping  *Shipping
}

// NewOrderFacade creates a facade over fresh subsystems.
func NewOrderFacade() *OrderFacade {
	return &OrderFacade{
		Inventory: NewInventory(),
		Payments:  &Payments{Limit: 200},
		Shipping:  &Shipping{},
	}
}

// PlaceOrder reserves stock, charges and ships. Stock is released if the
// payment fails.
func (f *OrderFacade) PlaceOrder(item string, qty int) (Receipt, error) {
	if qty < 1 {
		return Receipt{}, fmt.Errorf("%w: quantity must be positive", command.ErrInvalidArgument)
	}
	price, err := f.Inventory.Reserve(item, qty)
	if err != nil {
		return Receipt{}, err
	}
	amount := price * float64(qty)
	if err := f.Payments.Charge(amount); err != nil {
		f.Inventory.Release(item, qty)
		return Receipt{}, err
	}
	return Receipt{
		Item:     item,
		Quantity: qty,
		Amount:   amount,
		Tracking: f.Shipping.Ship(item, qty),
	}, nil
}

// Cancel refunds an order and returns its stock.
func (f *OrderFacade) Cancel(r Receipt) {
	f.Payments.Refund(r.Amount)
	f.Inventory.Release(r.Item, r.Quantity)
}

type orderCmd struct {
	facade   *OrderFacade
	printer  *console.Printer
	Item     string
	Quantity int
	receipt  Receipt
}

func (c *orderCmd) Execute(context.Context) error {
	r, err := c.facade.PlaceOrder(c.Item, c.Quantity)
	if err != nil {
		return err
	}
	c.receipt = r
	c.printer.Successf("ordered %d %s for %.2f, tracking %s", r.Quantity, r.Item, r.Amount, r.Tracking)
	return nil
}

func (c *orderCmd) Undo(context.Context) error {
	c.facade.Cancel(c.receipt)
	c.printer.Infof("cancelled order %s", c.receipt.Tracking)
	return nil
}

func (c *orderCmd) Description() string {
	return fmt.Sprintf("order %d %s", c.Quantity, c.Item)
}

func registerFacade(add addFunc, env Env) {
	facade := NewOrderFacade()
	p := env.Printer

	add(command.Descriptor{
		Group: GroupFacade,
		Name:  "order",
		Help:  "place an order through the facade",
		Params: []command.Parameter{
			command.NewParameter("item", command.String, func(c *orderCmd, v string) { c.Item = v }),
			command.NewParameter("quantity", command.Int, func(c *orderCmd, v int) { c.Quantity = v }).Optional(1),
		},
	}, func() (command.Command, error) { return &orderCmd{facade: facade, printer: p}, nil })

	add(command.Descriptor{
		Group: GroupFacade,
		Name:  "stock",
		Help:  "show inventory and payments",
	}, func() (command.Command, error) {
		return command.Func(func(context.Context) error {
			names, levels := facade.Inventory.Levels()
			for _, n := range names {
				p.Printf(console.RolePlain, "%-8s %d", n, levels[n])
			}
			p.Printf(console.RoleMuted, "charged: %.2f", facade.Payments.Charged())
			return nil
		}), nil
	})
}
