package gateway

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid indicates a malformed record.
	ErrInvalid = errors.New("invalid")
)

// Order states.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
)

// Table states.
const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
)

// Table is a restaurant table. Number is the marker ordinal on the line.
type Table struct {
	ID       int    `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// MenuItem is a dish.
type MenuItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   bool    `json:"available"`
}

// OrderItem is a line of an order.
type OrderItem struct {
	MenuItemID          int    `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// Order is placed by a table.
type Order struct {
	ID          int         `json:"id"`
	TableID     int         `json:"table_id"`
	Items       []OrderItem `json:"items"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Store keeps the restaurant records in memory.
type Store struct {
	Now func() time.Time

	tables map[int]Table
	menu   map[int]MenuItem
	orders map[int]Order
	ids    [3]int // last ids of tables, menu items and orders
	lock   sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		Now:    time.Now,
		tables: make(map[int]Table),
		menu:   make(map[int]MenuItem),
		orders: make(map[int]Order),
	}
}

// Tables lists tables ordered by id.
func (s *Store) Tables() []Table {
	s.lock.RLock()
	defer s.lock.RUnlock()
	tables := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables
}

// Table returns a table by id.
func (s *Store) Table(id int) (Table, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return t, ErrNotFound
	}
	return t, nil
}

// AddTable creates a table. Ids are assigned by the store.
func (s *Store) AddTable(t Table) (Table, error) {
	if t.Number <= 0 || t.Capacity < 0 {
		return t, ErrInvalid
	}
	switch t.Status {
	case "":
		t.Status = TableAvailable
	case TableAvailable, TableOccupied, TableReserved:
	default:
		return t, ErrInvalid
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.ids[0]++
	t.ID = s.ids[0]
	s.tables[t.ID] = t
	return t, nil
}

// Menu lists menu items ordered by id.
func (s *Store) Menu() []MenuItem {
	s.lock.RLock()
	defer s.lock.RUnlock()
	items := make([]MenuItem, 0, len(s.menu))
	for _, item := range s.menu {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// AddMenuItem creates a menu item.
func (s *Store) AddMenuItem(item MenuItem) (MenuItem, error) {
	if item.Name == "" || item.Price < 0 {
		return item, ErrInvalid
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.ids[1]++
	item.ID = s.ids[1]
	s.menu[item.ID] = item
	return item, nil
}

// AddOrder places an order for an existing table.
func (s *Store) AddOrder(o Order) (Order, error) {
	if len(o.Items) == 0 {
		return o, ErrInvalid
	}
	switch o.Status {
	case "":
		o.Status = OrderPending
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered:
	default:
		return o, ErrInvalid
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.tables[o.TableID]; !ok {
		return o, ErrNotFound
	}
	s.ids[2]++
	o.ID = s.ids[2]
	o.CreatedAt = s.Now()
	s.orders[o.ID] = o
	return o, nil
}

// Orders lists orders ordered by id, optionally with the status only.
func (s *Store) Orders(status string) []Order {
	s.lock.RLock()
	defer s.lock.RUnlock()
	orders := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

// Order returns an order by id.
func (s *Store) Order(id int) (Order, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return o, ErrNotFound
	}
	return o, nil
}

// SetOrderStatus updates the order status and returns the order with
// the number of its table.
func (s *Store) SetOrderStatus(id int, status string) (Order, int, error) {
	switch status {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered:
	default:
		return Order{}, 0, ErrInvalid
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return o, 0, ErrNotFound
	}
	o.Status = status
	s.orders[id] = o
	return o, s.tables[o.TableID].Number, nil
}
