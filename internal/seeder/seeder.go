package seeder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/schollz/progressbar/v3"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
)

// DefaultOrderCount is how many demo orders a plain `brioche seed` creates.
const DefaultOrderCount = 300

// demoPassword is the password for every seeded staff account.
const demoPassword = "Brioche1"

var fake = faker.New()

var demoProducts = []entity.Product{
	{Name: "Butter Croissant", Price: 320},
	{Name: "Pain au Chocolat", Price: 380},
	{Name: "Sourdough Loaf", Price: 650},
	{Name: "Baguette", Price: 290},
	{Name: "Cinnamon Roll", Price: 420},
	{Name: "Blueberry Muffin", Price: 350},
	{Name: "Apple Turnover", Price: 390},
	{Name: "Brioche Bun", Price: 280},
	{Name: "Raisin Swirl", Price: 360},
	{Name: "Rye Bread", Price: 580},
	{Name: "Lemon Tart", Price: 480},
	{Name: "Carrot Cake Slice", Price: 450},
}

var demoLocations = []string{"Bakery", "Store"}

var dueTimes = []string{"08:00", "09:30", "10:00", "11:15", "12:00", "14:00", "16:00", "17:30"}

var itemComments = []string{"sliced", "no nuts", "extra crispy", "gift wrapped", "birthday candles"}

// Seeder fills the database with demo data for local setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Run seeds staff, pickup locations, products, and orderCount demo orders.
// Staff, locations, and products are upserts; orders are appended.
func (s *Seeder) Run(ctx context.Context, orderCount int) error {
	if err := s.Users(ctx); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := s.PickupLocations(ctx); err != nil {
		return fmt.Errorf("seed pickup locations: %w", err)
	}
	if err := s.Products(ctx); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if err := s.Orders(ctx, orderCount); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}
	return nil
}

// Users seeds the three locked demo accounts plus a few generated staff.
func (s *Seeder) Users(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []*entity.User{
		{Email: "admin@brioche.dev", Role: entity.RoleAdmin, FirstName: "Ada", LastName: "Crumb", Locked: true},
		{Email: "baker@brioche.dev", Role: entity.RoleBaker, FirstName: "Benoit", LastName: "Levain", Locked: true},
		{Email: "barista@brioche.dev", Role: entity.RoleBarista, FirstName: "Bianca", LastName: "Crema", Locked: true},
	}
	for i := 0; i < 3; i++ {
		person := fake.Person()
		users = append(users, &entity.User{
			Email:     fmt.Sprintf("staff%d@brioche.dev", i+1),
			Role:      entity.Roles[rand.Intn(len(entity.Roles))],
			FirstName: person.FirstName(),
			LastName:  person.LastName(),
		})
	}

	for _, user := range users {
		user.Version = 1
		user.PasswordHash = string(hash)
		if _, err := s.db.NewInsert().Model(user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded users", zap.Int("count", len(users)), zap.String("password", demoPassword))
	}
	return nil
}

// PickupLocations seeds the two demo pickup points.
func (s *Seeder) PickupLocations(ctx context.Context) error {
	for _, name := range demoLocations {
		location := &entity.PickupLocation{Name: name, Version: 1}
		if _, err := s.db.NewInsert().Model(location).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded pickup locations", zap.Int("count", len(demoLocations)))
	}
	return nil
}

// Products seeds the bakery catalog.
func (s *Seeder) Products(ctx context.Context) error {
	for _, sample := range demoProducts {
		product := sample
		product.Version = 1
		if _, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(demoProducts)))
	}
	return nil
}

// Orders appends count demo orders spread from two years back to one month
// ahead, so the dashboard's three-year sales grid has data to show. Past
// orders are mostly delivered, future ones mostly new or confirmed.
func (s *Seeder) Orders(ctx context.Context, count int) error {
	if count <= 0 {
		count = DefaultOrderCount
	}

	var users []*entity.User
	if err := s.db.NewSelect().Model(&users).Scan(ctx); err != nil {
		return err
	}
	var products []*entity.Product
	if err := s.db.NewSelect().Model(&products).Scan(ctx); err != nil {
		return err
	}
	var locations []*entity.PickupLocation
	if err := s.db.NewSelect().Model(&locations).Scan(ctx); err != nil {
		return err
	}
	if len(users) == 0 || len(products) == 0 || len(locations) == 0 {
		return errors.New("seed users, products, and pickup locations before orders")
	}

	now := time.Now()
	bar := progressbar.Default(int64(count), "orders")
	for i := 0; i < count; i++ {
		order := buildOrder(users, products, locations, now)
		if err := s.insertOrder(ctx, order); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", count))
	}
	return nil
}

func buildOrder(users []*entity.User, products []*entity.Product, locations []*entity.PickupLocation, now time.Time) *entity.Order {
	dueDay := fake.Time().TimeBetween(now.AddDate(-2, 0, 0), now.AddDate(0, 1, 0))
	dueDate := time.Date(dueDay.Year(), dueDay.Month(), dueDay.Day(), 0, 0, 0, 0, time.UTC)
	placedAt := dueDate.AddDate(0, 0, -1-rand.Intn(13))

	actor := users[rand.Intn(len(users))]
	order := entity.NewOrder(actor, placedAt)
	order.CreatedAt = placedAt
	order.DueDate = dueDate
	order.DueTime = dueTimes[rand.Intn(len(dueTimes))]
	order.PickupLocationID = locations[rand.Intn(len(locations))].ID

	person := fake.Person()
	order.Customer = &entity.Customer{
		FullName:    person.Name(),
		PhoneNumber: fake.Phone().Number(),
		CreatedAt:   placedAt,
	}
	if rand.Intn(3) == 0 {
		order.Customer.Details = fake.Lorem().Sentence(6)
	}

	itemCount := 1 + rand.Intn(3)
	for i := 0; i < itemCount; i++ {
		product := products[rand.Intn(len(products))]
		item := &entity.OrderItem{
			ProductID: product.ID,
			Quantity:  1 + rand.Intn(4),
		}
		if rand.Intn(4) == 0 {
			item.Comment = itemComments[rand.Intn(len(itemComments))]
		}
		order.Items = append(order.Items, item)
	}

	at := placedAt
	for _, state := range statePath(randomState(dueDate, now)) {
		at = at.Add(time.Duration(1+rand.Intn(48)) * time.Hour)
		if at.After(now) {
			at = now
		}
		order.ChangeState(actor, state, at)
	}

	return order
}

// randomState weights states by where the due date sits relative to now.
func randomState(dueDate, now time.Time) entity.OrderState {
	r := rand.Intn(100)
	if dueDate.Before(now) {
		switch {
		case r < 70:
			return entity.OrderStateDelivered
		case r < 85:
			return entity.OrderStateCancelled
		case r < 95:
			return entity.OrderStateReady
		default:
			return entity.OrderStateProblem
		}
	}
	switch {
	case r < 45:
		return entity.OrderStateNew
	case r < 85:
		return entity.OrderStateConfirmed
	case r < 95:
		return entity.OrderStateReady
	default:
		return entity.OrderStateProblem
	}
}

// statePath lists the transitions that lead from new to target, so seeded
// orders carry a plausible history trail.
func statePath(target entity.OrderState) []entity.OrderState {
	switch target {
	case entity.OrderStateConfirmed:
		return []entity.OrderState{entity.OrderStateConfirmed}
	case entity.OrderStateReady:
		return []entity.OrderState{entity.OrderStateConfirmed, entity.OrderStateReady}
	case entity.OrderStateDelivered:
		return []entity.OrderState{entity.OrderStateConfirmed, entity.OrderStateReady, entity.OrderStateDelivered}
	case entity.OrderStateCancelled:
		return []entity.OrderState{entity.OrderStateCancelled}
	case entity.OrderStateProblem:
		return []entity.OrderState{entity.OrderStateConfirmed, entity.OrderStateProblem}
	default:
		return nil
	}
}

func (s *Seeder) insertOrder(ctx context.Context, order *entity.Order) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order.Customer).Exec(ctx); err != nil {
			return err
		}
		order.CustomerID = order.Customer.ID
		order.Version = 1
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}

		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
			return err
		}

		for _, entry := range order.History {
			entry.OrderID = order.ID
		}
		_, err := tx.NewInsert().Model(&order.History).Exec(ctx)
		return err
	})
}
