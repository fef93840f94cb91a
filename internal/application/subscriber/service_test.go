package subscriber

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
	"github.com/stockwatch/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	users         map[int64]*User
	products      map[string]*Product
	subscriptions map[int64]map[string]bool
	upserted      []catalog.ProductSnapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[int64]*User),
		products:      make(map[string]*Product),
		subscriptions: make(map[int64]map[string]bool),
	}
}

func (s *fakeStore) SaveUser(_ context.Context, user User) error {
	if existing, ok := s.users[user.UserID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		return nil
	}
	u := user
	s.users[user.UserID] = &u
	return nil
}

func (s *fakeStore) FindUser(_ context.Context, userID int64) (*User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *fakeStore) UpdateUserLocation(_ context.Context, userID int64, postalCode, partitionID, partitionName string) error {
	user, ok := s.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	user.PostalCode = postalCode
	user.PartitionID = partitionID
	user.PartitionName = partitionName
	return nil
}

func (s *fakeStore) SetUserActive(_ context.Context, userID int64, active bool) error {
	if user, ok := s.users[userID]; ok {
		user.IsActive = active
	}
	return nil
}

func (s *fakeStore) UpsertProducts(_ context.Context, items []catalog.ProductSnapshot) error {
	s.upserted = append(s.upserted, items...)
	for _, item := range items {
		s.products[item.SKU] = &Product{
			SKU:      item.SKU,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			InStock:  item.InStock,
		}
	}
	return nil
}

func (s *fakeStore) FindProductBySKU(_ context.Context, sku string) (*Product, error) {
	product, ok := s.products[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return product, nil
}

func (s *fakeStore) AddSubscription(_ context.Context, userID int64, sku string) error {
	if s.subscriptions[userID] == nil {
		s.subscriptions[userID] = make(map[string]bool)
	}
	s.subscriptions[userID][sku] = true
	return nil
}

func (s *fakeStore) RemoveSubscription(_ context.Context, userID int64, sku string) error {
	if !s.subscriptions[userID][sku] {
		return shared.ErrNotFound
	}
	s.subscriptions[userID][sku] = false
	return nil
}

func (s *fakeStore) ActiveSubscriptions(_ context.Context, userID int64) ([]Subscription, error) {
	var out []Subscription
	for sku, active := range s.subscriptions[userID] {
		if active {
			out = append(out, Subscription{ProductSKU: sku, Product: s.products[sku]})
		}
	}
	return out, nil
}

func (s *fakeStore) DeactivateAllSubscriptions(_ context.Context, userID int64) error {
	for sku := range s.subscriptions[userID] {
		s.subscriptions[userID][sku] = false
	}
	return nil
}

type fakeResolver struct {
	err error
}

func (r fakeResolver) Resolve(_ context.Context, postalCode string) (*location.Resolution, error) {
	if r.err != nil {
		return nil, r.err
	}
	if res, ok := location.ResolveByRange(postalCode); ok {
		return res, nil
	}
	return nil, shared.ErrLocationNotServiceable
}

type fakeFetcher struct {
	items []catalog.ProductSnapshot
	err   error
}

func (f fakeFetcher) FetchCatalog(context.Context, *location.Resolution) ([]catalog.ProductSnapshot, error) {
	return f.items, f.err
}

func registeredUser(t *testing.T, service *Service, withLocation bool) {
	t.Helper()
	require.NoError(t, service.Register(context.Background(), 42, "asha", "Asha"))
	if withLocation {
		_, err := service.SetLocation(context.Background(), 42, "400063")
		require.NoError(t, err)
	}
}

func TestRegister(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, fakeResolver{}, fakeFetcher{}, zap.NewNop())

	require.NoError(t, service.Register(context.Background(), 42, "asha", "Asha"))
	user := store.users[42]
	require.NotNil(t, user)
	assert.True(t, user.IsActive)

	t.Run("re-registering reactivates without losing location", func(t *testing.T) {
		_, err := service.SetLocation(context.Background(), 42, "400063")
		require.NoError(t, err)
		require.NoError(t, service.Deactivate(context.Background(), 42))

		require.NoError(t, service.Register(context.Background(), 42, "asha", "Asha"))
		assert.True(t, store.users[42].IsActive)
		assert.Equal(t, "400063", store.users[42].PostalCode)
	})
}

func TestSetLocation(t *testing.T) {
	t.Run("stores resolved partition", func(t *testing.T) {
		store := newFakeStore()
		service := NewService(store, fakeResolver{}, fakeFetcher{}, zap.NewNop())
		registeredUser(t, service, false)

		res, err := service.SetLocation(context.Background(), 42, "400063")
		require.NoError(t, err)
		assert.Equal(t, "mumbai-br", res.PartitionName)
		assert.Equal(t, "400001", res.CanonicalCode)
		assert.Equal(t, "mumbai-br", store.users[42].PartitionName)
	})

	t.Run("unserviceable code leaves location unchanged", func(t *testing.T) {
		store := newFakeStore()
		service := NewService(store, fakeResolver{err: shared.ErrLocationNotServiceable}, fakeFetcher{}, zap.NewNop())
		registeredUser(t, service, false)

		_, err := service.SetLocation(context.Background(), 42, "999999")
		assert.ErrorIs(t, err, shared.ErrLocationNotServiceable)
		assert.Empty(t, store.users[42].PostalCode)
	})
}

func TestProducts(t *testing.T) {
	items := []catalog.ProductSnapshot{
		catalog.NewProductSnapshot("p2", "SHK200", "Shake 200ml", "shake", decimal.NewFromInt(50), decimal.Decimal{}, 0, "", ""),
		catalog.NewProductSnapshot("p1", "WHEY1", "Whey 1kg", "whey", decimal.NewFromInt(1999), decimal.Decimal{}, 5, "", ""),
	}

	t.Run("fetches, persists, and sorts by name", func(t *testing.T) {
		store := newFakeStore()
		service := NewService(store, fakeResolver{}, fakeFetcher{items: items}, zap.NewNop())
		registeredUser(t, service, true)

		products, err := service.Products(context.Background(), 42)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Shake 200ml", products[0].Name)
		assert.Equal(t, "Whey 1kg", products[1].Name)
		assert.Len(t, store.upserted, 2)
	})

	t.Run("requires a location", func(t *testing.T) {
		store := newFakeStore()
		service := NewService(store, fakeResolver{}, fakeFetcher{items: items}, zap.NewNop())
		registeredUser(t, service, false)

		_, err := service.Products(context.Background(), 42)
		assert.ErrorIs(t, err, ErrLocationNotSet)
	})

	t.Run("empty catalog is unavailable", func(t *testing.T) {
		store := newFakeStore()
		service := NewService(store, fakeResolver{}, fakeFetcher{}, zap.NewNop())
		registeredUser(t, service, true)

		_, err := service.Products(context.Background(), 42)
		assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)
	})
}

func TestSubscribeLifecycle(t *testing.T) {
	items := []catalog.ProductSnapshot{
		catalog.NewProductSnapshot("p1", "WHEY1", "Whey 1kg", "whey", decimal.NewFromInt(1999), decimal.Decimal{}, 5, "", ""),
	}
	store := newFakeStore()
	service := NewService(store, fakeResolver{}, fakeFetcher{items: items}, zap.NewNop())
	registeredUser(t, service, true)

	_, err := service.Products(context.Background(), 42)
	require.NoError(t, err)

	t.Run("subscribe to known sku", func(t *testing.T) {
		product, err := service.Subscribe(context.Background(), 42, "WHEY1")
		require.NoError(t, err)
		assert.Equal(t, "Whey 1kg", product.Name)

		subs, err := service.Subscriptions(context.Background(), 42)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "WHEY1", subs[0].ProductSKU)
	})

	t.Run("subscribe to unknown sku", func(t *testing.T) {
		_, err := service.Subscribe(context.Background(), 42, "NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		require.NoError(t, service.Unsubscribe(context.Background(), 42, "WHEY1"))
		subs, err := service.Subscriptions(context.Background(), 42)
		require.NoError(t, err)
		assert.Empty(t, subs)

		assert.ErrorIs(t, service.Unsubscribe(context.Background(), 42, "WHEY1"), shared.ErrNotFound)
	})
}

func TestDeactivate(t *testing.T) {
	items := []catalog.ProductSnapshot{
		catalog.NewProductSnapshot("p1", "WHEY1", "Whey 1kg", "whey", decimal.NewFromInt(1999), decimal.Decimal{}, 5, "", ""),
	}
	store := newFakeStore()
	service := NewService(store, fakeResolver{}, fakeFetcher{items: items}, zap.NewNop())
	registeredUser(t, service, true)

	_, err := service.Products(context.Background(), 42)
	require.NoError(t, err)
	_, err = service.Subscribe(context.Background(), 42, "WHEY1")
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(context.Background(), 42))
	assert.False(t, store.users[42].IsActive)

	subs, err := service.Subscriptions(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
