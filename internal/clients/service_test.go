package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
)

type memoryRepo struct {
	clients   map[int64]Client
	documents map[int64]int
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		clients:   make(map[int64]Client),
		documents: make(map[int64]int),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	var out []Client
	term := NormalizeSearch(req.Search)
	for _, c := range r.clients {
		if term != "" && !containsNormalized(c.Name, term) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func containsNormalized(name, term string) bool {
	normalized := NormalizeSearch(name)
	for i := 0; i+len(term) <= len(normalized); i++ {
		if normalized[i:i+len(term)] == term {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(ctx context.Context, c Client) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.clients[c.ID] = c
	return c.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	c, ok := r.clients[id]
	if !ok {
		return shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			c.Name = v.(string)
		case "contact":
			c.Contact = v.(*string)
		case "phone":
			c.Phone = v.(*string)
		case "email":
			c.Email = v.(*string)
		case "address":
			c.Address = v.(*string)
		}
	}
	c.UpdatedAt = time.Now()
	r.clients[id] = c
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(r.clients, id)
	return nil
}

func (r *memoryRepo) CountDocuments(ctx context.Context, clientID int64) (int, error) {
	return r.documents[clientID], nil
}

func TestCreateClientRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	c, err := svc.Create(context.Background(), CreateRequest{Name: "Entreprise Kaboré"})
	require.NoError(t, err)
	require.Equal(t, "Entreprise Kaboré", c.Name)
	require.Zero(t, c.TotalDelivered)
	require.Zero(t, c.TotalOwed)
}

func TestUpdateClientIdentityOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), CreateRequest{Name: "Entreprise Kaboré"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(context.Background(), c.ID, UpdateRequest{Name: &empty})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	phone := "+226 70 00 00 00"
	updated, err := svc.Update(context.Background(), c.ID, UpdateRequest{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, &phone, updated.Phone)
}

func TestDeleteClientWithDocumentsRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), CreateRequest{Name: "Entreprise Kaboré"})
	require.NoError(t, err)
	repo.documents[c.ID] = 3

	err = svc.Delete(context.Background(), c.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	repo.documents[c.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), c.ID))
}

func TestNormalizeSearch(t *testing.T) {
	require.Equal(t, "traore", NormalizeSearch("Traoré"))
	require.Equal(t, "ouedraogo", NormalizeSearch("  Ouédraogo "))
	require.Equal(t, "kabore & fils", NormalizeSearch("Kaboré & Fils"))
}

func TestListSearchIsAccentInsensitive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Entreprise Traoré"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{Name: "Kaboré BTP"})
	require.NoError(t, err)

	out, total, err := svc.List(context.Background(), ListRequest{Search: "traore"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Entreprise Traoré", out[0].Name)
}
