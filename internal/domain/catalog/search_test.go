package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	products []Product
	err      error
}

func (s *stubRepo) List(_ context.Context) ([]Product, error) {
	return s.products, s.err
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) GetByIDs(_ context.Context, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, err := s.GetByID(context.Background(), id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func testCatalog() *stubRepo {
	price := decimal.NewFromInt(1)
	return &stubRepo{products: []Product{
		{ID: "p1", Name: "Yellow Corn", Category: "grains", Price: price},
		{ID: "p2", Name: "Maíz Blanco", Category: "grains", Price: price},
		{ID: "p3", Name: "Avocado Hass", Category: "fruits", Price: price},
		{ID: "p4", Name: "Black Caraotas", Category: "legumes", Price: price},
	}}
}

func TestSearch_Substring(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "corn")
	require.NoError(t, err)
	require.Len(t, got, 2, "corn should also match maíz via synonyms")
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)
}

func TestSearch_SynonymBothDirections(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "beans")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p4", got[0].ID)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "AVOCADO")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
}

func TestSearch_Category(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "grains")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch_BlankReturnsAll(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSearch_NoMatch(t *testing.T) {
	s := NewSearcher(testCatalog())

	got, err := s.Search(context.Background(), "dragonfruit")
	require.NoError(t, err)
	assert.Empty(t, got)
}
