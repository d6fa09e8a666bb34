package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recipeshop/internal/db"
	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func createUser(t *testing.T, gormDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, gormDB.Create(user).Error)
	return user
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	repo := NewUserRepository(gormDB)

	user := &model.User{Email: "a@b.com", Name: "A", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.Create(ctx, &model.User{Email: "a@b.com", Name: "B", PasswordHash: "hash"})
	assert.True(t, IsDuplicate(err))

	found.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, found))
	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), apperrors.ErrNotFound)
}

func TestUserRepository_DeleteCascadesOwnedRows(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	user := createUser(t, gormDB, "owner@example.com")
	require.NoError(t, gormDB.Create(&model.Tag{UserID: user.ID, Name: "vegan"}).Error)

	require.NoError(t, NewUserRepository(gormDB).Delete(ctx, user.ID))

	var n int64
	require.NoError(t, gormDB.Model(&model.Tag{}).Count(&n).Error)
	assert.Zero(t, n)
}

func seedProducts(t *testing.T, gormDB *gorm.DB) {
	t.Helper()
	products := []model.Product{
		{Name: "Coffee Beans", Description: "Dark roast", Price: price("12.50"), Stock: 10},
		{Name: "Green Tea", Description: "Loose leaf", Price: price("6.00"), Stock: 0},
		{Name: "Teapot", Description: "Ceramic", Price: price("30.00"), Stock: 3},
	}
	require.NoError(t, gormDB.Create(&products).Error)
}

func productNames(products []model.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestProductRepository_List(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	seedProducts(t, gormDB)
	repo := NewProductRepository(gormDB)

	p6 := price("6")
	p10 := price("10")
	tests := []struct {
		name  string
		query ProductQuery
		want  []string
	}{
		{"default order", ProductQuery{}, []string{"Coffee Beans", "Green Tea", "Teapot"}},
		{"name iexact", ProductQuery{Name: "green tea"}, []string{"Green Tea"}},
		{"name icontains", ProductQuery{NameContains: "TEA"}, []string{"Green Tea", "Teapot"}},
		{"price exact", ProductQuery{Price: &p6}, []string{"Green Tea"}},
		{"price lt", ProductQuery{PriceLT: &p10}, []string{"Green Tea"}},
		{"price gt", ProductQuery{PriceGT: &p10}, []string{"Coffee Beans", "Teapot"}},
		{"price range", ProductQuery{PriceRange: &[2]decimal.Decimal{price("6"), price("12.50")}}, []string{"Coffee Beans", "Green Tea"}},
		{"search description", ProductQuery{Search: "ceramic"}, []string{"Teapot"}},
		{"ordering -price", ProductQuery{Ordering: "-price"}, []string{"Teapot", "Coffee Beans", "Green Tea"}},
		{"unknown ordering falls back", ProductQuery{Ordering: "password"}, []string{"Coffee Beans", "Green Tea", "Teapot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, productNames(products))
		})
	}
}

func TestProductRepository_ListMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := []model.Product{
		{Name: "100% Cocoa", Price: price("4")},
		{Name: "Milk_Chocolate", Price: price("3")},
		{Name: "Dark Chocolate", Description: "bitter! [70]", Price: price("5")},
	}
	require.NoError(t, gormDB.Create(&products).Error)
	repo := NewProductRepository(gormDB)

	tests := []struct {
		name  string
		query ProductQuery
		want  []string
	}{
		{"percent", ProductQuery{Search: "%"}, []string{"100% Cocoa"}},
		{"underscore", ProductQuery{NameContains: "_"}, []string{"Milk_Chocolate"}},
		{"escape char", ProductQuery{Search: "!"}, []string{"Dark Chocolate"}},
		{"bracket", ProductQuery{Search: "[70]"}, []string{"Dark Chocolate"}},
		{"underscore is not a wildcard", ProductQuery{NameContains: "k_c"}, []string{"Milk_Chocolate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, productNames(got))
		})
	}
}

func TestProductRepository_StatsAndCRUD(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	repo := NewProductRepository(gormDB)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.False(t, stats.MaxPrice.Valid)

	seedProducts(t, gormDB)
	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.True(t, stats.MaxPrice.Decimal.Equal(price("30")))
	assert.True(t, stats.MinPrice.Decimal.Equal(price("6")))

	found, err := repo.FindByIDs(ctx, []uint{1, 3, 99})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), apperrors.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	seedProducts(t, gormDB)
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")
	repo := NewOrderRepository(gormDB)

	order := &model.Order{UserID: alice.ID, Items: []model.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 3, Quantity: 1},
	}}
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	aliceScope := policy.Filter{OwnerID: alice.ID}
	bobScope := policy.Filter{OwnerID: bob.ID}
	staffScope := policy.Filter{Unscoped: true}

	loaded, err := repo.FindByID(ctx, aliceScope, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Coffee Beans", loaded.Items[0].Product.Name)
	assert.True(t, loaded.Total().Equal(price("55")))

	_, err = repo.FindByID(ctx, bobScope, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindByID(ctx, staffScope, order.ID)
	assert.NoError(t, err)

	bobOrders, err := repo.List(ctx, bobScope)
	require.NoError(t, err)
	assert.Empty(t, bobOrders)

	loaded.Status = model.OrderStatusConfirmed
	require.NoError(t, repo.Update(ctx, loaded, []model.OrderItem{{ProductID: 2, Quantity: 5}}))
	updated, err := repo.FindByID(ctx, aliceScope, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, uint(2), updated.Items[0].ProductID)

	assert.ErrorIs(t, repo.Delete(ctx, bobScope, order.ID), apperrors.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, aliceScope, order.ID))

	n, err := repo.CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = repo.FindByID(ctx, staffScope, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecipeRepository(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	vegan := model.Tag{UserID: alice.ID, Name: "vegan"}
	quick := model.Tag{UserID: alice.ID, Name: "quick"}
	foreign := model.Tag{UserID: bob.ID, Name: "bob's"}
	require.NoError(t, gormDB.Create(&vegan).Error)
	require.NoError(t, gormDB.Create(&quick).Error)
	require.NoError(t, gormDB.Create(&foreign).Error)
	salt := model.Ingredient{UserID: alice.ID, Name: "salt"}
	require.NoError(t, gormDB.Create(&salt).Error)

	repo := NewRecipeRepository(gormDB)

	owned, err := repo.FindTags(ctx, alice.ID, []uint{vegan.ID, quick.ID, foreign.ID})
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	soup := &model.Recipe{UserID: alice.ID, Title: "Tomato Soup", TimeMinutes: 20, Price: price("4.50"),
		Tags: []model.Tag{vegan}, Ingredients: []model.Ingredient{salt}}
	require.NoError(t, repo.Create(ctx, soup))
	salad := &model.Recipe{UserID: alice.ID, Title: "Quick Salad", TimeMinutes: 5, Price: price("3.00"),
		Tags: []model.Tag{quick}}
	require.NoError(t, repo.Create(ctx, salad))

	aliceScope := policy.Filter{OwnerID: alice.ID}
	all, err := repo.List(ctx, aliceScope, RecipeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, salad.ID, all[0].ID)
	assert.Equal(t, "vegan", all[1].Tags[0].Name)
	assert.Equal(t, "salt", all[1].Ingredients[0].Name)

	byTag, err := repo.List(ctx, aliceScope, RecipeQuery{TagIDs: []uint{quick.ID}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, salad.ID, byTag[0].ID)

	byIngredient, err := repo.List(ctx, aliceScope, RecipeQuery{IngredientIDs: []uint{salt.ID}})
	require.NoError(t, err)
	require.Len(t, byIngredient, 1)
	assert.Equal(t, soup.ID, byIngredient[0].ID)

	byTitle, err := repo.List(ctx, aliceScope, RecipeQuery{Title: "soup"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	wildcard, err := repo.List(ctx, aliceScope, RecipeQuery{Title: "_"})
	require.NoError(t, err)
	assert.Empty(t, wildcard)

	bobs, err := repo.List(ctx, policy.Filter{OwnerID: bob.ID}, RecipeQuery{})
	require.NoError(t, err)
	assert.Empty(t, bobs)
	_, err = repo.FindByID(ctx, policy.Filter{OwnerID: bob.ID}, soup.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	soup.Tags = []model.Tag{quick, vegan}
	soup.Title = "Spicy Tomato Soup"
	require.NoError(t, repo.Update(ctx, soup, true, false))
	reloaded, err := repo.FindByID(ctx, aliceScope, soup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spicy Tomato Soup", reloaded.Title)
	assert.Len(t, reloaded.Tags, 2)
	assert.Len(t, reloaded.Ingredients, 1)

	require.NoError(t, repo.UpdateImage(ctx, soup.ID, "recipes/soup.png"))
	reloaded, _ = repo.FindByID(ctx, aliceScope, soup.ID)
	assert.Equal(t, "recipes/soup.png", reloaded.Image)

	require.NoError(t, repo.Delete(ctx, aliceScope, soup.ID))
	var links int64
	require.NoError(t, gormDB.Table(recipeTagsTable).Where("recipe_id = ?", soup.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestRecipeRepository_WithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	alice := createUser(t, gormDB, "alice@example.com")
	repo := NewRecipeRepository(gormDB)

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx RecipeRepository) error {
		if err := tx.Create(ctx, &model.Recipe{UserID: alice.ID, Title: "Draft", Price: price("1")}); err != nil {
			return err
		}
		return apperrors.NewValidationError("tags", "invalid tag id 9")
	})
	require.Error(t, err)

	recipes, err := repo.List(ctx, policy.Filter{OwnerID: alice.ID}, RecipeQuery{})
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestLabelRepository(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")
	tags := NewTagRepository(gormDB)

	for _, name := range []string{"apple", "cherry", "banana"} {
		require.NoError(t, tags.Create(ctx, &model.Tag{UserID: alice.ID, Name: name}))
	}
	require.NoError(t, tags.Create(ctx, &model.Tag{UserID: bob.ID, Name: "zucchini"}))

	aliceScope := policy.Filter{OwnerID: alice.ID}
	list, err := tags.List(ctx, aliceScope)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "cherry", list[0].Name)
	assert.Equal(t, "apple", list[2].Name)

	_, err = tags.FindByID(ctx, aliceScope, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, tags.Delete(ctx, aliceScope, 4), apperrors.ErrNotFound)

	recipe := &model.Recipe{UserID: alice.ID, Title: "Pie", Price: price("2"), Tags: []model.Tag{list[0]}}
	require.NoError(t, NewRecipeRepository(gormDB).Create(ctx, recipe))
	require.NoError(t, tags.Delete(ctx, aliceScope, list[0].ID))

	reloaded, err := NewRecipeRepository(gormDB).FindByID(ctx, aliceScope, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Tags)

	ingredients := NewIngredientRepository(gormDB)
	salt := &model.Ingredient{UserID: alice.ID, Name: "salt"}
	require.NoError(t, ingredients.Create(ctx, salt))
	salt.Name = "sea salt"
	require.NoError(t, ingredients.Update(ctx, salt))
	got, err := ingredients.FindByID(ctx, aliceScope, salt.ID)
	require.NoError(t, err)
	assert.Equal(t, "sea salt", got.Name)
}
