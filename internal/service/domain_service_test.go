package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recipeshop/internal/db"
	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/repository"
	"recipeshop/internal/storage"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

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

func seedUser(t *testing.T, gormDB *gorm.DB, email string, staff bool) policy.Caller {
	t.Helper()
	user := &model.User{Email: email, Name: email, PasswordHash: "x", IsActive: true, IsStaff: staff}
	require.NoError(t, gormDB.Create(user).Error)
	return policy.Caller{UserID: user.ID, IsStaff: staff}
}

func requireFieldError(t *testing.T, err error, field string) *apperrors.ValidationError {
	t.Helper()
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, field)
	return verr
}

func TestOrderService(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	orders := repository.NewOrderRepository(gormDB)
	products := repository.NewProductRepository(gormDB)
	svc := NewOrderService(orders, products)

	alice := seedUser(t, gormDB, "alice@b.com", false)
	bob := seedUser(t, gormDB, "bob@b.com", false)
	admin := seedUser(t, gormDB, "admin@b.com", true)

	tea := &model.Product{Name: "Tea", Price: dec("6.00"), Stock: 5}
	pot := &model.Product{Name: "Teapot", Price: dec("30.00"), Stock: 1}
	require.NoError(t, products.Create(ctx, tea))
	require.NoError(t, products.Create(ctx, pot))

	order, err := svc.CreateOrder(ctx, alice, OrderInput{Items: []OrderItemInput{
		{ProductID: tea.ID, Quantity: 2},
		{ProductID: pot.ID, Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, alice.UserID, order.UserID)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Total().Equal(dec("42")))

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateOrder(ctx, alice, OrderInput{})
		requireFieldError(t, err, "items")

		_, err = svc.CreateOrder(ctx, alice, OrderInput{Items: []OrderItemInput{{ProductID: 999, Quantity: 1}}})
		verr := requireFieldError(t, err, "items")
		assert.Contains(t, verr.Fields["items"], "invalid product id 999")

		_, err = svc.CreateOrder(ctx, alice, OrderInput{Items: []OrderItemInput{{ProductID: tea.ID, Quantity: 0}}})
		requireFieldError(t, err, "items")

		_, err = svc.CreateOrder(ctx, alice, OrderInput{Status: "Shipped", Items: []OrderItemInput{{ProductID: tea.ID, Quantity: 1}}})
		requireFieldError(t, err, "status")
	})

	t.Run("other users cannot see the order", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, bob, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		confirmed := model.OrderStatusConfirmed
		_, err = svc.UpdateOrder(ctx, bob, order.ID, OrderPatch{Status: &confirmed})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		assert.ErrorIs(t, svc.DeleteOrder(ctx, bob, order.ID), apperrors.ErrNotFound)

		list, err := svc.ListOrders(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("staff see every order", func(t *testing.T) {
		list, err := svc.ListOrders(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		got, err := svc.GetOrder(ctx, admin, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("update replaces items", func(t *testing.T) {
		confirmed := model.OrderStatusConfirmed
		items := []OrderItemInput{{ProductID: pot.ID, Quantity: 3}}
		updated, err := svc.UpdateOrder(ctx, alice, order.ID, OrderPatch{Status: &confirmed, Items: &items})
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, "Teapot", updated.Items[0].Product.Name)
		assert.True(t, updated.Total().Equal(dec("90")))
	})

	t.Run("delete removes items", func(t *testing.T) {
		require.NoError(t, svc.DeleteOrder(ctx, alice, order.ID))
		n, err := orders.CountItems(ctx, order.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = svc.GetOrder(ctx, alice, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteOrder(ctx, alice, uuid.New()), apperrors.ErrNotFound)
	})
}

func TestLabelService(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	tags := NewTagService(repository.NewTagRepository(gormDB))
	ingredients := NewIngredientService(repository.NewIngredientRepository(gormDB))

	alice := seedUser(t, gormDB, "alice@b.com", false)
	bob := seedUser(t, gormDB, "bob@b.com", false)
	admin := seedUser(t, gormDB, "admin@b.com", true)

	for _, name := range []string{"Breakfast", "Vegan", "Dessert"} {
		_, err := tags.Create(ctx, alice, name)
		require.NoError(t, err)
	}
	_, err := tags.Create(ctx, bob, "Bob's")
	require.NoError(t, err)

	list, err := tags.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Vegan", list[0].Name)
	assert.Equal(t, "Breakfast", list[2].Name)

	// Staff get no bypass on owner-only collections.
	list, err = tags.List(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = tags.Create(ctx, alice, "  ")
	requireFieldError(t, err, "name")

	salt, err := ingredients.Create(ctx, alice, "Salt")
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, salt.UserID)

	_, err = ingredients.Rename(ctx, bob, salt.ID, "Pepper")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, ingredients.Delete(ctx, bob, salt.ID), apperrors.ErrNotFound)

	renamed, err := ingredients.Rename(ctx, alice, salt.ID, "Sea salt")
	require.NoError(t, err)
	assert.Equal(t, "Sea salt", renamed.Name)

	require.NoError(t, ingredients.Delete(ctx, alice, salt.ID))
	_, err = ingredients.Get(ctx, alice, salt.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecipeService(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	disk, err := storage.NewLocal(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	svc := NewRecipeService(repository.NewRecipeRepository(gormDB), disk)
	tags := NewTagService(repository.NewTagRepository(gormDB))
	ingredients := NewIngredientService(repository.NewIngredientRepository(gormDB))

	alice := seedUser(t, gormDB, "alice@b.com", false)
	bob := seedUser(t, gormDB, "bob@b.com", false)

	vegan, err := tags.Create(ctx, alice, "Vegan")
	require.NoError(t, err)
	quick, err := tags.Create(ctx, alice, "Quick")
	require.NoError(t, err)
	salt, err := ingredients.Create(ctx, alice, "Salt")
	require.NoError(t, err)
	bobsTag, err := tags.Create(ctx, bob, "Bob's")
	require.NoError(t, err)

	recipe, err := svc.CreateRecipe(ctx, alice, RecipeInput{
		Title:       "Soup",
		TimeMinutes: 20,
		Price:       dec("5.50"),
		Tags:        []uint{vegan.ID, vegan.ID},
		Ingredients: []uint{salt.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, recipe.UserID)
	require.Len(t, recipe.Tags, 1)
	require.Len(t, recipe.Ingredients, 1)

	t.Run("foreign tag is rejected without writing", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, alice, RecipeInput{
			Title: "Stolen", TimeMinutes: 1, Price: dec("1"),
			Tags: []uint{vegan.ID, bobsTag.ID},
		})
		verr := requireFieldError(t, err, "tags")
		assert.Contains(t, verr.Fields["tags"][0], "invalid tag id")

		var n int64
		require.NoError(t, gormDB.Model(&model.Recipe{}).Where("title = ?", "Stolen").Count(&n).Error)
		assert.Zero(t, n)

		foreign := []uint{bobsTag.ID}
		_, err = svc.UpdateRecipe(ctx, alice, recipe.ID, RecipePatch{Tags: &foreign})
		requireFieldError(t, err, "tags")

		got, err := svc.GetRecipe(ctx, alice, recipe.ID)
		require.NoError(t, err)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, vegan.ID, got.Tags[0].ID)
	})

	t.Run("missing ingredient is rejected", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, alice, RecipeInput{Title: "X", Price: dec("1"), Ingredients: []uint{9999}})
		verr := requireFieldError(t, err, "ingredients")
		assert.Equal(t, []string{"invalid ingredient id 9999"}, verr.Fields["ingredients"])
	})

	t.Run("partial update keeps untouched links", func(t *testing.T) {
		title := "Tomato soup"
		updated, err := svc.UpdateRecipe(ctx, alice, recipe.ID, RecipePatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Tomato soup", updated.Title)
		assert.Len(t, updated.Tags, 1)
		assert.Len(t, updated.Ingredients, 1)

		both := []uint{vegan.ID, quick.ID}
		updated, err = svc.UpdateRecipe(ctx, alice, recipe.ID, RecipePatch{Tags: &both})
		require.NoError(t, err)
		assert.Len(t, updated.Tags, 2)
	})

	t.Run("full update clears omitted links", func(t *testing.T) {
		patch := RecipeInput{Title: "Soup", TimeMinutes: 25, Price: dec("6")}.Patch()
		updated, err := svc.UpdateRecipe(ctx, alice, recipe.ID, patch)
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
		assert.Empty(t, updated.Ingredients)
		assert.Equal(t, 25, updated.TimeMinutes)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, alice, RecipeInput{Price: dec("1")})
		requireFieldError(t, err, "title")

		_, err = svc.CreateRecipe(ctx, alice, RecipeInput{Title: "Pricey", Price: dec("1000")})
		requireFieldError(t, err, "price")
	})

	t.Run("owner scoping", func(t *testing.T) {
		_, err := svc.GetRecipe(ctx, bob, recipe.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		title := "Hijacked"
		_, err = svc.UpdateRecipe(ctx, bob, recipe.ID, RecipePatch{Title: &title})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		_, err = svc.UploadImage(ctx, bob, recipe.ID, ImageUpload{Filename: "a.png", Body: bytes.NewReader(pngHeader)})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		list, err := svc.ListRecipes(ctx, bob, repository.RecipeQuery{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("image upload", func(t *testing.T) {
		_, err := svc.UploadImage(ctx, alice, recipe.ID, ImageUpload{Filename: "notes.txt", Body: bytes.NewReader([]byte("plain text"))})
		requireFieldError(t, err, "image")

		first, err := svc.UploadImage(ctx, alice, recipe.ID, ImageUpload{Filename: "photo.PNG", Body: bytes.NewReader(pngHeader)})
		require.NoError(t, err)
		assert.Regexp(t, `^uploads/recipe/[0-9a-f-]{36}\.png$`, first.Image)
		assert.FileExists(t, filepath.Join(disk.Root(), first.Image))
		assert.Equal(t, "http://localhost/media/"+first.Image, ImageURL(disk, first.Image))

		second, err := svc.UploadImage(ctx, alice, recipe.ID, ImageUpload{Filename: "photo.png", Body: bytes.NewReader(pngHeader)})
		require.NoError(t, err)
		assert.NotEqual(t, first.Image, second.Image)
		_, statErr := os.Stat(filepath.Join(disk.Root(), first.Image))
		assert.True(t, os.IsNotExist(statErr))

		require.NoError(t, svc.DeleteRecipe(ctx, alice, recipe.ID))
		_, statErr = os.Stat(filepath.Join(disk.Root(), second.Image))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestRecipeService_ListFilters(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	disk, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	svc := NewRecipeService(repository.NewRecipeRepository(gormDB), disk)
	tags := NewTagService(repository.NewTagRepository(gormDB))

	alice := seedUser(t, gormDB, "alice@b.com", false)
	vegan, err := tags.Create(ctx, alice, "Vegan")
	require.NoError(t, err)

	soup, err := svc.CreateRecipe(ctx, alice, RecipeInput{Title: "Lentil soup", Price: dec("4"), Tags: []uint{vegan.ID}})
	require.NoError(t, err)
	steak, err := svc.CreateRecipe(ctx, alice, RecipeInput{Title: "Steak", Price: dec("20")})
	require.NoError(t, err)

	all, err := svc.ListRecipes(ctx, alice, repository.RecipeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, steak.ID, all[0].ID)

	byTag, err := svc.ListRecipes(ctx, alice, repository.RecipeQuery{TagIDs: []uint{vegan.ID}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, soup.ID, byTag[0].ID)

	byTitle, err := svc.ListRecipes(ctx, alice, repository.RecipeQuery{Title: "SOUP"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
}
