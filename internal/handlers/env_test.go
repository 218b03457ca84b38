package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/hash"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/session"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Wishlist *WishlistHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Auth:     &AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
		Catalog:  &CatalogHandler{DB: db},
		Cart:     &CartHandler{DB: db},
		Checkout: &CheckoutHandler{DB: db},
		Orders:   &OrderHandler{DB: db},
		Wishlist: &WishlistHandler{DB: db},
	}
}

// doJSONRequest builds an echo context carrying the given session and, when
// userID > 0, an authenticated identity.
func (env *testEnv) doJSONRequest(method, target string, body any, sess *session.Session, userID uint) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if sess != nil {
		c.Set("session", sess)
	}
	if userID > 0 {
		c.Set("userID", userID)
	}
	return rec, c
}

// doFormRequest is the urlencoded-form variant used by the cart update
// route, whose fields are named per line.
func (env *testEnv) doFormRequest(method, target string, fields map[string]string, sess *session.Session) (*httptest.ResponseRecorder, echo.Context) {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if sess != nil {
		c.Set("session", sess)
	}
	return rec, c
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (env *testEnv) createUser(username, email, password string) models.User {
	env.T.Helper()
	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createProduct(name, price string, categoryID uint) models.Product {
	env.T.Helper()
	p := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		ImageURL:    "/static/images/test.jpg",
		CategoryID:  categoryID,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) createCategory(name string) models.Category {
	env.T.Helper()
	cat := models.Category{Name: name, Description: name}
	require.NoError(env.T, env.DB.Create(&cat).Error)
	return cat
}
