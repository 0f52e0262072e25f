package storefront_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockConfig implements storefront.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetCookieName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetFrontendURL() string {
	args := m.Called()
	return args.String(0)
}

func newMockConfig() *MockConfig {
	cfg := new(MockConfig)
	cfg.On("GetSigningKey").Return("test-signing-key")
	cfg.On("GetTokenExpiration").Return(24)
	cfg.On("GetIssuer").Return("test-issuer")
	cfg.On("GetCookieName").Return("token")
	cfg.On("GetFrontendURL").Return("http://localhost:7777")
	return cfg
}

// MockMailer implements storefront.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	args := m.Called(ctx, to, resetURL)
	return args.Error(0)
}

// MockTokenService implements storefront.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (*storefront.SessionClaims, error) {
	args := m.Called(tokenString)
	var claims *storefront.SessionClaims
	if v := args.Get(0); v != nil {
		claims = v.(*storefront.SessionClaims)
	}
	return claims, args.Error(1)
}

// MockRepositoryManager implements storefront.RepositoryManager. RunInTx
// records the expectation and then actually runs the body with a zero tx so
// handler logic under test executes against the repo mocks.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() storefront.Users {
	args := m.Called()
	return args.Get(0).(storefront.Users)
}

func (m *MockRepositoryManager) Items() storefront.Items {
	args := m.Called()
	return args.Get(0).(storefront.Items)
}

func (m *MockRepositoryManager) CartItems() storefront.CartItems {
	args := m.Called()
	return args.Get(0).(storefront.CartItems)
}

// MockUsers stubs the methods the handlers reach for; the embedded interface
// covers the rest and panics if an unexpected method is hit.
type MockUsers struct {
	mock.Mock
	storefront.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*storefront.User, error) {
	args := m.Called(ctx, id)
	return userResult(args)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*storefront.User, error) {
	args := m.Called(ctx, email)
	return userResult(args)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*storefront.User, error) {
	args := m.Called(ctx, tx, email)
	return userResult(args)
}

func (m *MockUsers) GetSessionUser(ctx context.Context, id string) (*storefront.User, error) {
	args := m.Called(ctx, id)
	return userResult(args)
}

func (m *MockUsers) ListAll(ctx context.Context) ([]*storefront.User, error) {
	args := m.Called(ctx)
	var users []*storefront.User
	if v := args.Get(0); v != nil {
		users = v.([]*storefront.User)
	}
	return users, args.Error(1)
}

func (m *MockUsers) FindByResetToken(ctx context.Context, tx bun.IDB, token string) (*storefront.User, error) {
	args := m.Called(ctx, tx, token)
	return userResult(args)
}

func (m *MockUsers) SetResetToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiry time.Time) error {
	args := m.Called(ctx, tx, id, token, expiry)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (*storefront.User, error) {
	args := m.Called(ctx, id, passwordHash)
	return userResult(args)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (*storefront.User, error) {
	args := m.Called(ctx, tx, id, passwordHash)
	return userResult(args)
}

func (m *MockUsers) Create(ctx context.Context, record *storefront.User, criteria ...repository.InsertCriteria) (*storefront.User, error) {
	args := m.Called(ctx, record)
	return userResult(args)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *storefront.User, criteria ...repository.InsertCriteria) (*storefront.User, error) {
	args := m.Called(ctx, tx, record)
	return userResult(args)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *storefront.User, criteria ...repository.UpdateCriteria) (*storefront.User, error) {
	args := m.Called(ctx, tx, record)
	return userResult(args)
}

func userResult(args mock.Arguments) (*storefront.User, error) {
	var user *storefront.User
	if v := args.Get(0); v != nil {
		user = v.(*storefront.User)
	}
	return user, args.Error(1)
}

// MockItems stubs the item repository
type MockItems struct {
	mock.Mock
	storefront.Items
}

func (m *MockItems) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*storefront.Item, error) {
	args := m.Called(ctx, id)
	return itemResult(args)
}

func (m *MockItems) GetProjection(ctx context.Context, id string) (*storefront.Item, error) {
	args := m.Called(ctx, id)
	return itemResult(args)
}

func (m *MockItems) ListPage(ctx context.Context, limit, offset int) ([]*storefront.Item, error) {
	args := m.Called(ctx, limit, offset)
	var items []*storefront.Item
	if v := args.Get(0); v != nil {
		items = v.([]*storefront.Item)
	}
	return items, args.Error(1)
}

func (m *MockItems) Create(ctx context.Context, record *storefront.Item, criteria ...repository.InsertCriteria) (*storefront.Item, error) {
	args := m.Called(ctx, record)
	return itemResult(args)
}

func (m *MockItems) CreateTx(ctx context.Context, tx bun.IDB, record *storefront.Item, criteria ...repository.InsertCriteria) (*storefront.Item, error) {
	args := m.Called(ctx, tx, record)
	return itemResult(args)
}

func (m *MockItems) DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func itemResult(args mock.Arguments) (*storefront.Item, error) {
	var item *storefront.Item
	if v := args.Get(0); v != nil {
		item = v.(*storefront.Item)
	}
	return item, args.Error(1)
}

// MockCartItems stubs the cart repository
type MockCartItems struct {
	mock.Mock
	storefront.CartItems
}

func (m *MockCartItems) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*storefront.CartItem, error) {
	args := m.Called(ctx, id)
	return cartResult(args)
}

func (m *MockCartItems) GetForUserAndItem(ctx context.Context, tx bun.IDB, userID, itemID uuid.UUID) (*storefront.CartItem, error) {
	args := m.Called(ctx, tx, userID, itemID)
	return cartResult(args)
}

func (m *MockCartItems) Increment(ctx context.Context, tx bun.IDB, id uuid.UUID) (*storefront.CartItem, error) {
	args := m.Called(ctx, tx, id)
	return cartResult(args)
}

func (m *MockCartItems) CreateTx(ctx context.Context, tx bun.IDB, record *storefront.CartItem, criteria ...repository.InsertCriteria) (*storefront.CartItem, error) {
	args := m.Called(ctx, tx, record)
	return cartResult(args)
}

func (m *MockCartItems) ListForUser(ctx context.Context, userID uuid.UUID) ([]*storefront.CartItem, error) {
	args := m.Called(ctx, userID)
	var entries []*storefront.CartItem
	if v := args.Get(0); v != nil {
		entries = v.([]*storefront.CartItem)
	}
	return entries, args.Error(1)
}

func (m *MockCartItems) DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func cartResult(args mock.Arguments) (*storefront.CartItem, error) {
	var entry *storefront.CartItem
	if v := args.Get(0); v != nil {
		entry = v.(*storefront.CartItem)
	}
	return entry, args.Error(1)
}

// MockContext mocks router.Context for middleware tests
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
