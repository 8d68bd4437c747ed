package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/goliatone/go-router"
	session "github.com/merxus/go-session"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// makeToken builds a compact token with the given payload claims. The
// signature segment is garbage on purpose: decoding never verifies it.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".c2ln"
}

func restaurantToken(t *testing.T, role string) string {
	t.Helper()
	return makeToken(t, map[string]any{
		"sub":          "uid-1",
		"email":        "owner@example.com",
		"role":         role,
		"type":         "restaurant",
		"restaurantId": "rest-42",
	})
}

// mustClaims builds a tagged claim variant through the public parser.
func mustClaims(t *testing.T, role, tenantType, tenantID string) session.TenantClaims {
	t.Helper()

	payload := &session.TokenPayload{
		UserRole:  role,
		Type:      tenantType,
		UserEmail: "user@example.com",
	}
	switch session.TenantType(tenantType) {
	case session.TenantRestaurant:
		payload.RestaurantID = tenantID
	case session.TenantVoice:
		payload.OfficeID = tenantID
	case session.TenantEstate:
		payload.AgentID = tenantID
	}

	claims, err := session.ParseTenantClaims(payload)
	require.NoError(t, err)
	return claims
}

// stubProvider is a scriptable IdentityProvider for lifecycle tests.
type stubProvider struct {
	mu        sync.Mutex
	principal *session.Principal
	signInErr error
	token     string
	tokenErr  error
	// forcedErr fails only forced token fetches, leaving the cached-token
	// path usable.
	forcedErr error
	// tokenGate, when set, holds IDToken calls open until the channel is
	// closed, so tests can interleave events with an in-flight fetch.
	tokenGate  chan struct{}
	tokenCalls int
	signOuts   int
	listeners  []func(*session.Principal)
	resetSent  []string
	resetErr   error
	verifyErr  error
	confirmErr error
}

var _ session.IdentityProvider = (*stubProvider)(nil)

func (s *stubProvider) SignIn(ctx context.Context, identifier, password string) (*session.Principal, error) {
	s.mu.Lock()
	if s.signInErr != nil {
		err := s.signInErr
		s.mu.Unlock()
		return nil, err
	}
	principal := &session.Principal{UID: "uid-1", Email: identifier}
	s.principal = principal
	listeners := append([]func(*session.Principal){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(principal)
	}
	return principal, nil
}

func (s *stubProvider) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.signOuts++
	s.principal = nil
	s.mu.Unlock()
	return nil
}

func (s *stubProvider) CurrentPrincipal(ctx context.Context) (*session.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, nil
}

func (s *stubProvider) IDToken(ctx context.Context, force bool) (string, error) {
	s.mu.Lock()
	s.tokenCalls++
	gate := s.tokenGate
	token := s.token
	err := s.tokenErr
	if force && s.forcedErr != nil {
		err = s.forcedErr
	}
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *stubProvider) SendPasswordReset(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resetSent = append(s.resetSent, email)
	return nil
}

func (s *stubProvider) VerifyPasswordResetCode(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return "owner@example.com", nil
}

func (s *stubProvider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmErr
}

func (s *stubProvider) OnAuthStateChanged(fn func(*session.Principal)) func() {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// fire simulates a provider-originated auth-state event.
func (s *stubProvider) fire(principal *session.Principal) {
	s.mu.Lock()
	listeners := append([]func(*session.Principal){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		if fn != nil {
			fn(principal)
		}
	}
}

func (s *stubProvider) setPrincipal(principal *session.Principal) {
	s.mu.Lock()
	s.principal = principal
	s.mu.Unlock()
}

func (s *stubProvider) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *stubProvider) setTokenErr(err error) {
	s.mu.Lock()
	s.tokenErr = err
	s.mu.Unlock()
}

func (s *stubProvider) setForcedErr(err error) {
	s.mu.Lock()
	s.forcedErr = err
	s.mu.Unlock()
}

func (s *stubProvider) setTokenGate(gate chan struct{}) {
	s.mu.Lock()
	s.tokenGate = gate
	s.mu.Unlock()
}

func (s *stubProvider) tokenCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *stubProvider) signOutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signOuts
}

// memSink records activity events in memory.
type memSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (s *memSink) Record(ctx context.Context, event session.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memSink) has(eventType session.ActivityEventType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

// memCache is an in-memory TokenCache.
type memCache struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemCache() *memCache {
	return &memCache{tokens: map[string]string{}}
}

func (c *memCache) Load(ctx context.Context, accountKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.tokens[accountKey]
	if !ok || token == "" {
		return "", session.ErrNoToken
	}
	return token, nil
}

func (c *memCache) Save(ctx context.Context, accountKey, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[accountKey] = token
	return nil
}

func (c *memCache) Delete(ctx context.Context, accountKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, accountKey)
	return nil
}

func (c *memCache) get(accountKey string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[accountKey]
}

// MockContext mocks router.Context for guard middleware tests.
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

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	return args.Get(0).([]string)
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

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	return args.Get(0).(map[string]any)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	header, _ := args.Get(0).(*multipart.FileHeader)
	return header, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}
