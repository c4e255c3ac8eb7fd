// Package apifake is an in-memory stand-in for the booking API, served over httptest. It
// implements just enough behaviour for client tests: token issuance and introspection,
// filtered and paged searches, CRUD and a statistics export.
package apifake

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	basePath = "/api"

	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type account struct {
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Roles        []string
}

type delay struct {
	match string
	d     time.Duration
}

type Server struct {
	*httptest.Server
	mux    *http.ServeMux
	routes []string
	secret []byte

	lock          sync.Mutex
	accounts      map[string]*account
	accessTokens  map[string]string // access token -> username
	refreshTokens map[string]string // refresh token -> username
	nextTokens    []issuedPair
	collections   map[string]*collection
	counts        map[string]int
	delays        []delay
	failRefresh   bool
	rejectBooking string
	accessTTL     time.Duration

	lastUpload     string
	lastUploadSize int64
}

type issuedPair struct {
	access  string
	refresh string
}

type Option func(*Server)

// WithAccessTTL sets the lifetime written into issued access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

// New starts the fake with two accounts: admin/admin123 (ADMIN) and alice/alice123 (USER).
// The server is closed when the test ends.
func New(t interface{ Cleanup(func()) }, opts ...Option) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		secret:        []byte("1234"),
		accounts:      make(map[string]*account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		collections:   make(map[string]*collection),
		counts:        make(map[string]int),
		accessTTL:     time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range []string{api.RouteRoom, api.RouteBooking, api.RouteUser, api.RouteEquipment, api.RouteGroup, api.RoutePosition} {
		s.collections[name] = newCollection()
	}
	s.AddAccount("admin", "admin123", "Ada Admin", RoleAdmin)
	s.AddAccount("alice", "alice123", "Alice Liddell", RoleUser)

	s.initRoutes()
	s.Server = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// URL is the API base URL clients should be configured with.
func (s *Server) URL() string {
	return s.Server.URL + basePath
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(prefixPattern(pattern), ChainMiddleware(handler, s.LoggingMiddleware, s.CountingMiddleware(pattern)))
}

func (s *Server) RegisterAuthedRouteFunc(pattern string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	chain := append([]func(http.HandlerFunc) http.HandlerFunc{s.LoggingMiddleware, s.CountingMiddleware(pattern), s.RequireAuth}, mw...)
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(prefixPattern(pattern), ChainMiddleware(handler, chain...))
}

// Routes lists every registered pattern, e.g. "POST /auth/refresh".
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// Count returns how many requests reached the route pattern, e.g. "POST /auth/refresh".
func (s *Server) Count(pattern string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.counts[pattern]
}

// TotalRequests is the number of requests received across all routes.
func (s *Server) TotalRequests() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// AddAccount registers a user that can log in.
func (s *Server) AddAccount(username, password, fullName string, roles ...string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.accounts[username] = &account{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Email:        username + "@example.com",
		Roles:        roles,
	}
}

// IssueTokens mints a valid token pair for the account without going through login.
func (s *Server) IssueTokens(username string) (access, refresh string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.issueLocked(username)
}

// RegisterRefreshToken makes an arbitrary opaque refresh token valid for username.
func (s *Server) RegisterRefreshToken(refresh, username string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshTokens[refresh] = username
}

// RegisterAccessToken makes an arbitrary opaque access token valid for username.
func (s *Server) RegisterAccessToken(access, username string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.accessTokens[access] = username
}

// ExpireToken makes introspection report the access token invalid.
func (s *Server) ExpireToken(access string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.accessTokens, access)
}

// NextTokens queues the exact pair the next login or refresh will issue.
func (s *Server) NextTokens(access, refresh string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextTokens = append(s.nextTokens, issuedPair{access: access, refresh: refresh})
}

// FailRefresh makes every refresh call fail.
func (s *Server) FailRefresh(fail bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failRefresh = fail
}

// RejectBookings makes booking creation answer success:false with message.
func (s *Server) RejectBookings(message string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rejectBooking = message
}

// DelaySearch holds back any search or by-room listing whose raw query contains match.
func (s *Server) DelaySearch(match string, d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delays = append(s.delays, delay{match: match, d: d})
}

func (s *Server) issueLocked(username string) (string, string) {
	if len(s.nextTokens) > 0 {
		next := s.nextTokens[0]
		s.nextTokens = s.nextTokens[1:]
		s.accessTokens[next.access] = username
		s.refreshTokens[next.refresh] = username
		return next.access, next.refresh
	}

	acc := s.accounts[username]
	roles := []string{}
	if acc != nil {
		roles = acc.Roles
	}
	access, err := s.createAccessToken(username, roles)
	if err != nil {
		panic(err)
	}
	refresh := newOpaqueToken()
	s.accessTokens[access] = username
	s.refreshTokens[refresh] = username
	return access, refresh
}

// ClaimsFor decodes an issued token; handy for assertions.
func ClaimsFor(access string) (*token.Claims, error) {
	return token.Parse(access)
}
