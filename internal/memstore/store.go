// Package memstore is an in-process stand-in for the workforce data store.
// It keeps users, password hashes, issued sessions, schedules and revenue in
// memory and exposes them to the protocol dispatchers through V1 and V2.
// Nothing is persisted.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/danmuck/shiftctl/internal/auth"
	"github.com/danmuck/shiftctl/internal/calendar"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrLoginFailed  = errors.New("memstore: login failed")
	ErrUnknownToken = errors.New("memstore: unknown token")
	ErrUserExists   = errors.New("memstore: user exists")
	ErrNoSuchUser   = errors.New("memstore: no such user")
	ErrEmptyLogin   = errors.New("memstore: empty login")
	ErrInvalidDate  = errors.New("memstore: invalid date")
	ErrNoPayroll    = errors.New("memstore: no payroll configured")
	ErrNoIssuer     = errors.New("memstore: no token issuer")
)

// User is a stored user record without credentials.
type User struct {
	ID       uint64
	Login    string
	Name     string
	IsAdmin  bool
	IsWorker bool
	Pay      float64
	Percent  float64
}

// DayRevenue is one day's receipts.
type DayRevenue struct {
	WithPercent    float64
	WithoutPercent float64
}

type record struct {
	User
	hash []byte
}

type monthKey struct {
	year  uint16
	month uint8
}

type Options struct {
	Issuer  *auth.Issuer
	Payroll Payroll
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Store struct {
	issuer  *auth.Issuer
	payroll Payroll
	cost    int

	mu        sync.RWMutex
	nextID    uint64
	users     map[uint64]*record
	byLogin   map[string]uint64
	sessions  map[string]uint64
	schedules map[monthKey]map[uint64][]bool
	revenue   map[monthKey]map[uint8]DayRevenue
}

func New(opts Options) (*Store, error) {
	if opts.Issuer == nil {
		return nil, ErrNoIssuer
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("memstore: bcrypt cost %d out of range", cost)
	}
	return &Store{
		issuer:    opts.Issuer,
		payroll:   opts.Payroll,
		cost:      cost,
		nextID:    1,
		users:     make(map[uint64]*record),
		byLogin:   make(map[string]uint64),
		sessions:  make(map[string]uint64),
		schedules: make(map[monthKey]map[uint64][]bool),
		revenue:   make(map[monthKey]map[uint8]DayRevenue),
	}, nil
}

// Bootstrap creates u with password unless its login is already taken, so a
// restart with the same config is a no-op.
func (s *Store) Bootstrap(u User, password string) (uint64, error) {
	s.mu.RLock()
	id, ok := s.byLogin[u.Login]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}
	id, err := s.create(u, password)
	if errors.Is(err, ErrUserExists) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.byLogin[u.Login], nil
	}
	return id, err
}

// AddUser stores u under a fresh id. The initial password is the login.
func (s *Store) AddUser(_ context.Context, u User) (uint64, error) {
	return s.create(u, u.Login)
}

func (s *Store) create(u User, password string) (uint64, error) {
	u.Login = strings.TrimSpace(u.Login)
	if u.Login == "" {
		return 0, ErrEmptyLogin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("memstore: hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byLogin[u.Login]; taken {
		return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Login)
	}
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &record{User: u, hash: hash}
	s.byLogin[u.Login] = u.ID
	log.Info().Uint64("user_id", u.ID).Str("login", u.Login).Bool("admin", u.IsAdmin).Msg("memstore.Store.create")
	return u.ID, nil
}

// UpdateUser replaces the record with u.ID. Credentials and sessions are kept.
func (s *Store) UpdateUser(_ context.Context, u User) error {
	u.Login = strings.TrimSpace(u.Login)
	if u.Login == "" {
		return ErrEmptyLogin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, u.ID)
	}
	if owner, taken := s.byLogin[u.Login]; taken && owner != u.ID {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Login)
	}
	delete(s.byLogin, rec.Login)
	rec.User = u
	s.byLogin[u.Login] = u.ID
	return nil
}

// Login checks the password and issues a session token.
func (s *Store) Login(_ context.Context, login, password string) (string, User, error) {
	s.mu.RLock()
	id, ok := s.byLogin[login]
	var rec record
	if ok {
		rec = *s.users[id]
	}
	s.mu.RUnlock()
	if !ok {
		log.Debug().Str("login", login).Msg("memstore.Store.Login unknown login")
		return "", User{}, ErrLoginFailed
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		log.Debug().Str("login", login).Msg("memstore.Store.Login wrong password")
		return "", User{}, ErrLoginFailed
	}

	token, jti, err := s.issuer.Issue(id)
	if err != nil {
		return "", User{}, err
	}
	s.mu.Lock()
	s.sessions[jti] = id
	s.mu.Unlock()
	return token, rec.User, nil
}

// Authenticate resolves a token to its user. Expired, foreign and revoked
// tokens all fail with ErrUnknownToken.
func (s *Store) Authenticate(_ context.Context, token string) (User, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnknownToken, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[claims.ID]
	if !ok {
		return User{}, fmt.Errorf("%w: revoked", ErrUnknownToken)
	}
	rec, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d gone", ErrUnknownToken, id)
	}
	return rec.User, nil
}

// User returns the record with id.
func (s *Store) User(_ context.Context, id uint64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	return rec.User, nil
}

// Users lists every user ordered by id.
func (s *Store) Users(context.Context) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.User)
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Names maps each known id in ids to its display name. Unknown ids are
// skipped.
func (s *Store) Names(_ context.Context, ids []uint64) map[uint64]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]string, len(ids))
	for _, id := range ids {
		if rec, ok := s.users[id]; ok {
			out[id] = rec.Name
		}
	}
	return out
}

// ChangePassword replaces id's password when oldPassword matches.
func (s *Store) ChangePassword(_ context.Context, id uint64, oldPassword, newPassword string) error {
	s.mu.RLock()
	rec, ok := s.users[id]
	var hash []byte
	if ok {
		hash = rec.hash
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)) != nil {
		return ErrLoginFailed
	}
	return s.setPassword(id, newPassword, false)
}

// ResetPassword sets id's password back to its login and revokes every
// session of that user.
func (s *Store) ResetPassword(_ context.Context, id uint64) error {
	s.mu.RLock()
	rec, ok := s.users[id]
	var login string
	if ok {
		login = rec.Login
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	return s.setPassword(id, login, true)
}

func (s *Store) setPassword(id uint64, password string, revoke bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("memstore: hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	rec.hash = hash
	if revoke {
		n := s.revokeLocked(id)
		log.Info().Uint64("user_id", id).Int("sessions", n).Msg("memstore.Store.ResetPassword revoked")
	}
	return nil
}

// Revoke drops every session of id.
func (s *Store) Revoke(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeLocked(id)
}

func (s *Store) revokeLocked(id uint64) int {
	n := 0
	for jti, owner := range s.sessions {
		if owner == id {
			delete(s.sessions, jti)
			n++
		}
	}
	return n
}

// Schedule returns one day sequence per user for the month. Days nobody set
// are false.
func (s *Store) Schedule(_ context.Context, year uint16, month uint8) (map[uint64][]bool, error) {
	if !calendar.ValidMonth(month) {
		return nil, fmt.Errorf("%w: %04d-%02d", ErrInvalidDate, year, month)
	}
	days := calendar.DaysIn(year, month)
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.schedules[monthKey{year, month}]
	out := make(map[uint64][]bool, len(s.users))
	for id := range s.users {
		seq := make([]bool, days)
		copy(seq, stored[id])
		out[id] = seq
	}
	return out, nil
}

// SetWorkday marks one day of id's schedule.
func (s *Store) SetWorkday(_ context.Context, id uint64, year uint16, month, day uint8, working bool) error {
	if !calendar.ValidDay(year, month, day) {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	key := monthKey{year, month}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	byUser, ok := s.schedules[key]
	if !ok {
		byUser = make(map[uint64][]bool)
		s.schedules[key] = byUser
	}
	seq, ok := byUser[id]
	if !ok {
		seq = make([]bool, calendar.DaysIn(year, month))
		byUser[id] = seq
	}
	seq[day-1] = working
	return nil
}

// Revenue returns the recorded days of the month.
func (s *Store) Revenue(_ context.Context, year uint16, month uint8) (map[uint8]DayRevenue, error) {
	if !calendar.ValidMonth(month) {
		return nil, fmt.Errorf("%w: %04d-%02d", ErrInvalidDate, year, month)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.revenue[monthKey{year, month}]
	out := make(map[uint8]DayRevenue, len(stored))
	for day, r := range stored {
		out[day] = r
	}
	return out, nil
}

// SetDayRevenue records one day of the month, keeping the other days.
func (s *Store) SetDayRevenue(_ context.Context, year uint16, month, day uint8, r DayRevenue) error {
	if !calendar.ValidDay(year, month, day) {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	key := monthKey{year, month}
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay, ok := s.revenue[key]
	if !ok {
		byDay = make(map[uint8]DayRevenue)
		s.revenue[key] = byDay
	}
	byDay[day] = r
	return nil
}

// ReplaceRevenue swaps the whole month for records, one per calendar day.
func (s *Store) ReplaceRevenue(_ context.Context, year uint16, month uint8, records []DayRevenue) error {
	if !calendar.ValidMonth(month) {
		return fmt.Errorf("%w: %04d-%02d", ErrInvalidDate, year, month)
	}
	if days := calendar.DaysIn(year, month); len(records) != days {
		return fmt.Errorf("%w: %d revenue records for %04d-%02d with %d days", ErrInvalidDate, len(records), year, month, days)
	}
	byDay := make(map[uint8]DayRevenue, len(records))
	for i, r := range records {
		byDay[uint8(i+1)] = r
	}
	s.mu.Lock()
	s.revenue[monthKey{year, month}] = byDay
	s.mu.Unlock()
	return nil
}
