package application

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/office-reservations/internal/events"
	"github.com/example/office-reservations/internal/persistence"
	"github.com/example/office-reservations/internal/scheduler"
)

// memoryStore is an in-memory stand-in for the SQL store shared by the service tests.
type memoryStore struct {
	mu           sync.Mutex
	companies    map[string]Company
	users        map[string]UserCredentials
	rooms        map[string]Room
	reservations map[string]Reservation

	insertErr  error
	lookupMiss bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		companies:    make(map[string]Company),
		users:        make(map[string]UserCredentials),
		rooms:        make(map[string]Room),
		reservations: make(map[string]Reservation),
	}
}

func (m *memoryStore) CreateCompanyWithAdmin(ctx context.Context, company Company, admin UserCredentials) (Company, User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.companies {
		if existing.Slug == company.Slug {
			return Company{}, User{}, persistence.ErrDuplicate
		}
	}
	for _, existing := range m.users {
		if existing.Email == admin.Email {
			return Company{}, User{}, persistence.ErrDuplicate
		}
	}
	m.companies[company.ID] = company
	m.users[admin.ID] = admin
	return company, admin.User, nil
}

func (m *memoryStore) GetCompany(ctx context.Context, id string) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	company, ok := m.companies[id]
	if !ok {
		return Company{}, persistence.ErrNotFound
	}
	return company, nil
}

func (m *memoryStore) GetCompanyByCertification(ctx context.Context, certification string) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, company := range m.companies {
		if company.Certification == certification {
			return company, nil
		}
	}
	return Company{}, persistence.ErrNotFound
}

func (m *memoryStore) CreateUser(ctx context.Context, user UserCredentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return User{}, persistence.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return user.User, nil
}

func (m *memoryStore) GetUser(ctx context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user.User, nil
}

func (m *memoryStore) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

func (m *memoryStore) ListUsers(ctx context.Context, companyID string) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, user := range m.users {
		if user.CompanyID == companyID {
			out = append(out, user.User)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return persistence.ErrNotFound
	}
	for rid, reservation := range m.reservations {
		if reservation.UserID == id {
			delete(m.reservations, rid)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memoryStore) CreateRoom(ctx context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rooms {
		if existing.CompanyID == room.CompanyID && existing.Name == room.Name {
			return Room{}, persistence.ErrDuplicate
		}
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryStore) GetRoom(ctx context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memoryStore) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryStore) ListRooms(ctx context.Context, companyID string) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Room
	for _, room := range m.rooms {
		if room.CompanyID == companyID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return Reservation{}, m.insertErr
	}
	if _, ok := m.rooms[reservation.RoomID]; !ok {
		return Reservation{}, persistence.ErrForeignKeyViolation
	}
	if _, ok := scheduler.FindOverlap(m.intervals(), toInterval(reservation)); ok {
		return Reservation{}, persistence.ErrDuplicate
	}
	m.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (m *memoryStore) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) (Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupMiss {
		return Reservation{}, false, nil
	}
	hit, ok := scheduler.FindOverlap(m.intervals(), scheduler.Interval{RoomID: roomID, Start: start, End: end})
	if !ok {
		return Reservation{}, false, nil
	}
	return m.reservations[hit.ID], true, nil
}

func (m *memoryStore) GetReservation(ctx context.Context, id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (m *memoryStore) ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reservation
	for _, reservation := range m.reservations {
		if query.RoomID != "" && reservation.RoomID != query.RoomID {
			continue
		}
		if query.UserID != "" && reservation.UserID != query.UserID {
			continue
		}
		if !query.To.IsZero() && !reservation.Start.Before(query.To) {
			continue
		}
		if !query.From.IsZero() && !reservation.End.After(query.From) {
			continue
		}
		out = append(out, reservation)
	}
	// Map order is random; the service is expected to sort.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteReservation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memoryStore) DeleteRoomCascade(ctx context.Context, roomID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return 0, persistence.ErrNotFound
	}
	var removed int64
	for id, reservation := range m.reservations {
		if reservation.RoomID == roomID {
			delete(m.reservations, id)
			removed++
		}
	}
	delete(m.rooms, roomID)
	return removed, nil
}

func (m *memoryStore) DeleteReservationsByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, reservation := range m.reservations {
		if reservation.UserID == userID {
			delete(m.reservations, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryStore) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

func (m *memoryStore) intervals() []scheduler.Interval {
	out := make([]scheduler.Interval, 0, len(m.reservations))
	for _, reservation := range m.reservations {
		out = append(out, toInterval(reservation))
	}
	return out
}

func toInterval(r Reservation) scheduler.Interval {
	return scheduler.Interval{ID: r.ID, RoomID: r.RoomID, Start: r.Start, End: r.End}
}

// sequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

type failingPublisher struct {
	err error
}

func (p failingPublisher) Publish(ctx context.Context, event events.Event) error {
	return p.err
}
