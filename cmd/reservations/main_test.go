package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/office-reservations/internal/config"
	"github.com/example/office-reservations/internal/events"
	"github.com/example/office-reservations/internal/locking"
	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	location, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return config.Config{
		HTTPPort:          8080,
		DatabaseDriver:    "sqlite",
		DatabaseDSN:       filepath.Join(t.TempDir(), "reservations.db"),
		MigrationsEnabled: true,
		OpenHour:          7,
		CloseHour:         22,
		Timezone:          "Asia/Seoul",
		Location:          location,
		SpanMode:          "slot",
		LockBackend:       "local",
		LockTTL:           5 * time.Second,
	}
}

func TestDatabaseConfig(t *testing.T) {
	cfg := testConfig(t)
	if got := databaseConfig(cfg); got.Driver != migration.DriverSQLite || !got.EnableForeignKeys {
		t.Fatalf("unexpected sqlite config %+v", got)
	}

	cfg.DatabaseDriver = "postgres"
	cfg.DatabaseDSN = "postgres://localhost/reservations"
	if got := databaseConfig(cfg); got.Driver != migration.DriverPostgres || got.DSN != cfg.DatabaseDSN {
		t.Fatalf("unexpected postgres config %+v", got)
	}
}

func TestOpenStoreAppliesMigrations(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := openStore(context.Background(), testConfig(t), logger)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer store.Close()

	if !strings.Contains(logOutput.String(), "all migrations applied") {
		t.Fatalf("expected migration log output, got: %s", logOutput.String())
	}
}

func TestDefaultsUseLocalLockerAndNopPublisher(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	locker, closeLocker, err := newLocker(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newLocker returned error: %v", err)
	}
	defer closeLocker()
	if _, ok := locker.(*locking.LocalLocker); !ok {
		t.Fatalf("expected a local locker, got %T", locker)
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		t.Fatalf("newPublisher returned error: %v", err)
	}
	defer closePublisher()
	if _, ok := publisher.(events.NopPublisher); !ok {
		t.Fatalf("expected a nop publisher, got %T", publisher)
	}
}

func TestNewHandlerServesRegistrationAndBooking(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer store.Close()

	handler, err := newHandler(store, cfg, locking.NewLocalLocker(), events.NopPublisher{}, logger)
	if err != nil {
		t.Fatalf("newHandler returned error: %v", err)
	}

	body := `{"name":"Acme","admin":{"email":"admin@acme.test","display_name":"Admin","password":"correct horse"}}`
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body)))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var registration struct {
		Admin struct {
			ID string `json:"id"`
		} `json:"admin"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &registration); err != nil {
		t.Fatalf("failed to decode registration: %v", err)
	}

	createRoom := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"name":"Orion","capacity":6}`))
	createRoom.Header.Set("X-User-ID", registration.Admin.ID)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, createRoom)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var room struct {
		Room struct {
			ID string `json:"id"`
		} `json:"room"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &room); err != nil {
		t.Fatalf("failed to decode room: %v", err)
	}

	book := func() int {
		req := httptest.NewRequest(http.MethodPost, "/rooms/"+room.Room.ID+"/reservations",
			strings.NewReader(`{"start":"2030-01-07T12:00:00+09:00"}`))
		req.Header.Set("X-User-ID", registration.Admin.ID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := book(); got != http.StatusCreated {
		t.Fatalf("expected 201 for the first booking, got %d", got)
	}
	if got := book(); got != http.StatusConflict {
		t.Fatalf("expected 409 for the same slot, got %d", got)
	}
}
