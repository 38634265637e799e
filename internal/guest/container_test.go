//go:build container

package guest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sharath018/event-gift-backend/config"
	"github.com/sharath018/event-gift-backend/database"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/event"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"github.com/sharath018/event-gift-backend/internal/media"
	"github.com/sharath018/event-gift-backend/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "giftdesk",
				"POSTGRES_PASSWORD": "giftdesk",
				"POSTGRES_DB":       "giftdesk",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := database.Connect(&config.Config{
		DBHost:     host,
		DBPort:     port.Port(),
		DBUser:     "giftdesk",
		DBPassword: "giftdesk",
		DBName:     "giftdesk",
		DBSSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &auth.User{}, &gift.Gift{}, &event.Event{}, &Guest{}, &auditlog.AuditLog{}))
	return db
}

func TestPostgresRaces(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	agent := auth.User{Name: "Ravi", Username: "ravi", PasswordHash: "x", Role: auth.RoleAgent}
	require.NoError(t, db.Create(&agent).Error)
	g := gift.Gift{Name: "Silver Coin", Image: "/uploads/gifts/coin.png"}
	require.NoError(t, db.Create(&g).Error)

	images, err := media.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	auditSvc := auditlog.NewService(auditlog.NewRepository(db))
	events := event.NewService(event.NewRepository(db), gift.NewRepository(db), images, auditSvc, "https://gifts.example.com")
	ev, err := events.Create(ctx, event.CreateEventInput{
		EventName: "Sharma Wedding", ContactPerson: "Anil Sharma", ContactNo: "9876543210",
		FunctionName: "Reception", FunctionType: "Wedding", AgentID: agent.ID,
		EventDate: "2026-12-05", GiftIDs: []uint{g.ID},
	}, auditlog.Actor{})
	require.NoError(t, err)
	_, err = events.SetStatus(ctx, ev.ID, event.StatusActive, auditlog.Actor{})
	require.NoError(t, err)

	svc := NewService(NewRepository(db), events, &fakePublisher{}, metrics.New(prometheus.NewRegistry()), auditSvc, Options{})

	t.Run("duplicate registration", func(t *testing.T) {
		const n = 16
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Register(ctx, RegisterInput{EventID: ev.ID, Name: "Kavya", Mobile: "9876500001", GiftID: g.ID})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrDuplicateRegistration)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("redeem", func(t *testing.T) {
		guest, err := svc.Register(ctx, RegisterInput{EventID: ev.ID, Name: "Arjun", Mobile: "9876500002", GiftID: g.ID})
		require.NoError(t, err)

		const n = 32
		var wg sync.WaitGroup
		errs := make([]error, n)
		caller := auth.Principal{UserID: agent.ID, Role: auth.RoleAgent}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Redeem(ctx, RedeemInput{Code: guest.Code, EventID: ev.ID}, caller, auditlog.Actor{})
			}(i)
		}
		wg.Wait()

		won := 0
		for _, err := range errs {
			if err == nil {
				won++
				continue
			}
			assert.ErrorIs(t, err, ErrAlreadyRedeemed, fmt.Sprint(err))
		}
		assert.Equal(t, 1, won)
	})
}
