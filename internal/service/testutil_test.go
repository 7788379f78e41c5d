package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"coursecms/config"
	"coursecms/internal/database"
	"coursecms/internal/domain"
	"coursecms/internal/models"
	"coursecms/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMerchantKey = "test-merchant-key"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             "file:" + name + "?mode=memory&cache=shared&_foreign_keys=1&_txlock=immediate",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newFileTestDB opens a file-backed database with a real connection pool so
// transactions from different goroutines contend for the sqlite write lock.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "cms.db") + "?_foreign_keys=1",
		MaxIdleConns:    8,
		MaxOpenConns:    8,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testPaymentConfig() *config.PaymentConfig {
	return &config.PaymentConfig{
		Provider:       "stub",
		KeyID:          "key_public",
		KeySecret:      "key_private",
		MerchantID:     "MID123",
		MerchantKey:    testMerchantKey,
		Website:        "WEBSTAGING",
		ChannelID:      "WEB",
		IndustryTypeID: "Retail",
		Currency:       "INR",
		CallbackURL:    "http://localhost:5000/api/v1/orders/verify",
	}
}

type recordingPusher struct {
	mu     sync.Mutex
	events map[uint][]interface{}
}

func (p *recordingPusher) BroadcastToUser(userID uint, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[uint][]interface{}{}
	}
	p.events[userID] = append(p.events[userID], payload)
}

func (p *recordingPusher) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[userID])
}

func seedStudent(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	u := &models.User{ID: id, Name: "Student", Email: fmt.Sprintf("student%d@example.com", id), PasswordHash: "x", Role: domain.RoleStudent}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCourse(t *testing.T, db *gorm.DB, id uint, price string, lessons int) *models.Course {
	t.Helper()
	c := &models.Course{ID: id, Title: "Course", Description: "About", Price: decimal.RequireFromString(price), Category: "dev"}
	require.NoError(t, db.Create(c).Error)
	for i := 1; i <= lessons; i++ {
		require.NoError(t, db.Create(&models.Lesson{CourseID: id, Title: "Lesson", VideoURL: "https://video.example/1", OrderNumber: i}).Error)
	}
	return c
}

// settledOrder inserts a SUCCESS order with an optional enrollment.
func settledOrder(t *testing.T, db *gorm.DB, userID, courseID uint, gatewayID string, enroll bool) *models.Order {
	t.Helper()
	now := time.Now()
	o := &models.Order{
		UserID: userID, CourseID: courseID, Amount: decimal.RequireFromString("10.00"), Currency: "INR",
		GatewayOrderID: gatewayID, Status: domain.OrderSuccess, FinalizedAt: &now,
	}
	require.NoError(t, db.Create(o).Error)
	if enroll {
		require.NoError(t, db.Create(&models.Enrollment{UserID: userID, CourseID: courseID, OrderID: o.ID}).Error)
	}
	return o
}

func callbackFor(gatewayOrderID string, userID, courseID uint, status, amount string) payment.Params {
	p := payment.Params{
		"MID":          "MID123",
		"ORDER_ID":     gatewayOrderID,
		"TXN_ID":       "TXN_" + gatewayOrderID,
		"TXN_AMOUNT":   amount,
		"STATUS":       status,
		"CUST_ID":      fmt.Sprint(userID),
		"COURSE_ID":    fmt.Sprint(courseID),
		"RESPMSG":      "Txn Success",
		"PAYMENT_MODE": "UPI",
	}
	p[payment.ChecksumField] = payment.Sign(p, testMerchantKey)
	return p
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
