package repository

import (
	"strings"
	"testing"
	"time"

	"coursecms/config"
	"coursecms/internal/database"
	"coursecms/internal/domain"
	"coursecms/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
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

func seedLedger(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: domain.RoleStudent}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Name: "Root", Email: "root@example.com", PasswordHash: "x", Role: domain.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.Course{ID: 1, Title: "Go", Description: "d", Price: decimal.RequireFromString("10.00")}).Error)
	require.NoError(t, db.Create(&models.Course{ID: 2, Title: "SQL", Description: "d", Price: decimal.RequireFromString("20.00")}).Error)
	require.NoError(t, db.Create(&models.Lesson{CourseID: 1, Title: "l", VideoURL: "https://v/1", OrderNumber: 1}).Error)

	now := time.Now()
	orders := []models.Order{
		{UserID: 1, CourseID: 1, Amount: decimal.RequireFromString("10.00"), Currency: "INR", GatewayOrderID: "CMS_ORDER_a", Status: domain.OrderSuccess, FinalizedAt: &now},
		{UserID: 1, CourseID: 2, Amount: decimal.RequireFromString("20.00"), Currency: "INR", GatewayOrderID: "CMS_ORDER_b", Status: domain.OrderSuccess, FinalizedAt: &now},
		{UserID: 1, CourseID: 2, Amount: decimal.RequireFromString("20.00"), Currency: "INR", GatewayOrderID: "CMS_ORDER_c", Status: domain.OrderFailed, FinalizedAt: &now},
		{UserID: 1, CourseID: 1, Amount: decimal.RequireFromString("10.00"), Currency: "INR", GatewayOrderID: "CMS_ORDER_d", Status: domain.OrderPending},
	}
	require.NoError(t, db.Create(&orders).Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: 1, CourseID: 1, OrderID: orders[0].ID}).Error)
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)

	s, err := NewAdminRepository(db).GetDashboardStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.TotalStudents)
	assert.EqualValues(t, 2, s.TotalCourses)
	assert.EqualValues(t, 1, s.TotalLessons)
	assert.EqualValues(t, 1, s.TotalEnrollments)
	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(30)), s.TotalRevenue.String())
	assert.EqualValues(t, 2, s.OrdersByStatus[domain.OrderSuccess])
	assert.EqualValues(t, 1, s.OrdersByStatus[domain.OrderFailed])
	assert.EqualValues(t, 1, s.OrdersByStatus[domain.OrderPending])
}

func TestListPayments(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	repo := NewAdminRepository(db)

	rows, total, err := repo.ListPayments("", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, rows, 4)

	rows, total, err = repo.ListPayments(domain.OrderFailed, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "CMS_ORDER_c", rows[0].GatewayOrderID)
	assert.Equal(t, "Ada", rows[0].UserName)
	assert.Equal(t, "SQL", rows[0].CourseTitle)
}

func TestOrderFinalizeOnlyFromPending(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	orders := NewOrderRepository(db)
	pending, err := orders.GetByGatewayOrderID("CMS_ORDER_d")
	require.NoError(t, err)

	txn := "TXN1"
	n, err := orders.Finalize(pending.ID, domain.OrderSuccess, &txn, nil, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = orders.Finalize(pending.ID, domain.OrderFailed, nil, nil, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	missing, err := orders.ListSuccessWithoutEnrollment(10)
	require.NoError(t, err)
	ids := []string{}
	for _, o := range missing {
		ids = append(ids, o.GatewayOrderID)
	}
	assert.ElementsMatch(t, []string{"CMS_ORDER_b", "CMS_ORDER_d"}, ids)
}

func TestEnrollmentCreateIfAbsent(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	repo := NewEnrollmentRepository(db)
	order, err := NewOrderRepository(db).GetByGatewayOrderID("CMS_ORDER_a")
	require.NoError(t, err)

	created, err := repo.CreateIfAbsent(&models.Enrollment{UserID: 1, CourseID: 1, OrderID: order.ID})
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := repo.Exists(1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotificationMarkReadOnce(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	repo := NewNotificationRepository(db)
	n := &models.Notification{UserID: 1, Type: domain.NotifEnrollmentConfirmed, Title: "t", Body: "b"}
	require.NoError(t, repo.Create(n))

	ok, err := repo.MarkRead(n.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "other users cannot mark it")

	ok, err = repo.MarkRead(n.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRead(n.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevenueByDay(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, db.Create(&models.Order{
		UserID: 1, CourseID: 1, Amount: decimal.RequireFromString("99.00"), Currency: "INR",
		GatewayOrderID: "CMS_ORDER_old", Status: domain.OrderSuccess, FinalizedAt: &old,
	}).Error)

	points, err := NewAdminRepository(db).RevenueByDay(7)
	require.NoError(t, err)
	require.Len(t, points, 1, "failed, pending and older orders are excluded")
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), points[0].Date)
	assert.True(t, points[0].Amount.Equal(decimal.NewFromInt(30)), points[0].Amount.String())

	points, err = NewAdminRepository(db).RevenueByDay(60)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Amount.Equal(decimal.NewFromInt(99)))
}
