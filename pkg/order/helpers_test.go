package order_test

import (
	"testing"

	"github.com/example/shopcore/pkg/catalog"
	"github.com/example/shopcore/pkg/directory"
	"github.com/example/shopcore/pkg/inventory"
	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/order"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type core struct {
	db      *gorm.DB
	service *order.Service
	query   *order.Query
	ledger  *inventory.Ledger
	cat     *catalog.Catalog
	userdir *directory.Directory
}

func (c *core) catalog() *catalog.Catalog { return c.cat }
func (c *core) dir() *directory.Directory { return c.userdir }

func newCore(t *testing.T) *core {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Product{}, &models.User{}))

	cat := catalog.NewCatalog(db)
	dir := directory.NewDirectory(db)
	ledger := inventory.NewLedger(db)
	pricer := order.NewPricer(cat, dir)
	service := order.NewService(db, pricer, ledger, nil, nil, nil, nil)
	query := order.NewQuery(db, service, cat, dir)

	return &core{db: db, service: service, query: query, ledger: ledger, cat: cat, userdir: dir}
}

func (c *core) seedUser(t *testing.T, id, email string) {
	t.Helper()
	require.NoError(t, c.db.Create(&models.User{ID: id, Name: "user " + id, Email: email}).Error)
}

func (c *core) seedProduct(t *testing.T, p models.Product) {
	t.Helper()
	require.NoError(t, c.db.Create(&p).Error)
}

func (c *core) stock(t *testing.T, productID string) int {
	t.Helper()
	var product models.Product
	require.NoError(t, c.db.Where("id = ?", productID).First(&product).Error)
	return product.Stock
}
