package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
)

func TestRouteProductDeclaredDestination(t *testing.T) {
	routing := NewRoutingService()

	product := models.Product{
		Name:     "Es Kopi Susu",
		Category: models.Category{Destination: models.DestinationKitchen},
	}

	// Deklarasi kategori menang atas heuristik nama
	decision := routing.RouteProduct(product)
	assert.Equal(t, models.DestinationKitchen, decision.Destination)
	assert.Equal(t, RouteSourceDeclared, decision.Source)
}

func TestRouteProductInferredFromName(t *testing.T) {
	routing := NewRoutingService()

	tests := []struct {
		name string
		want string
	}{
		{"Es Kopi Susu", models.DestinationBar},
		{"Jus Alpukat", models.DestinationBar},
		{"Teh Tarik", models.DestinationBar},
		{"Nasi Goreng Spesial", models.DestinationKitchen}, // default kitchen
		{"Sate Ayam", models.DestinationKitchen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := routing.RouteProduct(models.Product{Name: tt.name})
			assert.Equal(t, tt.want, decision.Destination)
			assert.Equal(t, RouteSourceInferred, decision.Source)
		})
	}
}

func TestRouteItemBothExpandsToKitchenAndBar(t *testing.T) {
	db := newTestDB(t, "routing_both")
	routing := NewRoutingService()

	both := seedCategory(t, db, "Dessert Float", models.StockPolicyFlexible, models.DestinationBoth)
	float := seedProduct(t, db, both.ID, "Root Beer Float", 30000, 10)

	pid := float.ID
	decisions, err := routing.RouteItem(db, models.OrderItem{ProductID: &pid, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, decisions, 2)
	assert.Equal(t, models.DestinationKitchen, decisions[0].Destination)
	assert.Equal(t, models.DestinationBar, decisions[1].Destination)
	for _, d := range decisions {
		assert.Equal(t, RouteSourceDeclared, d.Source)
	}
}

func TestRouteItemPackageUnionsConstituents(t *testing.T) {
	db := newTestDB(t, "routing_package")
	routing := NewRoutingService()

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	bar := seedCategory(t, db, "Minuman", models.StockPolicyFlexible, models.DestinationBar)
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	teh := seedProduct(t, db, bar.ID, "Es Teh", 8000, 10)

	pkg := models.Package{Name: "Paket Hemat", Price: 30000, Active: true}
	assert.NoError(t, db.Create(&pkg).Error)
	assert.NoError(t, db.Create(&models.PackageItem{PackageID: pkg.ID, ProductID: nasi.ID, Quantity: 1}).Error)
	assert.NoError(t, db.Create(&models.PackageItem{PackageID: pkg.ID, ProductID: teh.ID, Quantity: 1}).Error)

	pkgID := pkg.ID
	decisions, err := routing.RouteItem(db, models.OrderItem{PackageID: &pkgID, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, decisions, 2)

	dests := []string{decisions[0].Destination, decisions[1].Destination}
	assert.ElementsMatch(t, []string{models.DestinationKitchen, models.DestinationBar}, dests)
}

func TestRouteItemRejectsEmptyItem(t *testing.T) {
	db := newTestDB(t, "routing_empty")
	routing := NewRoutingService()

	_, err := routing.RouteItem(db, models.OrderItem{Quantity: 1})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreateTicketsOnePerItemDestination(t *testing.T) {
	db := newTestDB(t, "routing_tickets")
	routing := NewRoutingService()

	kitchen := seedCategory(t, db, "Makanan", models.StockPolicyFlexible, models.DestinationKitchen)
	undeclared := seedCategory(t, db, "Lain-lain", models.StockPolicyFlexible, "")
	nasi := seedProduct(t, db, kitchen.ID, "Nasi Goreng", 25000, 10)
	kopi := seedProduct(t, db, undeclared.ID, "Kopi Tubruk", 12000, 10)

	order := models.Order{OrderNumber: "ORD-ROUTE-0001", CashierID: 1, Status: OrderStatusDraft}
	assert.NoError(t, db.Create(&order).Error)

	nasiID, kopiID := nasi.ID, kopi.ID
	itemNasi := models.OrderItem{OrderID: order.ID, ProductID: &nasiID, Quantity: 2, UnitPrice: 25000}
	itemKopi := models.OrderItem{OrderID: order.ID, ProductID: &kopiID, Quantity: 1, UnitPrice: 12000}
	assert.NoError(t, db.Create(&itemNasi).Error)
	assert.NoError(t, db.Create(&itemKopi).Error)
	order.OrderItems = []models.OrderItem{itemNasi, itemKopi}

	var tickets []models.PrepTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		tickets, err = routing.CreateTickets(tx, &order)
		return err
	})
	assert.NoError(t, err)
	assert.Len(t, tickets, 2)

	byItem := make(map[uint]models.PrepTicket)
	for _, ticket := range tickets {
		assert.Equal(t, TicketStatusPending, ticket.Status)
		byItem[ticket.OrderItemID] = ticket
	}

	assert.Equal(t, models.DestinationKitchen, byItem[itemNasi.ID].Destination)
	assert.False(t, byItem[itemNasi.ID].Inferred)

	// Kategori tanpa destinasi jatuh ke heuristik nama -> bar, inferred
	assert.Equal(t, models.DestinationBar, byItem[itemKopi.ID].Destination)
	assert.True(t, byItem[itemKopi.ID].Inferred)
}
