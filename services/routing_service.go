package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/utils"
)

// Sumber keputusan routing
const (
	RouteSourceDeclared = "declared"
	RouteSourceInferred = "inferred"
)

// RouteDecision adalah hasil pemetaan satu destinasi. Source "inferred"
// artinya hasil heuristik nama dan bersifat provisional - dicatat supaya
// data katalognya dibereskan, bukan jaminan.
type RouteDecision struct {
	Destination string `json:"destination"`
	Source      string `json:"source"`
}

// RoutingService memetakan order item yang dikonfirmasi ke destinasi
// preparasi dan membuat prep ticket per (item, destinasi).
type RoutingService struct{}

func NewRoutingService() *RoutingService {
	return &RoutingService{}
}

// Kata kunci minuman untuk fallback terakhir kalau kategori tidak
// mendeklarasikan destinasi.
var barKeywords = []string{
	"kopi", "coffee", "latte", "espresso", "teh", "tea",
	"jus", "juice", "soda", "squash", "milkshake", "smoothie",
	"beer", "bir", "wine", "cocktail", "mocktail",
}

// RouteProduct menentukan destinasi satu product dari kategorinya.
func (r *RoutingService) RouteProduct(product models.Product) RouteDecision {
	if product.Category.Destination != "" {
		return RouteDecision{
			Destination: product.Category.Destination,
			Source:      RouteSourceDeclared,
		}
	}

	name := strings.ToLower(product.Name)
	for _, kw := range barKeywords {
		if strings.Contains(name, kw) {
			return RouteDecision{Destination: models.DestinationBar, Source: RouteSourceInferred}
		}
	}
	return RouteDecision{Destination: models.DestinationKitchen, Source: RouteSourceInferred}
}

// RouteItem menghasilkan set destinasi distinct untuk satu order item.
// Item package diurai ke product penyusunnya; union destinasi mereka jadi
// target routing (penyusun lintas kitchen dan bar -> dua-duanya).
func (r *RoutingService) RouteItem(tx *gorm.DB, item models.OrderItem) ([]RouteDecision, error) {
	byDest := make(map[string]string) // destination -> source (declared menang)

	add := func(d RouteDecision) {
		expand := []string{d.Destination}
		if d.Destination == models.DestinationBoth {
			expand = []string{models.DestinationKitchen, models.DestinationBar}
		}
		for _, dest := range expand {
			if prev, ok := byDest[dest]; !ok || prev == RouteSourceInferred {
				byDest[dest] = d.Source
			}
		}
	}

	switch {
	case item.ProductID != nil:
		var product models.Product
		if err := tx.Preload("Category").First(&product, *item.ProductID).Error; err != nil {
			return nil, err
		}
		add(r.RouteProduct(product))

	case item.PackageID != nil:
		var pkg models.Package
		if err := tx.Preload("Items.Product.Category").First(&pkg, *item.PackageID).Error; err != nil {
			return nil, err
		}
		for _, pi := range pkg.Items {
			add(r.RouteProduct(pi.Product))
		}

	default:
		return nil, &ValidationError{Message: "order item tanpa product maupun package"}
	}

	decisions := make([]RouteDecision, 0, len(byDest))
	for _, dest := range []string{models.DestinationKitchen, models.DestinationBar} {
		if source, ok := byDest[dest]; ok {
			decisions = append(decisions, RouteDecision{Destination: dest, Source: source})
			if source == RouteSourceInferred {
				utils.InfoLogger.Printf("Routing inferred for item #%d -> %s (perbaiki destinasi kategorinya)", item.ID, dest)
			}
		}
	}
	return decisions, nil
}

// CreateTickets membuat prep ticket untuk semua item order, satu per
// (item, destinasi). All-or-nothing: error apa pun membatalkan transaksi
// pemanggil sehingga konfirmasi ikut batal.
func (r *RoutingService) CreateTickets(tx *gorm.DB, order *models.Order) ([]models.PrepTicket, error) {
	var created []models.PrepTicket

	for _, item := range order.OrderItems {
		decisions, err := r.RouteItem(tx, item)
		if err != nil {
			return nil, err
		}
		if len(decisions) == 0 {
			return nil, fmt.Errorf("tidak ada destinasi untuk item #%d", item.ID)
		}

		for _, d := range decisions {
			ticket := models.PrepTicket{
				OrderID:     order.ID,
				OrderItemID: item.ID,
				Destination: d.Destination,
				Status:      TicketStatusPending,
				Inferred:    d.Source == RouteSourceInferred,
			}
			if err := tx.Create(&ticket).Error; err != nil {
				return nil, err
			}
			created = append(created, ticket)
		}
	}

	return created, nil
}
