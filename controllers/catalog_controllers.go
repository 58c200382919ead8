package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adiwarsito/resto-pos/models"
	"github.com/adiwarsito/resto-pos/services"
	"github.com/adiwarsito/resto-pos/utils"
)

// CatalogController melayani katalog jualan: product (tersaring kebijakan
// stok), kategori, dan package.
type CatalogController struct {
	DB    *gorm.DB
	Stock *services.StockService
}

func NewCatalogController(db *gorm.DB, stock *services.StockService) *CatalogController {
	return &CatalogController{DB: db, Stock: stock}
}

// GetSellableProducts -> product yang boleh ditawarkan ke customer.
// Product strict dengan stok nol tidak muncul; product flexible selalu
// muncul dengan flag stok untuk konfirmasi manual.
func (cc *CatalogController) GetSellableProducts(c *gin.Context) {
	products, err := cc.Stock.ListSellable()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type sellable struct {
		models.Product
		LowStock bool `json:"low_stock"`
	}
	out := make([]sellable, 0, len(products))
	for _, p := range products {
		out = append(out, sellable{
			Product:  p,
			LowStock: p.Stock <= p.LowStockThreshold,
		})
	}
	utils.RespondJSON(c, http.StatusOK, "Sellable products", out)
}

// GetAllCategories -> daftar kategori beserta kebijakan stok & destinasinya
func (cc *CatalogController) GetAllCategories(c *gin.Context) {
	var categories []models.Category
	if err := cc.DB.Order("name asc").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// GetAllPackages -> daftar package aktif beserta penyusunnya
func (cc *CatalogController) GetAllPackages(c *gin.Context) {
	var packages []models.Package
	if err := cc.DB.Preload("Items.Product").
		Where("active = ?", true).
		Order("name asc").
		Find(&packages).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of packages", packages)
}

// GetProductByID -> detail satu product
func (cc *CatalogController) GetProductByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := cc.DB.Preload("Category").First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}
