package handlers

import (
	"furnibles/internal/cache"
	"furnibles/internal/config"
	"furnibles/internal/repos"
	"furnibles/internal/services"
	"furnibles/internal/storage"

	"github.com/jmoiron/sqlx"
)

// Deps holds the wired handler set plus the auth service the route
// middlewares need. Everything hangs off the one *sqlx.DB.
type Deps struct {
	Auth *services.AuthService

	AuthH    *AuthHandler
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Order    *OrderHandler
	Webhook  *WebhookHandler
	Download *DownloadHandler
	Review   *ReviewHandler
	Favorite *FavoriteHandler
	Seller   *SellerHandler
	Admin    *AdminHandler
	Files    *FileHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	users := repos.NewUserRepo(db)
	cats := repos.NewCategoryRepo(db)
	prods := repos.NewProductRepo(db)
	carts := repos.NewCartRepo(db)
	orders := repos.NewOrderRepo(db)
	tokens := repos.NewTokenRepo(db)
	reviews := repos.NewReviewRepo(db)
	favs := repos.NewFavoriteRepo(db)

	auth := &services.AuthService{Users: users}
	catalogSvc := services.NewCatalogService(cats, prods, reviews, cache.New(cfg.RedisAddr))
	cartSvc := services.NewCartService(carts, prods, cfg.PlatformFeePct)
	downloadSvc := services.NewDownloadService(tokens, prods, cfg.DownloadLimit, cfg.DownloadTTLDays)
	orderSvc := services.NewOrderService(carts, prods, orders, downloadSvc, services.LogNotifier{}, cfg.PlatformFeePct)
	reviewSvc := services.NewReviewService(reviews, orders, prods)
	sellerSvc := services.NewSellerService(prods, orders, cfg.PlatformFeePct)
	store := storage.NewLocalStore(cfg.MediaBaseURL, cfg.SigningKey)

	return &Deps{
		Auth: auth,

		AuthH:    &AuthHandler{Auth: auth},
		Catalog:  &CatalogHandler{Catalog: catalogSvc, Reviews: reviewSvc},
		Cart:     &CartHandler{Cart: cartSvc},
		Order:    &OrderHandler{Order: orderSvc, Tokens: tokens},
		Webhook:  &WebhookHandler{Order: orderSvc, Secret: cfg.WebhookSecret},
		Download: &DownloadHandler{Downloads: downloadSvc, Store: store},
		Review:   &ReviewHandler{Reviews: reviewSvc},
		Favorite: &FavoriteHandler{Favs: favs},
		Seller:   &SellerHandler{Seller: sellerSvc, Catalog: catalogSvc},
		Admin:    &AdminHandler{Orders: orders, Reviews: reviewSvc, Downloads: downloadSvc, Catalog: catalogSvc, Prods: prods},
		Files:    &FileHandler{Store: store, Dir: cfg.FilesDir},
	}
}
