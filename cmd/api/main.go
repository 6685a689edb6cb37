package main

import (
	"os"
	"strconv"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/event"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("layer", "main").Logger()

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(role),
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envは任意。無ければ環境変数だけで動く
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.A11ySettings{},
		&model.Seller{},
		&model.Product{},
		&model.Category{},
		&model.Address{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	a11yRepo := infraRepo.NewA11yGormRepository(gormDB)
	sellerRepo := infraRepo.NewSellerGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Redis（カート件数キャッシュ）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	cartCount := cache.NewCartCountRedis(redisClient)

	//Kafka（注文イベント）。ブローカー未設定なら発行なし
	publisher := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	//決済ゲートウェイ
	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}
	authValidator := validator.NewAuthValidator()
	refreshTTL := 14 * 24 * time.Hour

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, authValidator, issuer, idGen, clock)
	userUC := usecase.NewUserUsecase(userRepo, a11yRepo, rtRepo, clock)
	addressUC := usecase.NewAddressUsecase(addressRepo, clock)
	productUC := usecase.NewProductUsecase(productRepo, sellerRepo, categoryRepo)
	sellerUC := usecase.NewSellerUsecase(sellerRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, cartCount)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, cartRepo, cartItemRepo, productRepo, idGen, clock, publisher, cartCount)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, paymentRepo, gateway, clock, publisher, cartCount)
	orderUC := usecase.NewOrderUsecase(txManager, publisher, clock)
	adminUC := usecase.NewAdminUsecase(txManager, userRepo, sellerRepo, productRepo, orderRepo, auditRepo, clock)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, refreshTTL),
		Product:      handler.NewProductHandler(productUC),
		User:         handler.NewUserHandler(userUC),
		Address:      handler.NewAddressHandler(addressUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(checkoutUC, orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Seller:       handler.NewSellerHandler(sellerUC, productUC),
		AdminProduct: handler.NewAdminProductHandler(adminUC),
		AdminSeller:  handler.NewAdminSellerHandler(adminUC),
		AdminUser:    handler.NewAdminUserHandler(adminUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminUC),
	}

	//Server起動
	e := server.New(cfg)
	server.RegisterRoutes(e, cfg, userRepo, handlers)

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := server.Start(e, cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
