package middleware

import (
	"net/http"

	"argotelabs/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// LoginRate caps sign-in attempts per IP.
const LoginRate = "20-M"

// RateLimiter limits requests per client IP using a ulule formatted rate
// ("1000-M"). With a Redis client the counters are shared by every instance;
// otherwise they live in memory.
func RateLimiter(formatted, prefix string, rdb *redis.Client) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Fatal().Err(err).Str("rate", formatted).Msg("rate limit invalido")
	}

	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "limiter:" + prefix})
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter: redis no disponible, usando memoria")
		}
	}
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Limiter store failures never block traffic.
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limiter fallido")
			c.Next()
		}),
	)
}
