package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ratelimiting"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

func MakeGenerateQuestsHandler(
	generateQuests app.GenerateQuests,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	// Generation hits the external completion API, so keep the limits tight
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(1),
			ratelimiting.BurstSize(10),
		),
		ratelimiting.IPKeyFunc,
	)
	playerRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(1),
			ratelimiting.BurstSize(5),
		),
		ratelimiting.PlayerKeyFunc,
	)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("generate-quests"),
		buildMetricsMiddleware(),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(playerRateLimiter, makeOnLimitExceeded(playerRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rawUUID := r.PathValue("uuid")
		ctx = logging.AddMetaToContext(ctx,
			slog.String("uuid", rawUUID),
		)
		logger := logging.FromContext(ctx)

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"rawUUID": rawUUID,
			},
		)

		uuid, err := strutils.NormalizeUUID(rawUUID)
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Invalid UUID")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid uuid")
			return
		}

		ctx = reporting.SetPlayerUUIDInContext(ctx, uuid)

		ledger, err := generateQuests(ctx, uuid)
		if err != nil {
			// NOTE: GenerateQuests implementations handle their own error reporting
			logger.Error("Error generating quests", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		responseData, err := QuestsToResponseData(ledger)
		if err != nil {
			logger.Error("Failed to convert quests to response", "error", err)

			err = fmt.Errorf("failed to convert quests to response: %w", err)
			reporting.Report(ctx, err)

			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := 200
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "quests", ledger.Len())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(responseData)
	}

	return middleware(handler)
}
