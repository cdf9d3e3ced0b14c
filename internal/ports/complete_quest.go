package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ratelimiting"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

func MakeCompleteQuestHandler(
	completeQuest app.CompleteQuest,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(4),
			ratelimiting.BurstSize(120),
		),
		ratelimiting.IPKeyFunc,
	)
	playerRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(2),
			ratelimiting.BurstSize(60),
		),
		ratelimiting.PlayerKeyFunc,
	)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("complete-quest"),
		buildMetricsMiddleware(),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(playerRateLimiter, makeOnLimitExceeded(playerRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rawUUID := r.PathValue("uuid")
		rawIndex := r.PathValue("index")
		ctx = logging.AddMetaToContext(ctx,
			slog.String("uuid", rawUUID),
			slog.String("index", rawIndex),
		)
		logger := logging.FromContext(ctx)

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"rawUUID":  rawUUID,
				"rawIndex": rawIndex,
			},
		)

		uuid, err := strutils.NormalizeUUID(rawUUID)
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Invalid UUID")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid uuid")
			return
		}

		ctx = reporting.SetPlayerUUIDInContext(ctx, uuid)

		index, err := strconv.Atoi(rawIndex)
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Invalid quest index")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid index")
			return
		}

		completed, err := completeQuest(ctx, uuid, index)
		if err != nil {
			// NOTE: CompleteQuest implementations handle their own error reporting
			logger.Error("Error completing quest", "error", err, "index", index)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		responseData, err := CompletedQuestToResponseData(completed)
		if err != nil {
			logger.Error("Failed to convert completed quest to response", "error", err)

			err = fmt.Errorf("failed to convert completed quest to response: %w", err)
			reporting.Report(ctx, err)

			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := 200
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "quest", completed.Quest.Title)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(responseData)
	}

	return middleware(handler)
}
