package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ratelimiting"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

const defaultHistoryLimit = 100

func MakeGetHistoryHandler(
	getHistory app.GetHistory,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(1),
			ratelimiting.BurstSize(60),
		),
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("history"),
		buildMetricsMiddleware(),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
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

		query := r.URL.Query()

		start, err := time.Parse(time.RFC3339, query.Get("start"))
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Invalid start time")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid start")
			return
		}

		end, err := time.Parse(time.RFC3339, query.Get("end"))
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Invalid end time")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid end")
			return
		}

		limit := defaultHistoryLimit
		if rawLimit := query.Get("limit"); rawLimit != "" {
			limit, err = strconv.Atoi(rawLimit)
			if err != nil {
				statusCode := writeBadRequest(ctx, w, "Invalid limit")
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid limit")
				return
			}
		}

		history, err := getHistory(ctx, uuid, start, end, limit)
		if err != nil {
			// NOTE: GetHistory implementations handle their own error reporting
			logger.Error("Error getting history", "error", err)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		responseData, err := HistoryToResponseData(history)
		if err != nil {
			logger.Error("Failed to convert history to response", "error", err)

			err = fmt.Errorf("failed to convert history to response: %w", err)
			reporting.Report(ctx, err)

			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := 200
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "entries", len(history))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(responseData)
	}

	return middleware(handler)
}
