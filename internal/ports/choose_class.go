package ports

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ratelimiting"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

func MakeChooseClassHandler(
	chooseClass app.ChooseClass,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(2),
			ratelimiting.BurstSize(60),
		),
		ratelimiting.IPKeyFunc,
	)
	playerRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		ratelimiting.NewTokenBucketRateLimiter(
			ratelimiting.RefillPerSecond(1),
			ratelimiting.BurstSize(30),
		),
		ratelimiting.PlayerKeyFunc,
	)

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("choose-class"),
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

		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Failed to read request body")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "unreadable body")
			return
		}

		request := struct {
			Class string `json:"class"`
		}{}
		err = json.Unmarshal(body, &request)
		if err != nil {
			statusCode := writeBadRequest(ctx, w, "Failed to parse request body")
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid body")
			return
		}

		player, err := chooseClass(ctx, uuid, request.Class)
		if err != nil {
			// NOTE: ChooseClass implementations handle their own error reporting
			logger.Error("Error choosing class", "error", err, "class", request.Class)
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		responseData, err := PlayerToResponseData(player, nil)
		if err != nil {
			logger.Error("Failed to convert player to response", "error", err)

			err = fmt.Errorf("failed to convert player to response: %w", err)
			reporting.Report(ctx, err)

			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		statusCode := 200
		logger.Info("Returning response", "statusCode", statusCode, "reason", "success", "class", string(player.Class))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(responseData)
	}

	return middleware(handler)
}
