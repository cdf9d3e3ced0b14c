package questprovider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zed38662/Solo-leveling/internal/domain"
	e "github.com/zed38662/Solo-leveling/internal/errors"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ratelimiting"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

const generateQuestsMinOperationTime = 500 * time.Millisecond

type RequestLimiter interface {
	Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool
}

type completionQuestProviderMetricsCollection struct {
	requestCount metric.Int64Counter
	questCount   metric.Int64Counter
}

func setupCompletionQuestProviderMetrics(meter metric.Meter) (completionQuestProviderMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("questprovider/completion/request_count")
	if err != nil {
		return completionQuestProviderMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	questCount, err := meter.Int64Counter("questprovider/completion/quest_count")
	if err != nil {
		return completionQuestProviderMetricsCollection{}, fmt.Errorf("failed to create quest count metric: %w", err)
	}

	return completionQuestProviderMetricsCollection{
		requestCount: requestCount,
		questCount:   questCount,
	}, nil
}

type completionQuestProvider struct {
	completionAPI CompletionAPI
	limiter       RequestLimiter

	metrics completionQuestProviderMetricsCollection
	tracer  trace.Tracer
}

func NewCompletionQuestProvider(completionAPI CompletionAPI, nowFunc func() time.Time, afterFunc func(time.Duration) <-chan time.Time) (QuestProvider, error) {
	const name = "sololeveling/questprovider/completion"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	metrics, err := setupCompletionQuestProviderMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	limiter := ratelimiting.NewWindowLimitRequestLimiter(120, time.Minute, nowFunc, afterFunc)

	return &completionQuestProvider{
		completionAPI: completionAPI,
		limiter:       limiter,

		metrics: metrics,
		tracer:  tracer,
	}, nil
}

func buildQuestPrompt(player *domain.PlayerStats) string {
	var b strings.Builder

	b.WriteString("You are the quest master of a real-life leveling game. ")
	fmt.Fprintf(&b, "Generate 3 short daily self-improvement quests for a level %d %s.\n", player.Level, player.Class)

	b.WriteString("Their current attributes are:\n")
	attributes := make([]string, 0, len(player.Attributes))
	for attribute := range player.Attributes {
		attributes = append(attributes, string(attribute))
	}
	sort.Strings(attributes)
	for _, attribute := range attributes {
		fmt.Fprintf(&b, "- %s: %d\n", attribute, player.Attributes[domain.Attribute(attribute)])
	}

	b.WriteString("Favor quests that train their weakest attributes.\n")
	b.WriteString(`Reply with only a JSON array where each element has the keys "title", "description", "expReward" (integer) and "statRewards" (object mapping attribute names to integer increments).`)

	return b.String()
}

func (p *completionQuestProvider) GenerateQuests(ctx context.Context, player *domain.PlayerStats) ([]domain.Quest, error) {
	ctx, span := p.tracer.Start(ctx, "CompletionQuestProvider.GenerateQuests")
	defer span.End()

	if player == nil {
		err := fmt.Errorf("player is nil")
		reporting.Report(ctx, err)
		return nil, err
	}

	if !strutils.UUIDIsNormalized(player.UUID) {
		logging.FromContext(ctx).Error("UUID is not normalized", "uuid", player.UUID)
		err := fmt.Errorf("UUID is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": player.UUID,
		})
		return nil, err
	}

	if player.Class == "" {
		return nil, fmt.Errorf("%w: player has not chosen a class", domain.ErrUnknownClass)
	}

	prompt := buildQuestPrompt(player)

	var responseData []byte
	var statusCode int
	var err error
	ran := p.limiter.Limit(ctx, generateQuestsMinOperationTime, func(ctx context.Context) {
		ctx, span := p.tracer.Start(ctx, "CompletionQuestProvider.completion")
		defer span.End()

		responseData, statusCode, err = p.completionAPI.CreateChatCompletion(ctx, prompt)
	})
	if !ran {
		reporting.Report(ctx, fmt.Errorf("too many requests to completion API"))
		logging.FromContext(ctx).WarnContext(ctx, "Did not generate quests due to rate limiting", "ctx_error", ctx.Err())
		return nil, fmt.Errorf("%w: too many requests to completion API", domain.ErrTemporarilyUnavailable)
	}

	p.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ran", ran)))

	if err != nil {
		// NOTE: CompletionAPI implementations handle their own error reporting
		return nil, fmt.Errorf("%w: failed to create completion: %w", domain.ErrTemporarilyUnavailable, err)
	}

	quests, err := ParseCompletionResponse(ctx, responseData, statusCode)
	if err != nil {
		// NOTE: ParseCompletionResponse handles its own error reporting
		if errors.Is(err, e.RatelimitExceededError) || errors.Is(err, e.APIServerError) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
		}
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}

	p.metrics.questCount.Add(ctx, int64(len(quests)))

	return quests, nil
}
