package ports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/domaintest"
)

func TestMakeCompleteQuestHandler(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		quest := domain.Quest{Title: "Warmup", ExpReward: 20, StatRewards: map[string]int{"physique": 1}}

		handler := MakeCompleteQuestHandler(
			func(ctx context.Context, uuid string, index int) (*app.CompletedQuest, error) {
				require.Equal(t, UUID, uuid)
				require.Equal(t, 1, index)
				return &app.CompletedQuest{
					Player: domaintest.NewPlayerBuilder(UUID, now).WithExperience(20).BuildPtr(),
					Ledger: domain.NewQuestLedger(nil),
					Quest:  quest,
				}, nil
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/quests/1/complete", nil)
		req.SetPathValue("uuid", UUID)
		req.SetPathValue("index", "1")

		handler(w, req)

		resp := w.Result()
		require.Equal(t, 200, resp.StatusCode)

		body := w.Body.String()
		require.Contains(t, body, `"completed":{`)
		require.Contains(t, body, `"Warmup"`)
		require.Contains(t, body, `"experience":20`)
		require.Contains(t, body, `"quests":[]`)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		handler := MakeCompleteQuestHandler(
			func(ctx context.Context, uuid string, index int) (*app.CompletedQuest, error) {
				return nil, fmt.Errorf("failed to complete quest: %w", domain.ErrQuestOutOfRange)
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/quests/7/complete", nil)
		req.SetPathValue("uuid", UUID)
		req.SetPathValue("index", "7")

		handler(w, req)

		require.Equal(t, 400, w.Result().StatusCode)
		require.Contains(t, w.Body.String(), `"cause":"Quest index out of range"`)
	})

	t.Run("invalid index", func(t *testing.T) {
		t.Parallel()

		handler := MakeCompleteQuestHandler(
			func(ctx context.Context, uuid string, index int) (*app.CompletedQuest, error) {
				t.Helper()
				t.Fatal("should not be called")
				return nil, nil
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/quests/first/complete", nil)
		req.SetPathValue("uuid", UUID)
		req.SetPathValue("index", "first")

		handler(w, req)

		require.Equal(t, 400, w.Result().StatusCode)
		require.Contains(t, w.Body.String(), `"cause":"Invalid quest index"`)
	})
}
