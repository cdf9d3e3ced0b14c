package questprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/domaintest"
)

type mockedCompletionAPIClient struct {
	t          *testing.T
	response   []byte
	statusCode int
	err        error

	calls   int
	prompts []string
}

func (m *mockedCompletionAPIClient) CreateChatCompletion(ctx context.Context, prompt string) ([]byte, int, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.response, m.statusCode, m.err
}

func newTestQuestProvider(t *testing.T, api CompletionAPI) QuestProvider {
	t.Helper()

	provider, err := NewCompletionQuestProvider(api, time.Now, time.After)
	require.NoError(t, err)
	return provider
}

func TestCompletionQuestProvider(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	now := time.Now()

	t.Run("generates quests for a classed player", func(t *testing.T) {
		t.Parallel()

		content := `[{"title":"Solve a puzzle","description":"Finish one logic puzzle.","expReward":25,"statRewards":{"logic":1}}]`
		api := &mockedCompletionAPIClient{
			t:          t,
			response:   completionResponseWithContent(t, content),
			statusCode: 200,
		}

		provider := newTestQuestProvider(t, api)

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).
			WithClass(domain.ClassMage).
			WithLevel(4).
			BuildPtr()

		quests, err := provider.GenerateQuests(ctx, player)
		require.NoError(t, err)
		require.Len(t, quests, 1)
		assert.Equal(t, "Solve a puzzle", quests[0].Title)

		require.Equal(t, 1, api.calls)
		require.Len(t, api.prompts, 1)
		assert.Contains(t, api.prompts[0], "level 4 mage")
		for _, attribute := range domain.AllAttributes() {
			assert.Contains(t, api.prompts[0], string(attribute))
		}
	})

	t.Run("rejects player without class", func(t *testing.T) {
		t.Parallel()

		api := &mockedCompletionAPIClient{t: t, statusCode: 200}
		provider := newTestQuestProvider(t, api)

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).BuildPtr()

		_, err := provider.GenerateQuests(ctx, player)
		require.ErrorIs(t, err, domain.ErrUnknownClass)
		assert.Equal(t, 0, api.calls)
	})

	t.Run("rejects denormalized uuid", func(t *testing.T) {
		t.Parallel()

		api := &mockedCompletionAPIClient{t: t, statusCode: 200}
		provider := newTestQuestProvider(t, api)

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).
			WithClass(domain.ClassFighter).
			BuildPtr()
		player.UUID = "AB-123"

		_, err := provider.GenerateQuests(ctx, player)
		require.Error(t, err)
		assert.Equal(t, 0, api.calls)
	})

	t.Run("api failure is temporarily unavailable", func(t *testing.T) {
		t.Parallel()

		api := &mockedCompletionAPIClient{t: t, err: assert.AnError}
		provider := newTestQuestProvider(t, api)

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).
			WithClass(domain.ClassTanker).
			BuildPtr()

		_, err := provider.GenerateQuests(ctx, player)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
	})

	t.Run("upstream ratelimit is temporarily unavailable", func(t *testing.T) {
		t.Parallel()

		api := &mockedCompletionAPIClient{t: t, response: []byte(`{}`), statusCode: 429}
		provider := newTestQuestProvider(t, api)

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).
			WithClass(domain.ClassHealer).
			BuildPtr()

		_, err := provider.GenerateQuests(ctx, player)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
	})
}

func TestMockedCompletionAPI(t *testing.T) {
	t.Parallel()

	api := &mockedCompletionAPI{}
	data, statusCode, err := api.CreateChatCompletion(t.Context(), "prompt")
	require.NoError(t, err)
	require.Equal(t, 200, statusCode)

	quests, err := ParseCompletionResponse(t.Context(), data, statusCode)
	require.NoError(t, err)
	require.NotEmpty(t, quests)
}
