package ports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/domaintest"
)

func TestMakeChooseClassHandler(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := MakeChooseClassHandler(
			func(ctx context.Context, uuid string, class string) (*domain.PlayerStats, error) {
				require.Equal(t, UUID, uuid)
				require.Equal(t, "mage", class)
				return domaintest.NewPlayerBuilder(UUID, now).WithClass(domain.ClassMage).BuildPtr(), nil
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/class", strings.NewReader(`{"class":"mage"}`))
		req.SetPathValue("uuid", UUID)

		handler(w, req)

		resp := w.Result()
		require.Equal(t, 200, resp.StatusCode)
		require.Contains(t, w.Body.String(), `"class":"mage"`)
	})

	t.Run("unknown class", func(t *testing.T) {
		t.Parallel()

		handler := MakeChooseClassHandler(
			func(ctx context.Context, uuid string, class string) (*domain.PlayerStats, error) {
				return nil, fmt.Errorf("failed to parse class: %w", domain.ErrUnknownClass)
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/class", strings.NewReader(`{"class":"paladin"}`))
		req.SetPathValue("uuid", UUID)

		handler(w, req)

		resp := w.Result()
		require.Equal(t, 400, resp.StatusCode)
		require.Contains(t, w.Body.String(), `"cause":"Unknown class"`)
	})

	t.Run("invalid body", func(t *testing.T) {
		t.Parallel()

		handler := MakeChooseClassHandler(
			func(ctx context.Context, uuid string, class string) (*domain.PlayerStats, error) {
				t.Helper()
				t.Fatal("should not be called")
				return nil, nil
			},
			testDomainSuffixes(t), testLogger, noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/player/"+UUID+"/class", strings.NewReader(`{`))
		req.SetPathValue("uuid", UUID)

		handler(w, req)

		require.Equal(t, 400, w.Result().StatusCode)
	})
}
