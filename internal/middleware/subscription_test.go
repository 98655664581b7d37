package middleware

import (
	"net/http"
	"testing"
	"time"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
)

type stubSubscriptions struct {
	user *models.User
	err  error
}

func (s *stubSubscriptions) GetSubscription(userID string) (*models.User, error) {
	return s.user, s.err
}

func TestRequireActiveSubscription(t *testing.T) {
	setTestConfig(t)
	token, _ := GenerateAccessToken(testUser(models.RoleUser))

	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		stub       *stubSubscriptions
		wantStatus int
		wantCode   string
	}{
		{"active_trial", &stubSubscriptions{user: &models.User{SubscriptionStatus: models.SubscriptionTrial, SubscriptionEndDate: &future}}, http.StatusOK, ""},
		{"active_pro", &stubSubscriptions{user: &models.User{SubscriptionStatus: models.SubscriptionPro, SubscriptionEndDate: &future}}, http.StatusOK, ""},
		{"free", &stubSubscriptions{user: &models.User{SubscriptionStatus: models.SubscriptionFree}}, http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED"},
		{"expired", &stubSubscriptions{user: &models.User{SubscriptionStatus: models.SubscriptionExpired}}, http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED"},
		{"lapsed_pro", &stubSubscriptions{user: &models.User{SubscriptionStatus: models.SubscriptionPro, SubscriptionEndDate: &past}}, http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED"},
		{"unknown_user", &stubSubscriptions{err: apperrors.ErrUserNotFound}, http.StatusNotFound, "USER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(RequireActiveSubscription(tt.stub))
			rec := doAuthRequest(router, "Bearer "+token)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				assertErrorCode(t, rec, tt.wantCode)
			}
		})
	}
}
