package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "kyatflow/internal/errors"
)

func TestInternalHandler_ExpireSubscriptions(t *testing.T) {
	t.Run("reports expired count", func(t *testing.T) {
		subSvc := &mockSubscriptionService{
			expireOverdueFn: func() (int64, error) { return 3, nil },
		}
		r := gin.New()
		r.POST("/internal/subscriptions/expire", NewInternalHandler(subSvc).ExpireSubscriptions)

		rec := doRequest(r, "POST", "/internal/subscriptions/expire", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["expired"] != float64(3) {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("returns 500 on failure", func(t *testing.T) {
		subSvc := &mockSubscriptionService{
			expireOverdueFn: func() (int64, error) {
				return 0, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db down"))
			},
		}
		r := gin.New()
		r.POST("/internal/subscriptions/expire", NewInternalHandler(subSvc).ExpireSubscriptions)

		rec := doRequest(r, "POST", "/internal/subscriptions/expire", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
