package reconciler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"edupay/internal/clients"
	"edupay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "whsec_test_secret"

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) MarkProcessed(eventID, source string) (bool, error) {
	args := m.Called(eventID, source)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepo) Unmark(eventID string) error {
	args := m.Called(eventID)
	return args.Error(0)
}

type MockUpgrader struct {
	mock.Mock
}

func (m *MockUpgrader) Upgrade(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockEnroller struct {
	mock.Mock
}

func (m *MockEnroller) Enroll(ctx context.Context, req clients.EnrollmentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockSaleRecorder struct {
	mock.Mock
}

func (m *MockSaleRecorder) RecordSale(ctx context.Context, courseID, tutorID string, gross int64) (*models.Payout, error) {
	args := m.Called(ctx, courseID, tutorID, gross)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

// sign produces a stripe-signature header for the payload the same way
// Stripe does: v1 = HMAC-SHA256(secret, "<timestamp>.<payload>").
func sign(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func premiumEventPayload(eventID string) []byte {
	return []byte(`{
		"id": "` + eventID + `",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_premium_1",
				"customer_email": "buyer@example.com",
				"metadata": {"type": "premium"}
			}
		}
	}`)
}

func courseEventPayload(eventID string) []byte {
	return []byte(`{
		"id": "` + eventID + `",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_course_1",
				"customer_email": "buyer@example.com",
				"payment_intent": {"id": "pi_1"},
				"metadata": {
					"type": "course",
					"userId": "user-1",
					"courseId": "course-1",
					"tutorId": "tutor-1",
					"paymentAmount": "300",
					"couponCode": "SAVE10"
				}
			}
		}
	}`)
}

func newTestService(events *MockEventRepo, identity *MockUpgrader, courses *MockEnroller, settlement *MockSaleRecorder) Service {
	return NewService(testSecret, events, identity, courses, settlement)
}

func TestHandleEvent_BadSignature(t *testing.T) {
	events := new(MockEventRepo)
	identity := new(MockUpgrader)

	s := newTestService(events, identity, new(MockEnroller), new(MockSaleRecorder))
	payload := premiumEventPayload("evt_1")
	err := s.HandleEvent(context.Background(), payload, sign(payload, "whsec_wrong"))

	assert.ErrorIs(t, err, ErrInvalidSignature)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	identity.AssertNotCalled(t, "Upgrade", mock.Anything, mock.Anything)
}

func TestHandleEvent_PremiumCheckout(t *testing.T) {
	events := new(MockEventRepo)
	identity := new(MockUpgrader)
	events.On("MarkProcessed", "evt_1", models.EventSourceStripe).Return(true, nil)
	identity.On("Upgrade", mock.Anything, "buyer@example.com").Return(nil)

	s := newTestService(events, identity, new(MockEnroller), new(MockSaleRecorder))
	payload := premiumEventPayload("evt_1")
	err := s.HandleEvent(context.Background(), payload, sign(payload, testSecret))

	assert.NoError(t, err)
	events.AssertExpectations(t)
	identity.AssertExpectations(t)
}

func TestHandleEvent_CourseCheckout(t *testing.T) {
	events := new(MockEventRepo)
	courses := new(MockEnroller)
	settlement := new(MockSaleRecorder)
	events.On("MarkProcessed", "evt_2", models.EventSourceStripe).Return(true, nil)
	courses.On("Enroll", mock.Anything, clients.EnrollmentRequest{
		Email:         "buyer@example.com",
		UserID:        "user-1",
		CourseID:      "course-1",
		PaymentAmount: 300,
		PaymentID:     "pi_1",
		CouponCode:    "SAVE10",
	}).Return(nil)
	settlement.On("RecordSale", mock.Anything, "course-1", "tutor-1", int64(300)).
		Return(&models.Payout{TutorShare: 210, PlatformShare: 90}, nil)

	s := newTestService(events, new(MockUpgrader), courses, settlement)
	payload := courseEventPayload("evt_2")
	err := s.HandleEvent(context.Background(), payload, sign(payload, testSecret))

	assert.NoError(t, err)
	courses.AssertExpectations(t)
	settlement.AssertExpectations(t)
}

func TestHandleEvent_Replay(t *testing.T) {
	events := new(MockEventRepo)
	courses := new(MockEnroller)
	events.On("MarkProcessed", "evt_3", models.EventSourceStripe).Return(false, nil)

	s := newTestService(events, new(MockUpgrader), courses, new(MockSaleRecorder))
	payload := courseEventPayload("evt_3")
	err := s.HandleEvent(context.Background(), payload, sign(payload, testSecret))

	assert.NoError(t, err)
	courses.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
}

func TestHandleEvent_FailedEffectReleasesClaim(t *testing.T) {
	events := new(MockEventRepo)
	courses := new(MockEnroller)
	events.On("MarkProcessed", "evt_4", models.EventSourceStripe).Return(true, nil)
	courses.On("Enroll", mock.Anything, mock.Anything).Return(errors.New("course service down"))
	events.On("Unmark", "evt_4").Return(nil)

	s := newTestService(events, new(MockUpgrader), courses, new(MockSaleRecorder))
	payload := courseEventPayload("evt_4")
	err := s.HandleEvent(context.Background(), payload, sign(payload, testSecret))

	assert.Error(t, err)
	events.AssertExpectations(t)
}

func TestHandleEvent_UnrelatedType(t *testing.T) {
	events := new(MockEventRepo)

	s := newTestService(events, new(MockUpgrader), new(MockEnroller), new(MockSaleRecorder))
	payload := []byte(`{"id": "evt_5", "type": "invoice.paid", "data": {"object": {}}}`)
	err := s.HandleEvent(context.Background(), payload, sign(payload, testSecret))

	assert.NoError(t, err)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}
