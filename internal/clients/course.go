package clients

import (
	"context"
	"net/http"
	"time"
)

// CourseClient talks to the course peer service.
type CourseClient struct {
	baseClient
}

func NewCourseClient(baseURL, gatewayKey string, timeout time.Duration) *CourseClient {
	return &CourseClient{newBaseClient(baseURL, gatewayKey, timeout)}
}

// EnrollmentRequest asks the course service to enroll a buyer.
type EnrollmentRequest struct {
	Email         string `json:"email,omitempty"`
	UserID        string `json:"userId"`
	CourseID      string `json:"courseId"`
	PaymentAmount int64  `json:"paymentAmount"`
	PaymentID     string `json:"paymentId,omitempty"`
	CouponCode    string `json:"couponCode,omitempty"`
}

// Enroll registers the buyer on the purchased course.
func (c *CourseClient) Enroll(ctx context.Context, req EnrollmentRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/enroll", req)
	return err
}
