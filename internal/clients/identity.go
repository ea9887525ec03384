package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// IdentityClient talks to the identity/subscription peer service.
type IdentityClient struct {
	baseClient
}

func NewIdentityClient(baseURL, gatewayKey string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{newBaseClient(baseURL, gatewayKey, timeout)}
}

// Upgrade grants premium status to the user behind the email.
func (c *IdentityClient) Upgrade(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/upgrade", map[string]string{"email": email})
	return err
}

// GetUser fetches a user profile; the body is forwarded untouched.
func (c *IdentityClient) GetUser(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/user/"+userID, nil)
}

// RevokePremium removes a user's premium status.
func (c *IdentityClient) RevokePremium(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodPut, "/user/"+userID+"/revoke-premium", map[string]string{"userId": userID})
	return err
}
