package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"docchat/types"
)

// SalesforceClient implements RecordService against a Salesforce org,
// authenticating with the refresh-token grant on every call.
type SalesforceClient struct {
	instanceURL  string
	clientID     string
	clientSecret string
	refreshToken string
	client       *http.Client
	logger       *slog.Logger
}

func NewSalesforceClient() *SalesforceClient {
	return &SalesforceClient{
		instanceURL:  strings.TrimSuffix(os.Getenv("SF_INSTANCE_URL"), "/"),
		clientID:     os.Getenv("SF_CLIENT_ID"),
		clientSecret: os.Getenv("SF_CLIENT_SECRET"),
		refreshToken: os.Getenv("SF_REFRESH_TOKEN"),
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default().With("component", "salesforce"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *SalesforceClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", c.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.instanceURL+"/services/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d, body: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}
	return token.AccessToken, nil
}

// FindByEmail looks up an existing Lead record by exact email match.
func (c *SalesforceClient) FindByEmail(ctx context.Context, email string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	soql := fmt.Sprintf("SELECT Id FROM Lead WHERE Email = '%s' LIMIT 1",
		strings.ReplaceAll(email, "'", "\\'"))
	endpoint := fmt.Sprintf("%s/services/data/v58.0/query?q=%s",
		c.instanceURL, url.QueryEscape(soql))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lead query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lead query: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Records []struct {
			ID string `json:"Id"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal query response: %w", err)
	}
	if len(result.Records) == 0 {
		return "", nil
	}
	return result.Records[0].ID, nil
}

// Create inserts a new Lead record and returns its id and a browse link.
func (c *SalesforceClient) Create(ctx context.Context, lead types.Lead) (string, string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", "", err
	}

	company := lead.Company
	if company == "" {
		company = "Unknown Company"
	}
	description := lead.Summary
	if description == "" {
		description = "Lead generated from document upload"
	}
	payload, err := json.Marshal(map[string]string{
		"LastName":    lead.Name,
		"Company":     company,
		"Email":       lead.Email,
		"Description": description,
		"LeadSource":  "Web",
	})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.instanceURL+"/services/data/v58.0/sobjects/Lead", bytes.NewReader(payload))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("lead create failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", "", fmt.Errorf("lead create: status %d, body: %s", resp.StatusCode, string(body))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", "", fmt.Errorf("unmarshal create response: %w", err)
	}
	return created.ID, fmt.Sprintf("%s/%s", c.instanceURL, created.ID), nil
}
