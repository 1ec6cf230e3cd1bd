// Package api is the remote data gateway: a thin typed wrapper over the
// backend's REST API. It performs exactly one attempt per call, classifies
// every failure, and never touches cache or application state; the
// cache-and-refresh coordinator owns those concerns.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paytrack/internal/core"
	applog "paytrack/internal/log"
)

const (
	// DefaultTimeout is the interactive request tier.
	DefaultTimeout = 15 * time.Second
	// LongTimeout covers known-slow backend operations.
	LongTimeout = 150 * time.Second
)

// Config holds explicit client construction parameters. No globals.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration // zero means DefaultTimeout
	LongTimeout time.Duration // zero means LongTimeout
	HTTPClient  *http.Client  // optional, for tests
	Logger      *applog.Logger
}

// Client talks to the worker-payment backend.
type Client struct {
	base        *url.URL
	token       string
	timeout     time.Duration
	longTimeout time.Duration
	http        *http.Client
	logger      *applog.Logger
}

// NewClient builds a gateway client. The base URL must be absolute http(s).
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute http(s)", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	longTimeout := cfg.LongTimeout
	if longTimeout <= 0 {
		longTimeout = LongTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newPooledHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentGateway})
	}

	return &Client{
		base:        base,
		token:       cfg.Token,
		timeout:     timeout,
		longTimeout: longTimeout,
		http:        httpClient,
		logger:      logger,
	}, nil
}

// newPooledHTTPClient tunes connection pooling for a single backend host.
// The per-call timeout tiers are enforced via context, not here.
func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}

// do performs one classified request. body and out may be nil.
func (c *Client) do(ctx context.Context, ep Endpoint, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + ep.Path
	if len(ep.Query) > 0 {
		u.RawQuery = ep.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return newError(KindInvalidRequest, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	timeout := c.timeout
	if ep.Tier == TierLong {
		timeout = c.longTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, ep.Method, u.String(), reader)
	if err != nil {
		return newError(KindInvalidRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, ep, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "request completed",
		applog.FieldMethod, ep.Method,
		applog.FieldPath, ep.Path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(started).Milliseconds())

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// Retrying cannot fix a shape mismatch; log and classify.
			c.logger.ErrorContext(ctx, "response schema mismatch",
				applog.FieldPath, ep.Path, applog.FieldError, err.Error())
			return newError(KindDecoding, err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return newError(KindUnauthorized, nil)
	default:
		return &Error{Kind: KindServer, StatusCode: resp.StatusCode}
	}
}

func (c *Client) classifyTransport(ctx context.Context, ep Endpoint, err error) error {
	// A caller-side cancellation is not a failure; the coordinator
	// discards the result. Keep it unclassified so errors.Is works.
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(KindNoConnection, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newError(KindNoConnection, err)
	}
	c.logger.WarnContext(ctx, "unclassified transport failure",
		applog.FieldPath, ep.Path, applog.FieldError, err.Error())
	return newError(KindUnknown, err)
}

// CheckHealth reports whether the backend answers its health probe.
func (c *Client) CheckHealth(ctx context.Context) bool {
	var resp StatusResponse
	return c.do(ctx, epHealth(), nil, &resp) == nil
}

// Dashboard fetches the server-side dashboard aggregate for a period.
func (c *Client) Dashboard(ctx context.Context, period core.TimePeriod) (DashboardResponse, error) {
	var resp DashboardResponse
	err := c.do(ctx, epDashboard(period), nil, &resp)
	return resp, err
}

// TransactionQuery selects one page of the transaction listing.
type TransactionQuery struct {
	Period core.TimePeriod
	Source core.PaymentSource
	Status core.TransactionStatus
	Search string
	Page   int
}

// Transactions fetches one page of the filtered listing.
func (c *Client) Transactions(ctx context.Context, q TransactionQuery) (TransactionsResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	var resp TransactionsResponse
	err := c.do(ctx, epTransactions(q), nil, &resp)
	return resp, err
}

// NewTransactions fetches transactions recorded after the since watermark.
func (c *Client) NewTransactions(ctx context.Context, since string) (NewTransactionsResponse, error) {
	var resp NewTransactionsResponse
	err := c.do(ctx, epNewTransactions(since), nil, &resp)
	return resp, err
}

// Workers fetches the full worker list.
func (c *Client) Workers(ctx context.Context) (WorkersResponse, error) {
	var resp WorkersResponse
	err := c.do(ctx, epWorkers(), nil, &resp)
	return resp, err
}

// WorkerDetail fetches one worker with server-computed statistics.
func (c *Client) WorkerDetail(ctx context.Context, workerID int) (WorkerDetailResponse, error) {
	var resp WorkerDetailResponse
	err := c.do(ctx, epWorkerDetail(workerID), nil, &resp)
	return resp, err
}

// CreateWorker registers a new worker.
func (c *Client) CreateWorker(ctx context.Context, req WorkerRequest) (WorkerDTO, error) {
	var resp WorkerDTO
	err := c.do(ctx, epCreateWorker(), req, &resp)
	return resp, err
}

// UpdateWorker replaces a worker record.
func (c *Client) UpdateWorker(ctx context.Context, workerID int, req WorkerRequest) (WorkerDTO, error) {
	var resp WorkerDTO
	err := c.do(ctx, epUpdateWorker(workerID), req, &resp)
	return resp, err
}

// DeleteWorker removes a worker.
func (c *Client) DeleteWorker(ctx context.Context, workerID int) error {
	return c.do(ctx, epDeleteWorker(workerID), nil, nil)
}

// PaymentBreakdown fetches a worker's pay composition for a period.
func (c *Client) PaymentBreakdown(ctx context.Context, workerID int, period core.TimePeriod) (PaymentBreakdownResponse, error) {
	var resp PaymentBreakdownResponse
	err := c.do(ctx, epPaymentBreakdown(workerID, period), nil, &resp)
	return resp, err
}

// DailyPayments fetches the trailing daily payment records.
func (c *Client) DailyPayments(ctx context.Context, workerID, days int) (DailyPaymentsResponse, error) {
	var resp DailyPaymentsResponse
	err := c.do(ctx, epDailyPayments(workerID, days), nil, &resp)
	return resp, err
}

// BiweeklyPayments fetches the trailing biweekly payment periods.
func (c *Client) BiweeklyPayments(ctx context.Context, workerID, count int) (BiweeklyPaymentsResponse, error) {
	var resp BiweeklyPaymentsResponse
	err := c.do(ctx, epBiweeklyPayments(workerID, count), nil, &resp)
	return resp, err
}

// MarkPaymentPaid toggles a payment record's paid state.
func (c *Client) MarkPaymentPaid(ctx context.Context, workerID int, req MarkPaidRequest) (MarkPaidResponse, error) {
	var resp MarkPaidResponse
	err := c.do(ctx, epMarkPaymentPaid(workerID), req, &resp)
	return resp, err
}

// Breaks fetches break records, optionally restricted to one worker.
func (c *Client) Breaks(ctx context.Context, workerID int) (BreaksResponse, error) {
	var resp BreaksResponse
	err := c.do(ctx, epBreaks(workerID), nil, &resp)
	return resp, err
}

// TelegramRegister starts registration of a Telegram account.
func (c *Client) TelegramRegister(ctx context.Context, phone string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, epTelegramRegister(), TelegramRegisterRequest{Phone: phone}, &resp)
	return resp, err
}

// TelegramSendCode requests a login code for a registered phone.
func (c *Client) TelegramSendCode(ctx context.Context, phone string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, epTelegramSendCode(), TelegramRegisterRequest{Phone: phone}, &resp)
	return resp, err
}

// TelegramVerify confirms a login code.
func (c *Client) TelegramVerify(ctx context.Context, phone, code string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, epTelegramVerify(), TelegramVerifyRequest{Phone: phone, Code: code}, &resp)
	return resp, err
}

// TelegramAnalyze triggers a response-time analysis. This runs on the long
// timeout tier.
func (c *Client) TelegramAnalyze(ctx context.Context, req TelegramAnalyzeRequest) (TelegramAnalyzeResponse, error) {
	var resp TelegramAnalyzeResponse
	err := c.do(ctx, epTelegramAnalyze(), req, &resp)
	return resp, err
}

// TelegramStats fetches response-time analytics and linked accounts.
func (c *Client) TelegramStats(ctx context.Context) (TelegramStatsResponse, error) {
	var resp TelegramStatsResponse
	err := c.do(ctx, epTelegramStats(), nil, &resp)
	return resp, err
}

// TelegramDelete unlinks a Telegram account.
func (c *Client) TelegramDelete(ctx context.Context, accountID int) error {
	return c.do(ctx, epTelegramDelete(accountID), nil, nil)
}
