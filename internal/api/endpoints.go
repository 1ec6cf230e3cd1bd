package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"paytrack/internal/core"
)

// Tier selects the request timeout class. Most calls are interactive; a few
// known-slow operations (remote Telegram analysis) get the long tier.
type Tier int

const (
	TierDefault Tier = iota
	TierLong
)

// Endpoint describes one backend call: path, method, query parameters, and
// timeout tier. It never carries credentials; the client injects those.
type Endpoint struct {
	Method string
	Path   string
	Query  url.Values
	Tier   Tier
}

func get(path string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: path}
}

func (e Endpoint) withQuery(key, value string) Endpoint {
	if e.Query == nil {
		e.Query = url.Values{}
	}
	e.Query.Set(key, value)
	return e
}

func epHealth() Endpoint { return get("/api/health") }

func epDashboard(period core.TimePeriod) Endpoint {
	return get("/api/dashboard").withQuery("period", period.String())
}

func epTransactions(q TransactionQuery) Endpoint {
	e := get("/api/transactions").
		withQuery("period", q.Period.String()).
		withQuery("page", strconv.Itoa(q.Page))
	if q.Source != "" {
		e = e.withQuery("source", q.Source.String())
	}
	if q.Status != "" {
		e = e.withQuery("status", q.Status.String())
	}
	if q.Search != "" {
		e = e.withQuery("search", q.Search)
	}
	return e
}

func epNewTransactions(since string) Endpoint {
	return get("/api/transactions/new").withQuery("since", since)
}

func epWorkers() Endpoint { return get("/api/workers") }

func epWorkerDetail(workerID int) Endpoint {
	return get(fmt.Sprintf("/api/workers/%d", workerID))
}

func epCreateWorker() Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/api/workers"}
}

func epUpdateWorker(workerID int) Endpoint {
	return Endpoint{Method: http.MethodPut, Path: fmt.Sprintf("/api/workers/%d", workerID)}
}

func epDeleteWorker(workerID int) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: fmt.Sprintf("/api/workers/%d", workerID)}
}

func epPaymentBreakdown(workerID int, period core.TimePeriod) Endpoint {
	return get(fmt.Sprintf("/api/workers/%d/payment", workerID)).withQuery("period", period.String())
}

func epDailyPayments(workerID, days int) Endpoint {
	return get(fmt.Sprintf("/api/workers/%d/payments/daily", workerID)).
		withQuery("days", strconv.Itoa(days))
}

func epBiweeklyPayments(workerID, count int) Endpoint {
	return get(fmt.Sprintf("/api/workers/%d/payments/biweekly", workerID)).
		withQuery("count", strconv.Itoa(count))
}

func epMarkPaymentPaid(workerID int) Endpoint {
	return Endpoint{Method: http.MethodPost, Path: fmt.Sprintf("/api/workers/%d/payments/mark-paid", workerID)}
}

func epBreaks(workerID int) Endpoint {
	e := get("/api/breaks")
	if workerID > 0 {
		e = e.withQuery("user_id", strconv.Itoa(workerID))
	}
	return e
}

func epTelegramRegister() Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/api/telegram/register"}
}

func epTelegramSendCode() Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/api/telegram/send-code"}
}

func epTelegramVerify() Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/api/telegram/verify"}
}

// Telegram analysis runs a third-party scan behind the backend and routinely
// takes minutes, hence the long tier.
func epTelegramAnalyze() Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/api/telegram/analyze", Tier: TierLong}
}

func epTelegramStats() Endpoint { return get("/api/telegram-stats") }

func epTelegramDelete(accountID int) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: fmt.Sprintf("/api/telegram/accounts/%d", accountID)}
}
