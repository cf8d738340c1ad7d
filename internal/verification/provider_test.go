package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPProvider(HTTPProviderConfig{
		BaseURL:    srv.URL,
		APIKey:     "secret",
		GSTPath:    "/verify/gstin",
		BankPath:   "/verify/bank-account",
		StatusPath: "/tasks",
		Timeout:    2 * time.Second,
	}, zaptest.NewLogger(t))
}

func TestHTTPProvider_CreateTask_GST(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify/gstin", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "27AAAAA0000A1Z5", body["gstin"])
		_, _ = w.Write([]byte(`{"status":"success","data":{"request_id":"req-42"}}`))
	})

	id, err := p.CreateTask(context.Background(), GSTSubject("27AAAAA0000A1Z5"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", id)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPProvider_CreateTask_BankPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify/bank-account", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456789012", body["bank_account_no"])
		assert.Equal(t, "HDFC0001234", body["bank_ifsc_code"])
		assert.Equal(t, true, body["nf_verification"])
		_, _ = w.Write([]byte(`{"status":"success","data":{"request_id":"req-7"}}`))
	})

	id, err := p.CreateTask(context.Background(), BankSubject("123456789012", "HDFC0001234"))
	require.NoError(t, err)
	assert.Equal(t, "req-7", id)
}

func TestHTTPProvider_CreateTask_NotRetried(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.CreateTask(context.Background(), GSTSubject("27AAAAA0000A1Z5"))
	assert.True(t, IsServiceUnavailable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPProvider_CreateTask_MissingRequestID(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{}}`))
	})

	_, err := p.CreateTask(context.Background(), GSTSubject("27AAAAA0000A1Z5"))
	assert.True(t, IsServiceUnavailable(err))
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestHTTPProvider_FetchStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		switch r.URL.Query().Get("request_id") {
		case "gst-done":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"status":"completed","result":{"legal_name":"Acme Pvt Ltd","trade_name":"Acme","gstin_status":"Active","business_address":{"city":"Pune","pincode":"411001"}}}]}`))
		case "bank-done":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"status":"completed","result":{"name_at_bank":"Jane Doe","bank_name":"XYZ Bank","account_exists":"YES"}}]}`))
		case "running":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"status":"in_progress"}]}`))
		case "weird":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"status":"queued"}]}`))
		case "failed":
			_, _ = w.Write([]byte(`{"status":"success","data":[{"status":"failed","message":"invalid"}]}`))
		case "empty":
			_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	})
	ctx := context.Background()

	st, err := p.FetchStatus(ctx, SubjectGST, "gst-done")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, "Acme", st.Result.GST.TradeName)
	assert.Equal(t, "Pune", st.Result.GST.BusinessAddress.City)

	st, err = p.FetchStatus(ctx, SubjectBank, "bank-done")
	require.NoError(t, err)
	assert.True(t, st.Result.Bank.AccountExists)
	assert.Equal(t, "Jane Doe", st.Result.Bank.AccountHolderName)

	st, err = p.FetchStatus(ctx, SubjectGST, "running")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st.Status)

	st, err = p.FetchStatus(ctx, SubjectGST, "weird")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st.Status)

	st, err = p.FetchStatus(ctx, SubjectGST, "failed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "invalid", st.Message)

	_, err = p.FetchStatus(ctx, SubjectGST, "empty")
	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)

	_, err = p.FetchStatus(ctx, SubjectGST, "garbage")
	assert.ErrorAs(t, err, &malformed)
	assert.True(t, IsTransient(err))
}
