package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/httpclient"
)

// TaskStatus is the provider's status report, normalized at the client
// boundary so callers never inspect raw payloads.
type TaskStatus struct {
	Status  Status
	Result  *Result
	Message string
}

// Provider is the third-party verification service.
type Provider interface {
	// CreateTask submits the subject and returns the provider request id.
	CreateTask(ctx context.Context, subject Subject) (string, error)
	// FetchStatus reports the current status of a task.
	FetchStatus(ctx context.Context, subjectType SubjectType, requestID string) (*TaskStatus, error)
}

// HTTPProviderConfig configures HTTPProvider.
type HTTPProviderConfig struct {
	BaseURL    string
	APIKey     string
	GSTPath    string
	BankPath   string
	StatusPath string
	Timeout    time.Duration
}

// HTTPProvider talks to the verification REST API.
type HTTPProvider struct {
	cfg    HTTPProviderConfig
	create *retryablehttp.Client // never retried: one task per trigger
	query  *retryablehttp.Client
	logger *zap.Logger
}

// NewHTTPProvider creates a provider client.
func NewHTTPProvider(cfg HTTPProviderConfig, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		cfg:    cfg,
		create: httpclient.New(httpclient.Options{Timeout: cfg.Timeout, RetryMax: 0, Logger: logger}),
		query:  httpclient.New(httpclient.Options{Timeout: cfg.Timeout, RetryMax: 2, Logger: logger}),
		logger: logger,
	}
}

type createTaskEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		RequestID string `json:"request_id"`
	} `json:"data"`
}

type statusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	} `json:"data"`
}

type gstPayload struct {
	LegalName              string `json:"legal_name"`
	TradeName              string `json:"trade_name"`
	GstinStatus            string `json:"gstin_status"`
	ConstitutionOfBusiness string `json:"constitution_of_business"`
	BusinessAddress        *struct {
		BuildingName string `json:"building_name"`
		Street       string `json:"street"`
		Locality     string `json:"locality"`
		City         string `json:"city"`
		State        string `json:"state"`
		Pincode      string `json:"pincode"`
	} `json:"business_address"`
}

type bankPayload struct {
	NameAtBank    string `json:"name_at_bank"`
	BankName      string `json:"bank_name"`
	IFSCCode      string `json:"ifsc_code"`
	AccountExists yesNo  `json:"account_exists"`
	Status        string `json:"status"`
}

// yesNo accepts true/false as well as the "YES"/"NO" strings some providers send.
type yesNo bool

func (y *yesNo) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*y = yesNo(t)
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "YES", "TRUE", "Y":
			*y = true
		case "NO", "FALSE", "N", "":
			*y = false
		default:
			return fmt.Errorf("unexpected account_exists value %q", t)
		}
	case nil:
		*y = false
	default:
		return fmt.Errorf("unexpected account_exists type %T", v)
	}
	return nil
}

// CreateTask posts the subject to the GST or bank endpoint.
func (p *HTTPProvider) CreateTask(ctx context.Context, subject Subject) (string, error) {
	var path string
	var payload interface{}
	switch subject.Type {
	case SubjectGST:
		path = p.cfg.GSTPath
		payload = map[string]interface{}{"gstin": subject.GSTIN}
	case SubjectBank:
		path = p.cfg.BankPath
		payload = map[string]interface{}{
			"bank_account_no": subject.AccountNumber,
			"bank_ifsc_code":  subject.IFSCCode,
			"nf_verification": true,
		}
	default:
		return "", &ValidationError{Field: "subject_type", Message: "unsupported subject type"}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode task payload: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return "", &ServiceUnavailableError{Op: "create", Err: err}
	}
	p.setHeaders(req)

	resp, err := p.create.Do(req)
	if err != nil {
		return "", &ServiceUnavailableError{Op: "create", Err: err}
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return "", &ServiceUnavailableError{Op: "create", Err: err}
	}

	var env createTaskEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &ServiceUnavailableError{Op: "create", Err: &MalformedResponseError{Detail: err.Error()}}
	}
	if env.Status != "success" {
		return "", &ServiceUnavailableError{Op: "create", Err: fmt.Errorf("provider returned status %q: %s", env.Status, env.Message)}
	}
	if env.Data == nil || env.Data.RequestID == "" {
		return "", &ServiceUnavailableError{Op: "create", Err: &MalformedResponseError{Detail: "missing data.request_id"}}
	}
	return env.Data.RequestID, nil
}

// FetchStatus queries the task status endpoint.
func (p *HTTPProvider) FetchStatus(ctx context.Context, subjectType SubjectType, requestID string) (*TaskStatus, error) {
	u := p.cfg.BaseURL + p.cfg.StatusPath + "?request_id=" + url.QueryEscape(requestID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ServiceUnavailableError{Op: "status", Err: err}
	}
	p.setHeaders(req)

	resp, err := p.query.Do(req)
	if err != nil {
		return nil, &ServiceUnavailableError{Op: "status", Err: err}
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, &ServiceUnavailableError{Op: "status", Err: err}
	}
	return decodeStatus(subjectType, body)
}

func (p *HTTPProvider) setHeaders(req *retryablehttp.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("api-key", p.cfg.APIKey)
	}
}

func decodeStatus(subjectType SubjectType, body []byte) (*TaskStatus, error) {
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedResponseError{Detail: err.Error()}
	}
	if env.Status != "success" {
		return nil, &MalformedResponseError{Detail: fmt.Sprintf("envelope status %q", env.Status)}
	}
	if len(env.Data) == 0 {
		return nil, &MalformedResponseError{Detail: "empty data array"}
	}
	item := env.Data[0]

	switch Status(item.Status) {
	case StatusCompleted:
		result, err := decodeResult(subjectType, item.Result)
		if err != nil {
			return nil, err
		}
		return &TaskStatus{Status: StatusCompleted, Result: result, Message: item.Message}, nil
	case StatusFailed:
		return &TaskStatus{Status: StatusFailed, Message: item.Message}, nil
	case StatusPending:
		return &TaskStatus{Status: StatusPending}, nil
	default:
		// in_progress and anything unrecognized keep the task running
		return &TaskStatus{Status: StatusInProgress, Message: item.Message}, nil
	}
}

func decodeResult(subjectType SubjectType, raw json.RawMessage) (*Result, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &MalformedResponseError{Detail: "completed task without result"}
	}
	switch subjectType {
	case SubjectGST:
		var g gstPayload
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, &MalformedResponseError{Detail: "gst result: " + err.Error()}
		}
		if g.LegalName == "" && g.TradeName == "" {
			return nil, &MalformedResponseError{Detail: "gst result without legal or trade name"}
		}
		res := &GSTResult{
			LegalName:              g.LegalName,
			TradeName:              g.TradeName,
			GstinStatus:            g.GstinStatus,
			ConstitutionOfBusiness: g.ConstitutionOfBusiness,
		}
		if a := g.BusinessAddress; a != nil {
			res.BusinessAddress = Address{
				BuildingName: a.BuildingName,
				Street:       a.Street,
				Locality:     a.Locality,
				City:         a.City,
				State:        a.State,
				Pincode:      a.Pincode,
			}
		}
		return &Result{GST: res}, nil
	case SubjectBank:
		var b bankPayload
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, &MalformedResponseError{Detail: "bank result: " + err.Error()}
		}
		return &Result{Bank: &BankResult{
			AccountHolderName: b.NameAtBank,
			BankName:          b.BankName,
			IFSCCode:          b.IFSCCode,
			AccountExists:     bool(b.AccountExists),
			Status:            b.Status,
		}}, nil
	}
	return nil, &MalformedResponseError{Detail: "unsupported subject type " + string(subjectType)}
}
