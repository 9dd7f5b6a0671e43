package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SMSService delivers verification codes through an HTTP SMS gateway. The
// gateway is best-effort: a failed dispatch is reported to the caller as
// false, never as an error that aborts the auth flow.
type SMSService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewSMSService creates a new SMSService. An empty baseURL disables dispatch.
func NewSMSService(apiKey, baseURL string, log *zap.Logger) *SMSService {
	return &SMSService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type smsMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendVerification sends the code to the phone and reports delivery success.
func (s *SMSService) SendVerification(phone, code string) bool {
	if s.baseURL == "" {
		s.log.Info("sms gateway not configured, skipping dispatch",
			zap.String("phone", phone))
		return false
	}

	msg := smsMessage{
		Phone:   phone,
		Message: fmt.Sprintf("Your verification code is %s", code),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode sms payload", zap.Error(err))
		return false
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		s.log.Error("failed to build sms request", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("sms dispatch failed", zap.String("phone", phone), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("sms gateway returned unexpected status",
			zap.String("phone", phone), zap.Int("status", resp.StatusCode))
		return false
	}

	return true
}
