package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

type smsConfig struct {
	APIKey string
	From   string
	APIURL string
}

var smsCfg smsConfig

// ConfigureSMSFromEnv loads the SMS gateway config from environment.
// Required: SMS_API_KEY; Optional: SMS_FROM, SMS_API_URL. When no key is
// set, SendSMS logs the message instead of delivering it (dev mode).
func ConfigureSMSFromEnv() {
	smsCfg = smsConfig{
		APIKey: os.Getenv("SMS_API_KEY"),
		From:   os.Getenv("SMS_FROM"),
		APIURL: os.Getenv("SMS_API_URL"),
	}
	if smsCfg.APIURL == "" {
		smsCfg.APIURL = "https://api.netgsm.com.tr/sms/send"
	}
	if smsCfg.From == "" {
		smsCfg.From = "GELSIN"
	}
}

type smsSendBody struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

// SendSMS delivers a text message through the configured gateway.
func SendSMS(to, text string) error {
	if smsCfg.APIURL == "" {
		ConfigureSMSFromEnv()
	}
	if smsCfg.APIKey == "" {
		// Dev mode: no gateway configured.
		slog.Info("sms (dev mode, not sent)", "to", to, "text", text)
		return nil
	}

	payload := smsSendBody{To: to, From: smsCfg.From, Text: text}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequest("POST", smsCfg.APIURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+smsCfg.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMsg string
		if body, readErr := io.ReadAll(resp.Body); readErr == nil && len(body) > 0 {
			errMsg = string(body)
		}
		if errMsg != "" {
			return fmt.Errorf("sms send failed: status=%d body=%s", resp.StatusCode, errMsg)
		}
		return fmt.Errorf("sms send failed: status=%d", resp.StatusCode)
	}
	return nil
}
