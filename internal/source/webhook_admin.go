package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookClient manages the bot's webhook registration.
// *tgbotapi.BotAPI satisfies it.
type WebhookClient interface {
	Requester
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
}

// WebhookURL joins the public base URL and the webhook path.
func WebhookURL(baseURL, path string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("source: invalid base url: %w", err)
	}
	if base.Scheme != "https" || base.Host == "" {
		return "", fmt.Errorf("source: base url %q must be an absolute https url", baseURL)
	}
	return strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// EnsureWebhook registers link as the bot's webhook unless Telegram already
// reports it. With a secret token the registration is always refreshed,
// since getWebhookInfo does not reveal the current secret.
func EnsureWebhook(client WebhookClient, link, secretToken string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if secretToken == "" {
		info, err := client.GetWebhookInfo()
		if err != nil {
			logger.Warn("failed to read webhook info", zap.Error(err))
		} else if info.URL == link {
			logger.Info("webhook already set", zap.String("url", link))
			return nil
		}
	}

	params := tgbotapi.Params{"url": link}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	resp, err := client.MakeRequest("setWebhook", params)
	if err != nil {
		return &TransientError{Op: "setWebhook", Err: err}
	}
	if resp == nil || !resp.Ok {
		return &TransientError{Op: "setWebhook", Err: apiFailure(resp)}
	}

	logger.Info("webhook set", zap.String("url", link))
	return nil
}

// DisableWebhook removes any webhook so that getUpdates can be used.
// Pending updates are kept.
func DisableWebhook(client Requester, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	resp, err := client.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false})
	if err != nil {
		return &TransientError{Op: "deleteWebhook", Err: err}
	}
	if resp == nil || !resp.Ok {
		return &TransientError{Op: "deleteWebhook", Err: apiFailure(resp)}
	}
	logger.Info("webhook removed")
	return nil
}

func apiFailure(resp *tgbotapi.APIResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	return fmt.Errorf("api error %d: %s", resp.ErrorCode, resp.Description)
}
