package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignupNotSupported is returned when the phone has no Telegram account.
var ErrSignupNotSupported = errors.New("signup not supported")

// minPhoneLength is the shortest plausible international number.
const minPhoneLength = 10

// Client doubles as the interactive auth.UserAuthenticator. Values from the
// environment win over terminal prompts.
func (c *Client) authFlow() auth.Flow {
	return auth.NewFlow(c, auth.SendCodeOptions{})
}

func prompt(label, preset string) (string, error) {
	if preset != "" {
		return strings.TrimSpace(preset), nil
	}

	fmt.Printf("Enter %s: ", label)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return strings.TrimSpace(line), nil
}

func (c *Client) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return prompt("code", "")
}

func (c *Client) Phone(_ context.Context) (string, error) {
	raw, err := prompt("phone", c.cfg.TGPhone)
	if err != nil {
		return "", err
	}

	phone := sanitizePhone(raw)
	c.logger.Info().Str("phone", maskPhone(phone)).Msg("Signing in")

	if len(phone) < minPhoneLength {
		c.logger.Warn().Int("length", len(phone)).Msg("Phone number looks too short, include the country code")
	}

	return phone, nil
}

func (c *Client) Password(_ context.Context) (string, error) {
	return prompt("2FA password", c.cfg.TG2FAPassword)
}

func (c *Client) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (c *Client) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}
