package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type smtpConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	From     string `json:"from"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type smtpNotifier struct {
	cfg      smtpConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func init() {
	Register("smtp", createSMTPNotifier)
}

func createSMTPNotifier(args interface{}) (Notifier, error) {
	cfg := smtpConfig{}
	if err := decodeConfig(args, &cfg); err != nil {
		return nil, err
	}
	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, fmt.Errorf("smtp host/port/from are required")
	}
	return &smtpNotifier{cfg: cfg, sendMail: smtp.SendMail}, nil
}

func (s *smtpNotifier) Name() string {
	return "smtp"
}

func (s *smtpNotifier) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return s.sendMail(addr, auth, s.cfg.From, []string{to}, buildMessage(s.cfg.From, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + body)
}
