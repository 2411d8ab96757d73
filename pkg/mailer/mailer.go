// Package mailer 发送复习提醒邮件
package mailer

import (
	"crypto/tls"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// Config SMTP 配置
type Config struct {
	Host     string
	Port     int
	UserName string
	Password string
	From     string
	// InsecureSkipVerify 跳过证书校验，仅用于自签名的内网服务器
	InsecureSkipVerify bool
}

// Sender 邮件发送接口
type Sender interface {
	Send(to []string, subject, body string) error
}

// Mailer 基于 gomail 的 Sender
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

// New 创建 Mailer；Host 为空时返回 nil，调用方据此判断邮件是否启用
func New(cfg Config) *Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.UserName, cfg.Password)
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.From == "" {
		cfg.From = cfg.UserName
	}
	return &Mailer{cfg: cfg, dialer: d}
}

// Message 组装邮件
func (m *Mailer) Message(to []string, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}

// Send 发送纯文本邮件
func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return errors.New("mailer: no recipients")
	}
	if err := m.dialer.DialAndSend(m.Message(to, subject, body)); err != nil {
		return errors.Wrap(err, "mailer: send failed")
	}
	return nil
}
