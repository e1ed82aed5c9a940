package utils

import (
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"os"
)

var ErrSMTPNotConfigured = errors.New("SMTP_EMAIL hoặc SMTP_PASSWORD chưa cấu hình")

func smtpServer() (host, port string) {
	host, port = os.Getenv("SMTP_HOST"), os.Getenv("SMTP_PORT")
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port == "" {
		port = "587"
	}
	return host, port
}

// BuildMessage ghép header MIME (UTF-8, HTML) với nội dung
func BuildMessage(from, to, subject, body string) []byte {
	msg := ""
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	msg += fmt.Sprintf("From: %s\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "\r\n" + body
	return []byte(msg)
}

func SendEmail(to, subject, body string) error {
	from := os.Getenv("SMTP_EMAIL")
	pass := os.Getenv("SMTP_PASSWORD")
	if from == "" || pass == "" {
		return ErrSMTPNotConfigured
	}

	host, port := smtpServer()
	err := smtp.SendMail(
		host+":"+port,
		smtp.PlainAuth("", from, pass, host),
		from,
		[]string{to},
		BuildMessage(from, to, subject, body),
	)
	if err != nil {
		return fmt.Errorf("gửi email thất bại: %w", err)
	}
	return nil
}

// LecturerWelcomeEmail là email gửi cho giảng viên vừa được admin tạo tài khoản
func LecturerWelcomeEmail(fullName, email, password string) (subject, body string) {
	subject = "Tài khoản giảng viên của bạn đã được tạo"
	body = `
		<h3>Xin chào ` + html.EscapeString(fullName) + `,</h3>
		<p>Bạn đã được cấp tài khoản giảng viên trên hệ thống quản trị <b>Topic Slides</b>.</p>
		<p><b>Email đăng nhập:</b> ` + html.EscapeString(email) + `<br>
		<b>Mật khẩu:</b> ` + html.EscapeString(password) + `</p>
		<p>Vui lòng đăng nhập và đổi mật khẩu sau khi sử dụng lần đầu.</p>
		<hr>
		<p><i>Đây là email tự động, vui lòng không trả lời.</i></p>
		`
	return subject, body
}
