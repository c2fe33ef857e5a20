// redact — маскирование чувствительных значений перед записью в логи.
package redact

import "strings"

// Email оставляет от локальной части не более двух символов.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
func OTP() string      { return "[REDACTED_OTP]" }
