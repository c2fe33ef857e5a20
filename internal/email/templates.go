package email

import (
	"fmt"
	"time"
)

// OTPBody собирает HTML-письмо с одноразовым кодом подтверждения.
func OTPBody(userName, otp string, expiry time.Duration, appName string) string {
	minutes := int(expiry.Minutes())

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang='en'>
<head>
    <meta charset='UTF-8'>
    <meta name='viewport' content='width=device-width, initial-scale=1.0'>
    <title>OTP Verification</title>
</head>
<body style='margin:0; padding:0; background-color:#f4f6f8; font-family:Arial, sans-serif;'>

<table width='100%%' cellpadding='0' cellspacing='0' style='padding:30px 0;'>
    <tr>
        <td align='center'>
            <table width='520' cellpadding='0' cellspacing='0'
                   style='background:#ffffff; border-radius:10px; padding:30px;
                          box-shadow:0 4px 12px rgba(0,0,0,0.08);'>

                <tr>
                    <td style='text-align:center; padding-bottom:20px;'>
                        <h2 style='margin:0; color:#2d6cdf;'>%[4]s</h2>
                        <p style='margin:5px 0 0; color:#777; font-size:14px;'>
                            Secure Account Verification
                        </p>
                    </td>
                </tr>

                <tr>
                    <td style='color:#333; font-size:15px;'>
                        <p>Hi <strong>%[1]s</strong>,</p>

                        <p>
                            We received a request to verify your identity.
                            Please use the One-Time Password (OTP) below:
                        </p>

                        <div style='
                            margin:25px 0;
                            padding:15px;
                            text-align:center;
                            font-size:32px;
                            letter-spacing:6px;
                            font-weight:bold;
                            color:#2d6cdf;
                            background:#f1f5ff;
                            border-radius:8px;'>
                            %[2]s
                        </div>

                        <p>
                            This OTP will expire in
                            <strong>%[3]d minutes</strong>.
                        </p>

                        <p style='color:#777; font-size:13px; margin-top:20px;'>
                            If you did not request this code, please ignore this email.
                            For your security, do not share this OTP with anyone.
                        </p>
                    </td>
                </tr>

                <tr>
                    <td style='border-top:1px solid #eee; padding-top:20px;
                               text-align:center; font-size:12px; color:#999;'>
                        <p style='margin:0;'>
                            &copy; %[5]d %[4]s. All rights reserved.
                        </p>
                        <p style='margin:5px 0 0;'>
                            %[4]s &ndash; Security Operations
                        </p>
                    </td>
                </tr>

            </table>
        </td>
    </tr>
</table>

</body>
</html>`, userName, otp, minutes, appName, time.Now().UTC().Year())
}

// WelcomeBody собирает приветственное письмо после регистрации.
func WelcomeBody(userName, tenantName, appName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang='en'>
<head>
    <meta charset='UTF-8'>
    <title>Welcome</title>
</head>
<body style='margin:0; padding:0; background-color:#f4f6f8; font-family:Arial, sans-serif;'>

<table width='100%%' cellpadding='0' cellspacing='0' style='padding:30px 0;'>
    <tr>
        <td align='center'>
            <table width='520' cellpadding='0' cellspacing='0'
                   style='background:#ffffff; border-radius:10px; padding:30px;
                          box-shadow:0 4px 12px rgba(0,0,0,0.08);'>

                <tr>
                    <td style='text-align:center; padding-bottom:20px;'>
                        <h2 style='margin:0; color:#2d6cdf;'>%[3]s</h2>
                    </td>
                </tr>

                <tr>
                    <td style='color:#333; font-size:15px;'>
                        <p>Hi <strong>%[1]s</strong>,</p>

                        <p>
                            Your account in workspace <strong>%[2]s</strong> has been
                            created. Sign in with your email to get started.
                        </p>
                    </td>
                </tr>

                <tr>
                    <td style='border-top:1px solid #eee; padding-top:20px;
                               text-align:center; font-size:12px; color:#999;'>
                        <p style='margin:0;'>
                            &copy; %[4]d %[3]s. All rights reserved.
                        </p>
                    </td>
                </tr>

            </table>
        </td>
    </tr>
</table>

</body>
</html>`, userName, tenantName, appName, time.Now().UTC().Year())
}
