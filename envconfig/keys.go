package envconfig

// Configuration keys read from the environment.
const (
	KeyBaseURL           = "BASE_URL"
	KeyLoginEndpoint     = "LOGIN_ENDPOINT"
	KeyPageEndpoint      = "PAGE_ENDPOINT"
	KeyMaxLoginAttempts  = "MAX_LOGIN_ATTEMPTS"
	KeyRateLimitAttempts = "RATE_LIMIT_ATTEMPTS"
	KeyTimeoutErrorS     = "TIMEOUT_ERROR_S"

	KeyPageTitleRegex = "PAGE_TITLE_REGEX"
	KeyPageTitleMain  = "PAGE_TITLE_MAIN"
	KeyPageTestTitle  = "PAGE_TEST_TITLE"

	KeyEmailLabel         = "EMAIL_LABEL"
	KeyPasswordLabel      = "PASSWORD_LABEL"
	KeyButtonText         = "BUTTON_TEXT"
	KeyButtonToPageTest   = "BUTTON_TO_PAGE_TEST"
	KeyButtonTextToTest01 = "BUTTON_TEXT_TO_TEST01"
	KeyButtonTextToTest02 = "BUTTON_TEXT_TO_TEST02"
	KeyErrorMessageText   = "ERROR_MESSAGE_TEXT"

	KeyUserLogin    = "USER_LOGIN"
	KeyUserPassword = "USER_PASSWORD"

	KeyHeaderURL       = "HEADER_URL"
	KeyHeaderChecklist = "HEADER_CHECKLIST"

	KeyPollInterval    = "AVAILABILITY_POLL_INTERVAL"
	KeyMaxWait         = "AVAILABILITY_MAX_WAIT"
	KeyLockoutSettle   = "LOCKOUT_SETTLE_DELAY"
	KeyRateLimitSettle = "RATE_LIMIT_SETTLE_DELAY"
	KeyClickDelay      = "RATE_LIMIT_CLICK_DELAY"
)

// AllKeys lists every key the loader understands, in validation order.
var AllKeys = []string{
	KeyBaseURL,
	KeyLoginEndpoint,
	KeyPageEndpoint,
	KeyMaxLoginAttempts,
	KeyRateLimitAttempts,
	KeyTimeoutErrorS,
	KeyPageTitleRegex,
	KeyPageTitleMain,
	KeyPageTestTitle,
	KeyEmailLabel,
	KeyPasswordLabel,
	KeyButtonText,
	KeyButtonToPageTest,
	KeyButtonTextToTest01,
	KeyButtonTextToTest02,
	KeyErrorMessageText,
	KeyUserLogin,
	KeyUserPassword,
	KeyHeaderURL,
	KeyHeaderChecklist,
	KeyPollInterval,
	KeyMaxWait,
	KeyLockoutSettle,
	KeyRateLimitSettle,
	KeyClickDelay,
}

// TimingKeys are the optional keys that fall back to the Default* values.
var TimingKeys = []string{
	KeyPollInterval,
	KeyMaxWait,
	KeyLockoutSettle,
	KeyRateLimitSettle,
	KeyClickDelay,
}

// secretKeys are masked when a configuration is printed.
var secretKeys = map[string]bool{
	KeyUserPassword: true,
}

// IsSecret reports whether the value of key should be masked in output.
func IsSecret(key string) bool {
	return secretKeys[key]
}
