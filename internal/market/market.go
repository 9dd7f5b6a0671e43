package market

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Market identifies an isolated tenant with its own database and locale rules.
type Market string

const (
	KG Market = "kg"
	US Market = "us"
)

// ErrUnsupportedPhone is returned when a phone number matches no known
// country prefix.
var ErrUnsupportedPhone = errors.New("cannot detect market for phone number")

// All returns the supported markets in a stable order.
func All() []Market {
	return []Market{KG, US}
}

// Parse converts a raw market string (e.g. from an X-Market header) into a
// Market value.
func Parse(value string) (Market, error) {
	switch Market(strings.ToLower(strings.TrimSpace(value))) {
	case KG:
		return KG, nil
	case US:
		return US, nil
	}
	return "", fmt.Errorf("unsupported market: %q", value)
}

// LocaleRules holds the market-specific constants governing currency, phone
// format, language, tax and verification codes. The values are fixed at
// process start and never mutated.
type LocaleRules struct {
	Currency           string
	CurrencyCode       string
	PhonePrefix        string
	PhoneFormat        string
	PhonePattern       *regexp.Regexp
	Language           string
	Country            string
	CountryCode        string
	Timezone           string
	TaxRate            float64
	PostalCodeRequired bool
	CodeLength         int
	CodeTTL            time.Duration
	PaymentKinds       []string
}

var rules = map[Market]LocaleRules{
	KG: {
		Currency:           "сом",
		CurrencyCode:       "KGS",
		PhonePrefix:        "+996",
		PhoneFormat:        "+996 XXX XXX XXX",
		PhonePattern:       regexp.MustCompile(`^\+996[0-9]{9}$`),
		Language:           "ru",
		Country:            "Kyrgyzstan",
		CountryCode:        "KG",
		Timezone:           "Asia/Bishkek",
		TaxRate:            0.12,
		PostalCodeRequired: false,
		CodeLength:         6,
		CodeTTL:            10 * time.Minute,
		PaymentKinds:       []string{"card", "cash_on_delivery", "bank_transfer"},
	},
	US: {
		Currency:           "$",
		CurrencyCode:       "USD",
		PhonePrefix:        "+1",
		PhoneFormat:        "+1 (XXX) XXX-XXXX",
		PhonePattern:       regexp.MustCompile(`^\+1[0-9]{10}$`),
		Language:           "en",
		Country:            "United States",
		CountryCode:        "US",
		Timezone:           "America/New_York",
		TaxRate:            0.08,
		PostalCodeRequired: true,
		CodeLength:         6,
		CodeTTL:            15 * time.Minute,
		PaymentKinds:       []string{"card", "paypal", "apple_pay", "google_pay"},
	},
}

// Rules returns the locale rules for a market. It fails only for a Market
// value outside the closed enum.
func Rules(m Market) (LocaleRules, error) {
	r, ok := rules[m]
	if !ok {
		return LocaleRules{}, fmt.Errorf("unsupported market: %q", m)
	}
	return r, nil
}

// MustRules is Rules for callers holding an already-validated Market.
func MustRules(m Market) LocaleRules {
	r, err := Rules(m)
	if err != nil {
		panic(err)
	}
	return r
}

// AllowsPaymentKind reports whether the market accepts the payment kind.
func (r LocaleRules) AllowsPaymentKind(kind string) bool {
	for _, k := range r.PaymentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// NormalizePhone strips spaces, hyphens and parentheses and prepends a plus
// sign if absent.
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	clean := replacer.Replace(strings.TrimSpace(phone))
	if clean != "" && !strings.HasPrefix(clean, "+") {
		clean = "+" + clean
	}
	return clean
}

// Detect maps a raw phone number to its market by country prefix. It is pure
// and never silently defaults.
func Detect(phone string) (Market, error) {
	clean := NormalizePhone(phone)
	switch {
	case strings.HasPrefix(clean, "+996"):
		return KG, nil
	case strings.HasPrefix(clean, "+1"):
		return US, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPhone, phone)
}

// FormatPhone renders a normalized phone number in the market's display
// format. Numbers of unexpected length are returned unchanged.
func FormatPhone(phone string, m Market) string {
	switch m {
	case KG:
		if len(phone) == 13 && strings.HasPrefix(phone, "+996") {
			return fmt.Sprintf("%s %s %s %s", phone[:4], phone[4:7], phone[7:10], phone[10:])
		}
	case US:
		if len(phone) == 12 && strings.HasPrefix(phone, "+1") {
			return fmt.Sprintf("+1 (%s) %s-%s", phone[2:5], phone[5:8], phone[8:])
		}
	}
	return phone
}

// FormatPrice renders an amount in the market's price format.
func FormatPrice(amount float64, m Market) string {
	switch m {
	case US:
		return "$" + strconv.FormatFloat(amount, 'f', 2, 64)
	default:
		return strconv.FormatFloat(amount, 'f', 0, 64) + " сом"
	}
}
