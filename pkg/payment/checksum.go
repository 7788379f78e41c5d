package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ChecksumField carries the signature and is excluded from the canonical string.
const ChecksumField = "CHECKSUMHASH"

// Params is a flat gateway parameter set.
type Params map[string]string

// ErrUnsafeParam is returned for keys or values containing the canonical
// separators, which would make the signed string ambiguous.
var ErrUnsafeParam = errors.New("payment parameter contains a reserved character")

const reservedChars = "|="

// CheckCanonical reports the first field whose key or value contains "|" or "=".
func CheckCanonical(p Params) error {
	for k, v := range p {
		if k == ChecksumField {
			continue
		}
		if strings.ContainsAny(k, reservedChars) || strings.ContainsAny(v, reservedChars) {
			return fmt.Errorf("%w: %s", ErrUnsafeParam, k)
		}
	}
	return nil
}

// Canonicalize renders every field except the checksum as key=value, sorted
// by key and joined with "|".
func Canonicalize(p Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == ChecksumField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p[k])
	}
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical form.
func Sign(p Params, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(Canonicalize(p)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the checksum and compares it in constant time. A missing
// key, a missing checksum or an otherwise empty parameter set never verifies.
func Verify(p Params, key string) bool {
	if key == "" || len(p) == 0 {
		return false
	}
	got := p[ChecksumField]
	if got == "" {
		return false
	}
	if len(p) == 1 {
		return false
	}
	if CheckCanonical(p) != nil {
		return false
	}
	want := Sign(p, key)
	return hmac.Equal([]byte(want), []byte(got))
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Signer holds the merchant identity and secret used on both sides of checkout.
type Signer struct {
	MerchantID     string
	MerchantKey    string
	CallbackURL    string
	ChannelID      string
	Website        string
	IndustryTypeID string
}

type OutboundOrder struct {
	OrderID    string
	CustomerID uint
	CourseID   uint
	Amount     decimal.Decimal
	Currency   string
}

// BuildOutboundParams produces the signed parameter set that drives the
// checkout page. Fields carrying "|" or "=" are refused with ErrUnsafeParam.
func (s *Signer) BuildOutboundParams(o OutboundOrder) (Params, error) {
	p := Params{
		"MID":              s.MerchantID,
		"ORDER_ID":         o.OrderID,
		"CUST_ID":          strconv.FormatUint(uint64(o.CustomerID), 10),
		"COURSE_ID":        strconv.FormatUint(uint64(o.CourseID), 10),
		"TXN_AMOUNT":       FormatAmount(o.Amount),
		"CURRENCY":         o.Currency,
		"CALLBACK_URL":     s.CallbackURL,
		"CHANNEL_ID":       s.ChannelID,
		"WEBSITE":          s.Website,
		"INDUSTRY_TYPE_ID": s.IndustryTypeID,
	}
	if err := CheckCanonical(p); err != nil {
		return nil, err
	}
	p[ChecksumField] = Sign(p, s.MerchantKey)
	return p, nil
}

func (s *Signer) VerifyInboundParams(p Params) bool {
	return Verify(p, s.MerchantKey)
}
