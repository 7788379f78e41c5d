package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// StatusSuccess is the only callback status that settles an order.
const StatusSuccess = "TXN_SUCCESS"

var ErrMalformedCallback = errors.New("malformed settlement callback")

// Callback is the parsed form of a settlement callback whose checksum has
// already been verified.
type Callback struct {
	MerchantID     string
	OrderID        string
	TxnID          string
	ReportedAmount string
	Status         string
	CustomerID     uint
	CourseID       uint
	RespMsg        string
	PaymentMode    string
	BankTxnID      string
	TxnDate        string
	Checksum       string
}

func (c *Callback) Succeeded() bool {
	return c.Status == StatusSuccess
}

// ParseCallback extracts the settlement fields. ORDER_ID, STATUS, CUST_ID and
// COURSE_ID are required; successful callbacks must also carry TXN_ID.
func ParseCallback(p Params) (*Callback, error) {
	cb := &Callback{
		MerchantID:     p["MID"],
		OrderID:        p["ORDER_ID"],
		TxnID:          p["TXN_ID"],
		ReportedAmount: p["TXN_AMOUNT"],
		Status:         p["STATUS"],
		RespMsg:        p["RESPMSG"],
		PaymentMode:    p["PAYMENT_MODE"],
		BankTxnID:      p["BANK_TXN_ID"],
		TxnDate:        p["TXN_DATE"],
		Checksum:       p[ChecksumField],
	}
	if cb.OrderID == "" {
		return nil, fmt.Errorf("%w: ORDER_ID missing", ErrMalformedCallback)
	}
	if cb.Status == "" {
		return nil, fmt.Errorf("%w: STATUS missing", ErrMalformedCallback)
	}
	if cb.Succeeded() && cb.TxnID == "" {
		return nil, fmt.Errorf("%w: TXN_ID missing", ErrMalformedCallback)
	}
	var err error
	if cb.CustomerID, err = parseID(p["CUST_ID"]); err != nil {
		return nil, fmt.Errorf("%w: CUST_ID %v", ErrMalformedCallback, err)
	}
	if cb.CourseID, err = parseID(p["COURSE_ID"]); err != nil {
		return nil, fmt.Errorf("%w: COURSE_ID %v", ErrMalformedCallback, err)
	}
	return cb, nil
}

func parseID(s string) (uint, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("not a positive integer")
	}
	return uint(n), nil
}

// ParamsFromForm flattens url-encoded values, keeping the first value per key.
func ParamsFromForm(v url.Values) Params {
	p := make(Params, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			p[k] = vals[0]
		}
	}
	return p
}

// ParamsFromJSON decodes a flat JSON object. Numbers and booleans keep their
// literal text; nested objects, arrays and nulls are rejected.
func ParamsFromJSON(body []byte) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	p := make(Params, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			p[k] = t
		case json.Number:
			p[k] = t.String()
		case bool:
			p[k] = strconv.FormatBool(t)
		default:
			return nil, fmt.Errorf("%w: field %s is not a scalar", ErrMalformedCallback, k)
		}
	}
	return p, nil
}
