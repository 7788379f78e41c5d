package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "merchant-secret"

func testSigner() *Signer {
	return &Signer{
		MerchantID:     "MID123",
		MerchantKey:    testKey,
		CallbackURL:    "http://localhost:5000/api/v1/orders/verify",
		ChannelID:      "WEB",
		Website:        "WEBSTAGING",
		IndustryTypeID: "Retail",
	}
}

func inbound() Params {
	p := Params{
		"MID":        "MID123",
		"ORDER_ID":   "CMS_ORDER_1_42_abcd1234",
		"TXN_ID":     "TXN-1",
		"TXN_AMOUNT": "49.99",
		"STATUS":     StatusSuccess,
		"CUST_ID":    "42",
		"COURSE_ID":  "7",
	}
	p[ChecksumField] = Sign(p, testKey)
	return p
}

func TestCanonicalizeSortsAndSkipsChecksum(t *testing.T) {
	p := Params{"B": "2", "A": "1", ChecksumField: "x", "C": ""}
	assert.Equal(t, "A=1|B=2|C=", Canonicalize(p))
}

func TestVerifyRoundTrip(t *testing.T) {
	p := inbound()
	assert.True(t, Verify(p, testKey))
	assert.True(t, Verify(p, testKey), "verification is deterministic")
	assert.Len(t, p[ChecksumField], 64)
}

func TestVerifyDetectsSingleByteFlip(t *testing.T) {
	base := inbound()
	for field, value := range base {
		if field == ChecksumField {
			continue
		}
		for i := range value {
			p := Params{}
			for k, v := range base {
				p[k] = v
			}
			b := []byte(value)
			b[i] ^= 0x01
			p[field] = string(b)
			assert.False(t, Verify(p, testKey), "flip in %s[%d]", field, i)
		}
	}
}

func TestVerifyRejectsMissingInputs(t *testing.T) {
	p := inbound()
	assert.False(t, Verify(p, ""), "empty key")
	assert.False(t, Verify(p, "other-key"), "wrong key")
	assert.False(t, Verify(Params{}, testKey), "empty params")
	assert.False(t, Verify(Params{ChecksumField: Sign(Params{}, testKey)}, testKey), "checksum only")

	delete(p, ChecksumField)
	assert.False(t, Verify(p, testKey), "missing checksum")

	p = inbound()
	p["EXTRA"] = "added"
	assert.False(t, Verify(p, testKey), "added field")
}

func TestBuildOutboundParams(t *testing.T) {
	s := testSigner()
	p, err := s.BuildOutboundParams(OutboundOrder{
		OrderID:    "CMS_ORDER_1_42_abcd1234",
		CustomerID: 42,
		CourseID:   7,
		Amount:     decimal.RequireFromString("49.9"),
		Currency:   "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "49.90", p["TXN_AMOUNT"])
	assert.Equal(t, "42", p["CUST_ID"])
	assert.Equal(t, "7", p["COURSE_ID"])
	assert.Equal(t, "MID123", p["MID"])
	assert.True(t, s.VerifyInboundParams(p))
	for _, v := range p {
		assert.NotContains(t, v, testKey)
	}
}

func TestSeparatorsCannotShiftFieldBoundaries(t *testing.T) {
	// both sets canonicalize to "A=1|B=2"
	honest := Params{"A": "1", "B": "2"}
	shifted := Params{"A": "1|B=2"}
	require.Equal(t, Canonicalize(honest), Canonicalize(shifted))

	shifted[ChecksumField] = Sign(honest, testKey)
	assert.False(t, Verify(shifted, testKey))

	eqKey := Params{"A=1|B": "2"}
	eqKey[ChecksumField] = Sign(honest, testKey)
	assert.False(t, Verify(eqKey, testKey))

	assert.ErrorIs(t, CheckCanonical(Params{"RESPMSG": "a=b"}), ErrUnsafeParam)
	assert.NoError(t, CheckCanonical(Params{"RESPMSG": "Txn Success", ChecksumField: "ab|=cd"}))

	s := testSigner()
	s.CallbackURL = "https://cms.example/verify?x=1"
	_, err := s.BuildOutboundParams(OutboundOrder{OrderID: "CMS_ORDER_1", CustomerID: 1, CourseID: 1, Amount: decimal.NewFromInt(1), Currency: "INR"})
	assert.ErrorIs(t, err, ErrUnsafeParam)

	_, err = testSigner().BuildOutboundParams(OutboundOrder{OrderID: "CMS|ORDER", CustomerID: 1, CourseID: 1, Amount: decimal.NewFromInt(1), Currency: "INR"})
	assert.ErrorIs(t, err, ErrUnsafeParam)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "49.99", FormatAmount(decimal.RequireFromString("49.99")))
	assert.Equal(t, "100.00", FormatAmount(decimal.NewFromInt(100)))
	assert.Equal(t, int64(4999), ToMinorUnits(decimal.RequireFromString("49.99")))
}

func TestParamsFromJSON(t *testing.T) {
	p, err := ParamsFromJSON([]byte(`{"ORDER_ID":"G1","CUST_ID":42,"TXN_AMOUNT":49.99,"FLAG":true}`))
	require.NoError(t, err)
	assert.Equal(t, "42", p["CUST_ID"])
	assert.Equal(t, "49.99", p["TXN_AMOUNT"])
	assert.Equal(t, "true", p["FLAG"])

	_, err = ParamsFromJSON([]byte(`{"ORDER_ID":{"nested":1}}`))
	assert.ErrorIs(t, err, ErrMalformedCallback)
	_, err = ParamsFromJSON([]byte(`{"ORDER_ID":null}`))
	assert.ErrorIs(t, err, ErrMalformedCallback)
	_, err = ParamsFromJSON([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedCallback)
}

func TestParseCallback(t *testing.T) {
	cb, err := ParseCallback(inbound())
	require.NoError(t, err)
	assert.True(t, cb.Succeeded())
	assert.Equal(t, uint(42), cb.CustomerID)
	assert.Equal(t, uint(7), cb.CourseID)
	assert.Equal(t, "49.99", cb.ReportedAmount)

	missing := inbound()
	delete(missing, "TXN_ID")
	_, err = ParseCallback(missing)
	assert.ErrorIs(t, err, ErrMalformedCallback)

	failed := inbound()
	delete(failed, "TXN_ID")
	failed["STATUS"] = "TXN_FAILURE"
	cb, err = ParseCallback(failed)
	require.NoError(t, err)
	assert.False(t, cb.Succeeded())

	bad := inbound()
	bad["CUST_ID"] = "abc"
	_, err = ParseCallback(bad)
	assert.ErrorIs(t, err, ErrMalformedCallback)
}
