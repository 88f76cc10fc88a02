package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := MerchantRequest{
		FirstName: "  Amina  ",
		LastName:  " Benali ",
		Phone:     " 0661-234-567 ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Amina", req.FirstName)
	assert.Equal(t, "Benali", req.LastName)
	assert.Equal(t, "0661-234-567", req.Phone)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	note := "stall moved <script>alert('x')</script> last week"
	req := MerchantRequest{
		FirstName: "Karim",
		Note:      note,
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Note, "&lt;script&gt;")
	assert.NotContains(t, req.Note, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	url := "  https://cdn.example.com/photos/m-42.jpg  "
	req := MerchantRequest{
		FirstName: "Leila",
		PhotoURL:  &url,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "https://cdn.example.com/photos/m-42.jpg", *req.PhotoURL)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := MerchantRequest{
		FirstName: "Omar",
		PhotoURL:  nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.PhotoURL)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ABONO-001",
		"pos_7731",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"abono 001",   // space
		"key<001>",    // angle brackets
		"key;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"key\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestPhone_Valid(t *testing.T) {
	cases := []string{
		"+212661234567",
		"0661234567",
		"0661-234-567",
		"06 61 23 45 67",
	}
	for _, tc := range cases {
		assert.True(t, phoneRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestPhone_Invalid(t *testing.T) {
	cases := []string{
		"phone",        // letters
		"12345",        // too short
		"+",            // no digits
		"0661;2345678", // semicolon
		"066123456789012345678901", // too long
	}
	for _, tc := range cases {
		assert.False(t, phoneRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

// --- Conversion tests ---

func TestMerchantRequest_ToInput(t *testing.T) {
	req := MerchantRequest{
		FirstName: "Amina",
		LastName:  "Benali",
		TotalDebt: 120000,
		Assignments: []AssignmentEntry{
			{Meters: 3.5, WorkDay: "MONDAY", Cost: 40000},
			{Meters: 2.0, WorkDay: "THURSDAY", Cost: 25000},
		},
	}
	in := req.ToInput()

	assert.Equal(t, "Amina", in.FirstName)
	assert.Equal(t, int64(120000), in.TotalDebt)
	assert.Len(t, in.Assignments, 2)
	assert.Equal(t, 3.5, in.Assignments[0].Meters)
	assert.Equal(t, int64(25000), in.Assignments[1].Cost)
}
