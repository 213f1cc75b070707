package clients

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequestAcceptsStringAndObjectNotes(t *testing.T) {
	body := `{
		"name": "Asha",
		"phone": "555-1111",
		"notes": ["plain text note", {"text": "object note", "keywords": ["2bhk"], "date": "2024-05-01T10:00:00Z"}]
	}`
	var req CreateClientRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Len(t, req.Notes, 2)
	assert.Equal(t, "plain text note", req.Notes[0].Text)
	assert.Nil(t, req.Notes[0].Date)
	assert.Equal(t, "object note", req.Notes[1].Text)
	assert.Equal(t, []string{"2bhk"}, req.Notes[1].Keywords)
	require.NotNil(t, req.Notes[1].Date)
	assert.Equal(t, 2024, req.Notes[1].Date.Year())
	require.NoError(t, req.Validate())
}

func TestUpdateRequestDistinguishesAbsentFields(t *testing.T) {
	var req UpdateClientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"interested","email":""}`), &req))
	require.NotNil(t, req.Status)
	assert.Equal(t, StatusInterested, *req.Status)
	require.NotNil(t, req.Email, "explicit empty email clears the field")
	assert.Nil(t, req.Name)
	assert.Nil(t, req.Phone)
	assert.Nil(t, req.Requirements)
	assert.NoError(t, req.Validate())
}

func TestUpdateRequestValidation(t *testing.T) {
	cases := []struct {
		body string
		msg  string
	}{
		{`{"status":"archived"}`, "Invalid status"},
		{`{"email":"nope"}`, "Please include a valid email"},
		{`{"requirements":[{"type":"budget"}]}`, "Requirement value is required"},
		{`{"requirements":[{"type":"x","value":"1"}]}`, "Invalid requirement type"},
		{`{"requirements":[{"type":"budget","value":"1","priority":"urgent"}]}`, "Invalid requirement priority"},
		{`{"notes":[{"text":" "}]}`, "Note text is required"},
		{`{"assignedTo":""}`, "assignedTo cannot be empty"},
	}
	for _, tc := range cases {
		var req UpdateClientRequest
		require.NoError(t, json.Unmarshal([]byte(tc.body), &req), tc.body)
		err := req.Validate()
		require.ErrorIs(t, err, ErrValidation, tc.body)
		assert.Equal(t, tc.msg, err.Error(), tc.body)
	}
}

func TestCleanKeywords(t *testing.T) {
	assert.Equal(t, []string{"sea view", "2bhk"}, cleanKeywords([]string{" sea view", "", "2bhk", "sea view"}))
	assert.Equal(t, []string{}, cleanKeywords(nil))
}
