package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractRun_EventLog(t *testing.T) {
	run := &ContractRun{}

	events, err := run.EventLog()
	require.NoError(t, err)
	assert.Empty(t, events)

	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, run.SetEvents([]Event{
		{Seq: 1, Step: "upload", Level: EventInfo, Message: "ok", Time: now},
		{Seq: 2, Step: "cnd", Level: EventWarn, Message: "faltando", Fields: map[string]string{"campo": "DATA_CND"}, Time: now},
	}))

	events, err = run.EventLog()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[1].Seq)
	assert.Equal(t, "DATA_CND", events[1].Fields["campo"])
	assert.True(t, events[0].Time.Equal(now))
}

func TestContractRun_FieldValues(t *testing.T) {
	run := &ContractRun{}
	require.NoError(t, run.SetFields(map[string]map[string]string{
		"ficha": {"NATURALIDADE": "Recife - PE"},
	}))

	fields, err := run.FieldValues()
	require.NoError(t, err)
	assert.Equal(t, "Recife - PE", fields["ficha"]["NATURALIDADE"])
}

func TestDocumentParseError(t *testing.T) {
	cause := errors.New("malformed PDF")
	err := error(&DocumentParseError{Slot: "matricula", File: "matricula.pdf", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "matricula.pdf")

	var parseErr *DocumentParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "matricula", parseErr.Slot)
}
