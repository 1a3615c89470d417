package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWorkdays(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newWorkdaysCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWorkdays(t *testing.T) {
	out, err := runWorkdays(t, "2025-06-02", "2025-06-09")
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)
}

func TestWorkdays_BadDate(t *testing.T) {
	_, err := runWorkdays(t, "2025-06-02", "june")
	assert.ErrorContains(t, err, "end:")
}

func TestWorkdays_Reversed(t *testing.T) {
	_, err := runWorkdays(t, "2025-06-09", "2025-06-02")
	assert.Error(t, err)
}

func TestWorkdays_ArgCount(t *testing.T) {
	_, err := runWorkdays(t, "2025-06-02")
	assert.Error(t, err)
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	cmd := newExportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--company", "c", "--user", "u", "--format", "pdf"})

	err := cmd.Execute()

	assert.EqualError(t, err, "format must be csv or xlsx")
}
