package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/app/services"
	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/parser"
)

func TestSplitRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single record",
			input: "1 Main St\nSpringfield, IL 62701\n",
			want:  []string{"1 Main St\nSpringfield, IL 62701"},
		},
		{
			name:  "separated records",
			input: "a\n---\nb\nc\n  ---  \nd",
			want:  []string{"a", "b\nc", "d"},
		},
		{
			name:  "empty records dropped",
			input: "---\n\n---\nx\n---\n",
			want:  []string{"x"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitRecords(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadInput_Stdin(t *testing.T) {
	got, err := readInput(strings.NewReader("Attn: Bob\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Attn: Bob\n", got)
}

func TestRunBatch_PreservesOrder(t *testing.T) {
	addresses := []string{
		"Jane Doe\n123 Main St\nSpringfield, IL 62701\nUSA",
		"nowhere",
		"John Smith\n1 Bay St\nToronto, ON M5J 2X2\nCanada",
	}
	svc := services.NewAddressService(parser.NewAddressParser(locale.Default(), zap.NewNop()), zap.NewNop(),
		services.WithWorkers(2))

	results, err := runBatch(context.Background(), svc, addresses, requests.ParseOptions{SkipReview: true})
	require.NoError(t, err)
	require.Len(t, results, len(addresses))

	for i, result := range results {
		assert.Equal(t, addresses[i], result.Raw)
	}
	assert.Equal(t, models.StatusAmbiguous, results[1].Status)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(results[1]))
	assert.Contains(t, buf.String(), `"raw":"nowhere"`)
}

func TestStatesCmd(t *testing.T) {
	cmd := createStatesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"canada"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Ontario\n")

	cmd = createStatesCmd()
	cmd.SetArgs([]string{"atlantis"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "unknown country")
}
