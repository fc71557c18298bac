package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

func success() *models.AnalysisResult {
	return &models.AnalysisResult{
		Location:         "1L25",
		Timestamp:        "2023-02-01 21:00:26.1",
		CavityLabel:      "6",
		CavityConfidence: 0.9596626162528992,
		FaultLabel:       "Single Cav Turn off",
		FaultConfidence:  0.8224388957023621,
		Model:            "cnn_lstm_v1_0",
	}
}

func failure() *models.AnalysisError {
	return &models.AnalysisError{
		Message:   "Missing capture file for cavity '3'",
		Location:  "1L25",
		Timestamp: "2018-10-05 04:44:08.2",
	}
}

const (
	resultHeader = "Cavity     Fault               Zone     Timestamp              Model                Cav-Conf Fault-Conf\n"
	resultRow    = "6          Single Cav Turn off 1L25     2023-02-01 21:00:26.1  cnn_lstm_v1_0        0.96     0.82    \n"
	errorHeader  = "Zone     Timestamp              Error\n"
	errorRow     = "1L25     2018-10-05 04:44:08.2  Missing capture file for cavity '3'\n"
)

func TestWriteTables_SuccessOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, []models.Record{success()}, Options{}))
	assert.Equal(t, resultHeader+resultRow, buf.String())
}

func TestWriteTables_ErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, []models.Record{failure()}, Options{}))
	assert.Equal(t, errorHeader+errorRow, buf.String())
}

func TestWriteTables_SuccessesBeforeErrors(t *testing.T) {
	var buf bytes.Buffer
	records := []models.Record{failure(), success(), failure(), success()}
	require.NoError(t, WriteTables(&buf, records, Options{}))
	assert.Equal(t, resultHeader+resultRow+resultRow+errorHeader+errorRow+errorRow, buf.String())
}

func TestWriteTables_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	records := []models.Record{success(), failure()}
	require.NoError(t, WriteTables(&buf, records, Options{NoHeader: true}))
	assert.Equal(t, resultRow+errorHeader+errorRow, buf.String())
}

func TestWriteTables_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, nil, Options{}))
	assert.Empty(t, buf.String())
}

func TestWriteTables_UnparsedIdentity(t *testing.T) {
	var buf bytes.Buffer
	rec := &models.AnalysisError{Message: "path to fault-data must be absolute"}
	require.NoError(t, WriteTables(&buf, []models.Record{rec}, Options{}))
	assert.Equal(t, errorHeader+"None     None                   path to fault-data must be absolute\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []models.Record{success(), failure()}))
	assert.Equal(t,
		`{"data":[{"location":"1L25","timestamp":"2023-02-01 21:00:26.1","cavity-label":"6",`+
			`"cavity-confidence":0.9596626162528992,"fault-label":"Single Cav Turn off",`+
			`"fault-confidence":0.8224388957023621,"model":"cnn_lstm_v1_0"},`+
			`{"error":"Missing capture file for cavity '3'","location":"1L25","timestamp":"2018-10-05 04:44:08.2"}]}`+"\n",
		buf.String())
}

func TestWriteJSON_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "{\"data\":[]}\n", buf.String())
}

func TestWrite_DispatchesOnFormat(t *testing.T) {
	var table, js bytes.Buffer
	require.NoError(t, Write(&table, FormatTable, []models.Record{success()}, Options{}))
	require.NoError(t, Write(&js, FormatJSON, []models.Record{success()}, Options{}))
	assert.Equal(t, resultHeader+resultRow, table.String())
	assert.Contains(t, js.String(), `"data"`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.9596626162528992, "0.96"},
		{0.8224388957023621, "0.82"},
		{0.5, "0.5"},
		{0.999, "1"},
		{0, "0"},
		{math.NaN(), "N/A"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Confidence(tc.in))
	}
}
