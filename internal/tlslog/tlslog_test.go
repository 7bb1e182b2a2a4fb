package tlslog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/sigsplit/internal/models"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<tlsStates>
    <tlsState time="0.00" id="J1" programID="0" phase="0" state="GGrr"/>
    <tlsState time="0.00" id="J2" programID="0" phase="0" state="rrGG"/>
    <tlsState time="30.00" id="J1" programID="0" phase="1" state="yyrr"/>
    <tlsState time="33.00" id="J1" programID="0" phase="2" state="rrGG"/>
</tlsStates>
`

const sampleCSV = `time,id,programID,phase,state
0,J1,Fixed,0,GGrr
30,J1,Fixed,1,yyrr
33,J2,Fixed,0,rrGG
`

func TestReadXML(t *testing.T) {
	events, err := Read(strings.NewReader(sampleXML), FormatXML, Options{TLSID: "J1"})
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, models.RawEvent{Time: 30, SubStageID: "1", State: "yyrr", TLSID: "J1", ProgramID: "0"}, events[1])
	assert.Equal(t, 33.0, events[2].Time)
}

func TestReadXML_AllLights(t *testing.T) {
	events, err := Read(strings.NewReader(sampleXML), FormatXML, Options{})
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestReadXML_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader(`<tlsStates><tlsState time="x"/>`), FormatXML, Options{})
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	events, err := Read(strings.NewReader(sampleCSV), FormatCSV, Options{TLSID: "J1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.RawEvent{Time: 30, SubStageID: "1", State: "yyrr", TLSID: "J1", ProgramID: "Fixed"}, events[1])
}

func TestReadCSV_SubStageIDHeader(t *testing.T) {
	in := "Time, subStageID, State\n0, A, rg\n10, B, gr\n"
	events, err := Read(strings.NewReader(in), FormatCSV, Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.SubStageID("B"), events[1].SubStageID)
	assert.Equal(t, "gr", events[1].State)
	assert.Empty(t, events[1].TLSID)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		config bool
	}{
		{name: "missing header", input: "", config: true},
		{name: "missing state column", input: "time,phase\n0,1\n", config: true},
		{name: "bad time", input: "time,phase,state\nzero,1,rg\n", config: true},
		{name: "ragged row", input: "time,phase,state\n0,1\n"},
		{name: "empty state", input: "time,phase,state\n0,1,\n"},
		{name: "no records", input: "time,phase,state\n", config: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), FormatCSV, Options{})
			require.Error(t, err)
			if tt.config {
				assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "tls.xml")
	csvPath := filepath.Join(dir, "tls.CSV")
	require.NoError(t, os.WriteFile(xmlPath, []byte(sampleXML), 0o644))
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	events, err := ReadFile(xmlPath, "", Options{TLSID: "J2"})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = ReadFile(csvPath, "", Options{})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	_, err = ReadFile(filepath.Join(dir, "tls.txt"), "", Options{})
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = ReadFile(filepath.Join(dir, "missing.xml"), "", Options{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XML")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Format(""), f)

	_, err = ParseFormat("json")
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestRemap(t *testing.T) {
	events := []models.RawEvent{
		{Time: 0, SubStageID: "0", ProgramID: "Fixed", State: "Gr"},
		{Time: 5, SubStageID: "1", ProgramID: "Fixed", State: "yr"},
		{Time: 8, SubStageID: "4", ProgramID: "Fixed", State: "rG"},
		{Time: 9, SubStageID: "1", ProgramID: "Actuated", State: "yr"},
		{Time: 12, SubStageID: "9", ProgramID: "Fixed", State: "rr"},
	}
	newIDs := []models.SubStageID{"1", "2", "3", "4", "0"}

	out := Remap(events, "Fixed", newIDs)
	got := make([]models.SubStageID, len(out))
	for i, e := range out {
		got[i] = e.SubStageID
	}
	assert.Equal(t, []models.SubStageID{"1", "2", "0", "1", "9"}, got)

	// The input is not modified.
	assert.Equal(t, models.SubStageID("0"), events[0].SubStageID)

	all := Remap(events, "", newIDs)
	assert.Equal(t, models.SubStageID("2"), all[3].SubStageID)
}
