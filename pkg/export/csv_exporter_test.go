package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	e := NewCSVExporter()

	payload, err := e.Render(Dataset{
		Headers: []string{"Code", "Name"},
		Rows: []map[string]string{
			{"Code": "MATH101", "Name": "Algebra I"},
			{"Code": "PHYS101", "Name": "Physics, Intro"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Code,Name\nMATH101,Algebra I\nPHYS101,\"Physics, Intro\"\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Code"},
		Rows:    []map[string]string{{"Code": "MATH101"}},
	}, "catalog")
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}
