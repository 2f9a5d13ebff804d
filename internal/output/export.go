package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"

	"tazq/internal/backend/jsonfile"
	"tazq/internal/task"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists the accepted export formats.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// tomlDocument wraps the list because TOML has no top-level arrays.
type tomlDocument struct {
	Tasks []task.Task `toml:"task"`
}

// Export writes tasks to w in the given format. JSON output is identical
// to the persisted document.
func Export(w io.Writer, format string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}

	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = jsonfile.Encode(tasks)
	case FormatYAML:
		data, err = yaml.Marshal(tasks)
	case FormatTOML:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(tomlDocument{Tasks: tasks})
		data = buf.Bytes()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	_, err = w.Write(data)
	return err
}
